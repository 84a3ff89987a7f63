package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/perbu/calbrief/brief"
	"github.com/perbu/calbrief/dateparse"
	"github.com/perbu/calbrief/digest"
	"github.com/perbu/calbrief/gcal"
	"github.com/perbu/calbrief/line"
	"github.com/perbu/calbrief/logging"
	"github.com/perbu/calbrief/server"
)

const (
	runTimeout      = 2 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// newBuilder resolves the fixed timezone and locale from config.
func (c *cli) newBuilder() (*digest.Builder, error) {
	loc, err := c.cfg.Location()
	if err != nil {
		return nil, err
	}
	locale, err := digest.ParseLocale(c.cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("digest.ParseLocale: %w", err)
	}
	return digest.NewBuilder(loc, locale), nil
}

// newJob wires the collaborators. A nil pusher is allowed for preview.
func (c *cli) newJob(pusher brief.Pusher, metrics *brief.Metrics) (*brief.Job, error) {
	creds, err := c.loader.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("loader.LoadCredentials: %w", err)
	}
	builder, err := c.newBuilder()
	if err != nil {
		return nil, err
	}
	return &brief.Job{
		Opener:     gcal.NewServiceAccountOpener(creds, c.calendarOptions...),
		Pusher:     pusher,
		Builder:    builder,
		CalendarID: c.cfg.CalendarID,
		Recipient:  c.cfg.RecipientID,
		WindowDays: c.cfg.WindowDays,
		Logger:     c.logger,
		Metrics:    metrics,
	}, nil
}

func (c *cli) newPusher() (*line.Pusher, error) {
	c.logger.Debug("creating LINE client", "token", logging.SanitizeToken(c.cfg.ChannelAccessToken))
	return line.NewPusher(c.cfg.ChannelAccessToken, c.lineOptions...)
}

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build today's digest and send it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			pusher, err := c.newPusher()
			if err != nil {
				return err
			}
			job, err := c.newJob(pusher, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()
			return job.Run(ctx)
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Send the digest on a cron schedule and serve the webhook endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics, err := brief.NewMetrics(reg)
			if err != nil {
				return fmt.Errorf("brief.NewMetrics: %w", err)
			}
			pusher, err := c.newPusher()
			if err != nil {
				return err
			}
			job, err := c.newJob(pusher, metrics)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c, job, reg, runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "send one digest immediately at startup")
	return cmd
}

// serve runs the scheduler and the HTTP server until ctx is cancelled.
func serve(ctx context.Context, c *cli, job *brief.Job, reg *prometheus.Registry, runNow bool) error {
	loc, err := c.cfg.Location()
	if err != nil {
		return err
	}

	cl := cronLogger{logger: c.logger}
	deliver := digestJob(cl, func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		// Failures are logged and counted by the job; the schedule continues.
		_ = job.Run(runCtx)
	})

	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
	)
	if _, err := scheduler.AddJob(c.cfg.Schedule, deliver); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.cfg.Schedule, err)
	}

	srv := server.New(server.Config{
		Addr:          c.cfg.Listen,
		ChannelSecret: c.cfg.ChannelSecret,
		Logger:        c.logger,
		Gatherer:      reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		scheduler.Start()
		c.logger.Info("scheduler started", "schedule", c.cfg.Schedule, "timezone", loc.String())
		if runNow {
			deliver.Run()
		}
		<-gctx.Done()

		<-scheduler.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// digestJob wraps run so that a scheduled fire and the startup run never
// overlap; a fire during a run is skipped.
func digestJob(logger cron.Logger, run func()) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(run))
}

func newPreviewCmd(c *cli) *cobra.Command {
	var date string
	var plain bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the digest to the terminal without sending it",
		Example: `  calbrief preview
  calbrief preview --date tomorrow
  calbrief preview --date 2024-06-10T07:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.ValidateCalendar(); err != nil {
				return err
			}
			job, err := c.newJob(nil, nil)
			if err != nil {
				return err
			}
			now, err := dateparse.New(job.Builder.Location()).Parse(date)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()
			r, err := job.Digest(ctx, now)
			if err != nil {
				return err
			}
			printDigest(cmd.OutOrStdout(), r.Text, plain)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "reference date: today, tomorrow, yesterday, YYYY-MM-DD or YYYY-MM-DDTHH:MM")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colour")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "calbrief version", strings.TrimSpace(embeddedVersion))
		},
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})
	return cmd
}
