package main

import (
	_ "embed"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/perbu/calbrief/config"
	"github.com/perbu/calbrief/logging"
)

//go:embed .version
var embeddedVersion string

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	cfg        *config.Config
	loader     config.Loader
	logger     *slog.Logger

	// Extra client options for the outbound collaborators.
	calendarOptions []option.ClientOption
	lineOptions     []messaging_api.MessagingApiAPIOption
}

// init loads configuration and builds the logger. It runs before every
// subcommand.
func (c *cli) init() error {
	loader, err := config.NewLoader(c.configPath)
	if err != nil {
		return fmt.Errorf("config.NewLoader: %w", err)
	}
	cfg, err := loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("loader.LoadConfig: %w", err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logging.New: %w", err)
	}
	c.loader, c.cfg, c.logger = loader, cfg, logger
	return nil
}

func newRootCmd(c *cli) *cobra.Command {
	runCmd := newRunCmd(c)

	root := &cobra.Command{
		Use:   "calbrief",
		Short: "Sends today's calendar digest to LINE",
		Long: `calbrief reads upcoming events from one Google Calendar, formats the
events active today into a digest and pushes it to one LINE user.

It can run as:
  - a one-shot job for an external scheduler (default)
  - a long-running service with its own cron schedule and a webhook endpoint`,
		Version:           strings.TrimSpace(embeddedVersion),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return c.init() },
		RunE:              runCmd.RunE,
	}
	root.SetVersionTemplate(`{{printf "calbrief version %s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "optional YAML config file; environment variables take precedence")

	root.AddCommand(runCmd)
	root.AddCommand(newServeCmd(c))
	root.AddCommand(newPreviewCmd(c))
	root.AddCommand(newConfigCmd(c))
	root.AddCommand(newVersionCmd())
	return root
}

func run(args []string) error {
	root := newRootCmd(&cli{})
	root.SetArgs(args)
	return root.Execute()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
