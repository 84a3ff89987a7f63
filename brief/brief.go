// Package brief runs one digest invocation: open the calendar, list the
// window around now, build the digest and push it. The steps run strictly in
// that order and the first failure aborts the run, so a message is only ever
// sent complete.
package brief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/perbu/calbrief/digest"
	"github.com/perbu/calbrief/gcal"
	"github.com/perbu/calbrief/logging"
)

// Stages of a run, as reported in StageError and logs.
const (
	StageOpen = "open"
	StageList = "list"
	StagePush = "push"
)

// Pusher is the message-push capability.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// StageError names the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result describes a built digest.
type Result struct {
	Text   string
	Events int // events returned by the calendar
	AllDay int // entries in the all-day section
	Timed  int // entries in the timed section
}

// Job holds everything one run needs.
type Job struct {
	Opener     gcal.Opener
	Pusher     Pusher
	Builder    *digest.Builder
	CalendarID string
	Recipient  string
	WindowDays int

	// Now defaults to time.Now.
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *Metrics
}

// Digest opens the calendar, lists events around now and builds the digest
// without sending it.
func (j *Job) Digest(ctx context.Context, now time.Time) (Result, error) {
	logger := j.logger()

	lister, err := j.Opener.Open(ctx)
	if err != nil {
		return Result{}, &StageError{Stage: StageOpen, Err: err}
	}

	from, to := j.Builder.Window(now, j.WindowDays)
	logger.Debug("listing events",
		logging.Calendar(j.CalendarID),
		slog.Time("from", from),
		slog.Time("to", to),
	)
	events, err := lister.ListEvents(ctx, j.CalendarID, from, to)
	if err != nil {
		return Result{}, &StageError{Stage: StageList, Err: err}
	}

	sections := j.Builder.Sections(now, events)
	r := Result{
		Text:   sections.String(),
		Events: len(events),
		AllDay: len(sections.AllDay),
		Timed:  len(sections.Timed),
	}
	logger.Info("digest built",
		logging.Calendar(j.CalendarID),
		slog.Int("events", r.Events),
		slog.Int("all_day", r.AllDay),
		slog.Int("timed", r.Timed),
	)
	return r, nil
}

// Run performs one complete invocation and pushes the digest.
func (j *Job) Run(ctx context.Context) error {
	logger := j.logger()
	started := time.Now()
	now := j.now()

	err := j.run(ctx, now)

	elapsed := time.Since(started)
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	j.Metrics.observe(status, elapsed.Seconds())

	if err != nil {
		attrs := []any{logging.Status(status), logging.Err(err), slog.Duration(logging.KeyDuration, elapsed)}
		var se *StageError
		if errors.As(err, &se) {
			attrs = append(attrs, logging.Stage(se.Stage))
		}
		logger.Error("digest run failed", attrs...)
		return err
	}
	logger.Info("digest delivered", logging.Status(status), logging.Recipient(j.Recipient), slog.Duration(logging.KeyDuration, elapsed))
	return nil
}

func (j *Job) run(ctx context.Context, now time.Time) error {
	r, err := j.Digest(ctx, now)
	if err != nil {
		return err
	}
	j.Metrics.record(r)

	if err := ctx.Err(); err != nil {
		return &StageError{Stage: StagePush, Err: err}
	}
	if err := j.Pusher.Push(ctx, j.Recipient, r.Text); err != nil {
		return &StageError{Stage: StagePush, Err: err}
	}
	return nil
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Job) logger() *slog.Logger {
	if j.Logger != nil {
		return logging.WithOperation(j.Logger, "digest")
	}
	return logging.WithOperation(logging.Discard(), "digest")
}
