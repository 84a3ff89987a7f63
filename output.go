package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/perbu/calbrief/digest"
	"github.com/perbu/calbrief/logging"
)

// printDigest writes the digest with the header, section titles and rules
// highlighted.
func printDigest(w io.Writer, text string, plain bool) {
	headerColor := color.New(color.FgCyan, color.Bold)
	sectionColor := color.New(color.FgYellow, color.Bold)
	subtle := color.New(color.FgHiBlack)
	if plain {
		for _, c := range []*color.Color{headerColor, sectionColor, subtle} {
			c.DisableColor()
		}
	}

	for i, l := range strings.Split(text, "\n") {
		switch {
		case i == 0:
			_, _ = headerColor.Fprintln(w, l)
		case l == digest.Rule:
			_, _ = subtle.Fprintln(w, l)
		case strings.HasPrefix(l, "■"):
			_, _ = sectionColor.Fprintln(w, l)
		default:
			_, _ = fmt.Fprintln(w, l)
		}
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{logging.Err(err)}, keysAndValues...)...)
}
