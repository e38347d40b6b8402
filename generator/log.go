package generator

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goaux/contextvalue"
)

// newLogger builds the stderr diagnostics logger. stdout stays reserved for
// generated code.
func newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})
}

func loggerFrom(ctx context.Context) *log.Logger {
	if l, ok := contextvalue.From[*log.Logger](ctx); ok {
		return l
	}
	return log.New(io.Discard)
}
