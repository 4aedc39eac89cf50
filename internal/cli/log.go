// Package cli implements the fpgaroute command-line interface.
//
// The CLI routes netlists over routing-resource graphs, generates synthetic
// devices to route on, and manages the result cache. It is built on cobra,
// reads its defaults from fpgaroute.toml and logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - route: Route a netlist and write the requested reports
//   - generate: Build an island-style device and a random netlist
//   - inspect: Summarize a graph and, optionally, a netlist against it
//   - render: Redraw a saved JSON routing as DOT, SVG or PNG
//   - cache: Clear or locate the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The [log]
// table of the config file picks the level, format and timestamps. Loggers
// are passed through context.Context.
//
// # Example
//
//	import "github.com/matzehuels/fpgaroute/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/config"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// configureLogger applies the [log] table of the config file to l.
func configureLogger(l *log.Logger, cfg config.LogConfig) error {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	l.SetFormatter(config.Formatter(cfg.Format))
	l.SetReportTimestamp(cfg.Timestamp)
	return nil
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Routed 42 nets (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
