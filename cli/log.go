package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// level is shared by every handler installed by this package, so a
// --log-level flag parsed after --log-format still applies.
var level = new(slog.LevelVar)

// logOutput is where log records go. Diagnostics meant for the site author
// are written to stdout by the engine; logs stay on stderr.
var logOutput io.Writer = os.Stderr

// logFormat configures the default logger as a side effect of parsing.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	installHandler(string(*f))

	return nil
}

// logLevel configures the default logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	level.Set(parseLevel(string(*l)))

	return nil
}

type logConfig struct {
	Level  logLevel  `default:"warn" enum:"debug,info,warn,error" help:"Set log level."`
	Format logFormat `default:"text" enum:"json,text"             help:"Set log format."`
	Source bool      `default:"false"                              help:"Include source location." negatable:""`
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

func (f *logConfig) start(ctx context.Context) {
	level.Set(parseLevel(string(f.Level)))
	slog.SetDefault(slog.New(newHandler(string(f.Format), f.Source)))

	slog.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.Bool("source", f.Source),
	)
}

func installHandler(format string) {
	slog.SetDefault(slog.New(newHandler(format, false)))
}

func newHandler(format string, source bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: source}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(logOutput, opts)
	}

	return slog.NewTextHandler(logOutput, opts)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}

	return l
}
