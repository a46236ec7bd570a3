package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

type profileConfig struct {
	Mode string `default:""  enum:",cpu,mem" help:"Write a pprof profile of the run." name:"profile" placeholder:"cpu|mem"`
	Dir  string `default:"." help:"Profile output directory."                        name:"profile-dir" type:"path"`
}

func (*profileConfig) group() kong.Group {
	var group kong.Group

	group.Key = "profile"
	group.Title = "Profiling (pprof)"

	return group
}

// start starts profiling if configured.
func (f *profileConfig) start(ctx context.Context) (stop func()) {
	var mode func(*profile.Profile)

	switch f.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		return func() {}
	}

	slog.DebugContext(ctx, "pprof start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	p := profile.Start(mode, profile.ProfilePath(f.Dir), profile.Quiet, profile.NoShutdownHook)

	return func() {
		slog.DebugContext(ctx, "pprof stop",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
		p.Stop()
	}
}
