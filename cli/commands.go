package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"asg/engine"
	"asg/repl"
)

// stdout receives the output of the commands. Tests replace it.
var stdout io.Writer = os.Stdout

type site struct {
	Input  string `arg:"" help:"Input directory."  type:"existingdir"`
	Output string `arg:"" help:"Output directory." type:"path"`
}

func openSession(input, output string, w io.Writer) (*engine.Session, error) {
	return engine.NewSession(engine.Config{
		InputDir:  input,
		OutputDir: output,
		Logger:    slog.Default(),
		Stdout:    w,
	})
}

// Build compiles the whole site once.
type Build struct {
	site `embed:""`
}

// Run executes the build command.
func (c *Build) Run(ctx context.Context) error {
	s, err := openSession(c.Input, c.Output, stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	return engine.NewGenerator(s).Build()
}

// Serve builds the site, then keeps it up to date while the context lives:
// the input tree is watched when livereload is "true", and the output is
// served on localhost when port is set.
type Serve struct {
	site `embed:""`
}

// Run executes the serve command.
func (c *Serve) Run(ctx context.Context) error {
	s, err := openSession(c.Input, c.Output, stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	gen := engine.NewGenerator(s)
	if err := gen.Build(); err != nil {
		slog.WarnContext(ctx, "build finished with errors", slog.Any("error", err))
	}

	// the last compiled file may have changed the values
	s.ResetConfig()
	s.RunConfigScript()
	livereload := s.IsEnabled("livereload")
	port, _ := s.ConfigValue("port")

	if !livereload && port == "" {
		return nil
	}

	hub := engine.NewReloadHub()
	if livereload {
		fw, err := engine.NewFileWatcher(gen)
		if err != nil {
			return fmt.Errorf("watch %s: %w", c.Input, err)
		}
		fw.OnChange = func(string) { hub.Broadcast() }
		fw.Start()
		defer fw.Stop()
	}

	if port == "" {
		<-ctx.Done()
		return nil
	}

	srv := engine.NewServer(s, hub)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen(net.JoinHostPort("localhost", port))
	}()
	fmt.Fprintf(stdout, "Serving %s on http://localhost:%s\n", s.Config().OutputDir, port)

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errc:
		return err
	}
}

// Check validates the delimiters of every template of a site.
type Check struct {
	Input string `arg:"" help:"Input directory." type:"existingdir"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	s, err := openSession(c.Input, "", stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ValidateAll(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "All templates are balanced.")

	return nil
}

// Debug dumps the tokens and chunks of one template.
type Debug struct {
	Input string `arg:"" help:"Input directory."                            type:"existingdir"`
	File  string `arg:"" help:"Template, relative to the input directory."`
}

// Run executes the debug command.
func (c *Debug) Run(ctx context.Context) error {
	s, err := openSession(c.Input, "", stdout)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.DebugFile(c.File)
}

// Repl evaluates template snippets against the state of a site.
type Repl struct {
	Input string `arg:"" help:"Input directory." type:"existingdir"`
	Build bool   `help:"Compile the site first so posts() and the globals of every page are available." negatable:""`
}

// Run executes the repl command.
func (c *Repl) Run(ctx context.Context) error {
	tmp, err := os.MkdirTemp("", "asg-repl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	// diagnostics are shown by the prompt, below the result of each line
	var diag bytes.Buffer
	s, err := openSession(c.Input, tmp, &diag)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.Build {
		if err := engine.NewGenerator(s).Build(); err != nil {
			slog.WarnContext(ctx, "build finished with errors", slog.Any("error", err))
		}
	}
	io.Copy(stdout, &diag)

	err = repl.Run(ctx, s, &diag)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
