package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/natefinch/atomic"
)

// Generator writes the compiled site of a session to its output directory.
type Generator struct {
	s   *Session
	log *slog.Logger
	mu  sync.Mutex // one file at a time: config reset, config.lua, compile
}

func NewGenerator(s *Session) *Generator {
	return &Generator{s: s, log: s.cfg.Logger.With("component", "generator")}
}

func (g *Generator) Session() *Session { return g.s }

// Build compiles the whole input directory. posts/ is processed first so
// that pages listing posts see every entry. Failing files are reported and
// skipped; the joined errors are returned at the end.
func (g *Generator) Build() error {
	start := time.Now()
	in := g.s.cfg.InputDir
	if err := os.MkdirAll(g.s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var errs []error
	postsDir := filepath.Join(in, "posts")
	if info, err := os.Stat(postsDir); err == nil && info.IsDir() {
		errs = append(errs, g.walk(postsDir)...)
	}
	errs = append(errs, g.walk(in)...)

	if g.s.IsEnabled("profiler") {
		g.s.display.Printf("Total time: %d ms", time.Since(start).Milliseconds())
	}
	g.log.Info("build finished",
		"input", in,
		"output", g.s.cfg.OutputDir,
		"duration", time.Since(start),
		"errors", len(errs),
	)
	return errors.Join(errs...)
}

func (g *Generator) walk(dir string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{fmt.Errorf("read %s: %w", dir, err)}
	}
	var errs []error
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if e.Name() == dataDir || p == g.s.cfg.OutputDir {
				continue
			}
			errs = append(errs, g.walk(p)...)
			continue
		}
		if g.skipped(p) {
			continue
		}
		if err := g.GenerateFile(p); err != nil {
			g.log.Error("generate failed", "file", p, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// skipped reports files that configure the site and are not published.
func (g *Generator) skipped(path string) bool {
	in := g.s.cfg.InputDir
	if path == filepath.Join(in, ConfigScript) || path == filepath.Join(in, SiteConfigFile) {
		return true
	}
	rel, err := filepath.Rel(in, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == dataDir {
			return true
		}
	}
	return false
}

// OutputPath is where the output of a source file is written.
func (g *Generator) OutputPath(path string) string {
	return filepath.Join(g.s.cfg.OutputDir, filepath.FromSlash(DestinationURL(path, g.s.cfg.InputDir)))
}

// GenerateFile compiles a template, or copies any other file, to the output
// directory. Configuration is reset to the site defaults and config.lua runs
// before every compiled file.
func (g *Generator) GenerateFile(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	dest := g.OutputPath(path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	if !IsTemplate(path) {
		return copyFile(path, dest)
	}

	g.s.ResetConfig()
	g.s.RunConfigScript()

	debug := g.s.IsEnabled("debugInfo")
	start := time.Now()
	if debug {
		g.s.display.Printf("Compiling %s", path)
	}

	out, err := g.s.Compile(path)
	if err != nil {
		g.s.display.Printf("Error: Could not compile file %s", path)
		return fmt.Errorf("compile %s: %w", path, err)
	}

	if debug {
		g.s.display.Printf("Writing to %s", dest)
	}
	if err := atomic.WriteFile(dest, strings.NewReader(out)); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if g.s.IsEnabled("profiler") {
		g.s.display.Printf("  - %d ms to generate %s (%s)",
			time.Since(start).Milliseconds(),
			DestinationURL(path, g.s.cfg.InputDir),
			humanize.Bytes(uint64(len(out))),
		)
	}
	return nil
}

func copyFile(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer f.Close()

	if err := atomic.WriteFile(dest, f); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// RemoveOutput deletes the output of a removed source file.
func (g *Generator) RemoveOutput(path string) error {
	dest := g.OutputPath(path)
	err := os.Remove(dest)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", dest, err)
	}
	return nil
}

// HandleEvent applies a change of the input tree: created or modified files
// are regenerated, removed or renamed ones lose their output.
func (g *Generator) HandleEvent(op fsnotify.Op, path string) error {
	if g.s.IsEnabled("debugInfo") {
		g.s.display.Printf("OS Event received: %s %s", op, path)
	}
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		return g.RemoveOutput(path)
	}
	if !op.Has(fsnotify.Create) && !op.Has(fsnotify.Write) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || g.skipped(path) {
		return nil
	}
	return g.GenerateFile(path)
}
