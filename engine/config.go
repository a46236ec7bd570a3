package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultMaxCachedFileSize is the size ceiling of the parse cache. Larger
	// files are parsed on every request.
	DefaultMaxCachedFileSize = 10 * 1024 * 1024
	// DefaultMaxLayoutDepth caps layout recursion in addition to the cycle check.
	DefaultMaxLayoutDepth = 32
)

// Config cấu hình cho một Session
type Config struct {
	InputDir  string
	OutputDir string
	// AssetDir holds std.lua and the files served by include_asset.
	// Default: <ExeDir>/assets
	AssetDir string
	// ExeDir is the third search root of path resolution.
	// Default: directory of the running executable
	ExeDir string

	MaxCachedFileSize int64
	MaxLayoutDepth    int

	Logger *slog.Logger
	// Stdout receives compilation diagnostics and profiler output.
	Stdout io.Writer
	// History provides commit timestamps. Default: GitHistory
	History History
	Clock   func() time.Time
}

func (c Config) withDefaults() Config {
	if c.ExeDir == "" {
		if exe, err := os.Executable(); err == nil {
			c.ExeDir = filepath.Dir(exe)
		}
	}
	if c.AssetDir == "" && c.ExeDir != "" {
		c.AssetDir = filepath.Join(c.ExeDir, "assets")
	}
	if c.MaxCachedFileSize <= 0 {
		c.MaxCachedFileSize = DefaultMaxCachedFileSize
	}
	if c.MaxLayoutDepth <= 0 {
		c.MaxLayoutDepth = DefaultMaxLayoutDepth
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.History == nil {
		c.History = GitHistory{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
