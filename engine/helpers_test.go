package engine

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// writeSiteFile writes a file under dir, creating parent directories, and
// returns its absolute path.
func writeSiteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", p, err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatalf("abs %s: %v", p, err)
	}
	return abs
}

func testConfig(t *testing.T, in string) (Config, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	empty := t.TempDir()
	return Config{
		InputDir:  in,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		ExeDir:    empty,
		AssetDir:  empty,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout:    &out,
		History:   NoHistory{},
	}, &out
}

// newTestSession opens a session on in. The returned buffer collects the
// compilation diagnostics.
func newTestSession(t *testing.T, in string) (*Session, *bytes.Buffer) {
	t.Helper()
	cfg, out := testConfig(t, in)
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s, out
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
