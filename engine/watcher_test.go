package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWatcher_RegeneratesChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "page.html", "v1")

	s, _ := newTestSession(t, dir)
	g := NewGenerator(s)
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	fw, err := NewFileWatcher(g)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	fw.debounce = 20 * time.Millisecond
	changed := make(chan string, 8)
	fw.OnChange = func(path string) { changed <- path }
	fw.Start()
	defer fw.Stop()

	wait := func() string {
		t.Helper()
		select {
		case p := <-changed:
			return p
		case <-time.After(5 * time.Second):
			t.Fatalf("no change observed")
		}
		return ""
	}

	// new directories are watched too
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	created := writeSiteFile(t, dir, "sub/new.txt", "fresh")
	if p := wait(); p != created {
		t.Fatalf("changed %q, want %q", p, created)
	}
	if got := readOutput(t, g.OutputPath(created)); got != "fresh" {
		t.Fatalf("sub/new.txt output = %q", got)
	}

	os.Remove(created)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(g.OutputPath(created)); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("output of a removed file should be deleted")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "site")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.html"), true},
		{root, true},
		{filepath.Join(root, "..", "other"), false},
		{filepath.Join(string(filepath.Separator), "sitex", "a"), false},
		{filepath.Join(root, "..x", "a"), true},
	}
	for _, tt := range tests {
		if got := isWithin(tt.path, root); got != tt.want {
			t.Errorf("isWithin(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
