package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func newTestSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSiteFile(t, dir, "asg.yaml", "site_name: Demo\n")
	// config.lua runs before every file
	writeSiteFile(t, dir, "config.lua", `setvar("author", "Jane")
function config_author() return "Jane" end`)
	writeSiteFile(t, dir, "layout.html", `<html>{{ body }}</html>`)
	writeSiteFile(t, dir, "index.html", `{% setvar("layout", "layout.html") %}{% for p in posts() do %}{{ p.title }};{% end %}`)
	writeSiteFile(t, dir, "posts/hello.md", "# Hello\n\nby {{ config_author() }}\n")
	writeSiteFile(t, dir, "img/logo.png", "\x89PNG{{ not a template }}")
	writeSiteFile(t, dir, "data/people.csv", "a,b\n")
	writeSiteFile(t, dir, "posts/data/hidden.txt", "secret")
	return dir
}

func TestGenerator_Build(t *testing.T) {
	dir := newTestSite(t)

	s, out := newTestSession(t, dir)
	g := NewGenerator(s)
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v\n%s", err, out)
	}
	outDir := s.Config().OutputDir

	index := readOutput(t, filepath.Join(outDir, "index.html"))
	if index != "<html>Hello;</html>" {
		t.Fatalf("index = %q", index)
	}
	post := readOutput(t, filepath.Join(outDir, "posts", "hello.html"))
	if !strings.Contains(post, "Hello</h1>") || !strings.Contains(post, "by Jane") {
		t.Fatalf("post = %q", post)
	}
	if logo := readOutput(t, filepath.Join(outDir, "img", "logo.png")); logo != "\x89PNG{{ not a template }}" {
		t.Fatalf("binary file should be copied verbatim, got %q", logo)
	}

	for _, skipped := range []string{"config.lua", "asg.yaml", "data", filepath.Join("posts", "data")} {
		if _, err := os.Stat(filepath.Join(outDir, skipped)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should not be published (err = %v)", skipped, err)
		}
	}
}

func TestGenerator_ConfigResetPerFile(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "asg.yaml", "title: Site\n")
	writeSiteFile(t, dir, "a.html", `{% setvar("title", "Only A") %}{{ "a" }}`)
	writeSiteFile(t, dir, "b.html", `b`)

	s, _ := newTestSession(t, dir)
	g := NewGenerator(s)
	for _, f := range []string{"a.html", "b.html"} {
		if err := g.GenerateFile(filepath.Join(dir, f)); err != nil {
			t.Fatalf("GenerateFile %s: %v", f, err)
		}
	}

	a, _ := s.Metadata("a.html")
	b, _ := s.Metadata("b.html")
	if a.Title != "Only A" {
		t.Fatalf("a title = %q", a.Title)
	}
	if b.Title != "Site" {
		t.Fatalf("b title = %q, want the asg.yaml default", b.Title)
	}
}

func TestGenerator_BuildReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "broken.html", `{% setvar("layout", "missing.html") %}x`)
	writeSiteFile(t, dir, "fine.html", `ok`)

	s, out := newTestSession(t, dir)
	err := NewGenerator(s).Build()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(out.String(), "Error: Could not compile file") {
		t.Fatalf("expected failure notice, got %q", out)
	}
	if got := readOutput(t, filepath.Join(s.Config().OutputDir, "fine.html")); got != "ok" {
		t.Fatalf("fine.html = %q", got)
	}
}

func TestGenerator_Profiler(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "asg.yaml", "profiler: true\ndebugInfo: true\n")
	writeSiteFile(t, dir, "page.html", `hi`)

	s, out := newTestSession(t, dir)
	if err := NewGenerator(s).Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"Compiling ", "Writing to ", "ms to generate ./page.html (2 B)", "Total time: "} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestGenerator_HandleEvent(t *testing.T) {
	dir := t.TempDir()
	page := writeSiteFile(t, dir, "page.html", `v1`)

	s, _ := newTestSession(t, dir)
	g := NewGenerator(s)
	dest := g.OutputPath(page)

	if err := g.HandleEvent(fsnotify.Create, page); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := readOutput(t, dest); got != "v1" {
		t.Fatalf("after create = %q", got)
	}

	writeSiteFile(t, dir, "page.html", `v2`)
	s.ClearCacheFor("page.html")
	if err := g.HandleEvent(fsnotify.Write, page); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readOutput(t, dest); got != "v2" {
		t.Fatalf("after write = %q", got)
	}

	os.Remove(page)
	if err := g.HandleEvent(fsnotify.Remove, page); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output should be removed, stat err = %v", err)
	}
	// removing twice is not an error
	if err := g.HandleEvent(fsnotify.Remove, page); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	cfg := writeSiteFile(t, dir, "config.lua", `x = 1`)
	if err := g.HandleEvent(fsnotify.Write, cfg); err != nil {
		t.Fatalf("config write: %v", err)
	}
	if _, err := os.Stat(g.OutputPath(cfg)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("config.lua should not be published")
	}
}
