package engine

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSession_MissingInput(t *testing.T) {
	cfg, _ := testConfig(t, filepath.Join(t.TempDir(), "nope"))
	if _, err := NewSession(cfg); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNewSession_SiteDefaultsAndConfigScript(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "asg.yaml", "site_name: Demo\ncoloredErrors: false\nempty:\n")
	writeSiteFile(t, dir, "config.lua", `setvar("author", "Jane")`)

	s, _ := newTestSession(t, dir)
	tests := map[string]string{
		"site_name":     "Demo",
		"coloredErrors": "false",
		"empty":         "",
		"author":        "Jane",
	}
	for k, want := range tests {
		if got, ok := s.ConfigValue(k); !ok || got != want {
			t.Errorf("%s = %q (%v), want %q", k, got, ok, want)
		}
	}

	s.SetConfig("site_name", "Changed")
	s.ResetConfig()
	if got, _ := s.ConfigValue("site_name"); got != "Demo" {
		t.Fatalf("site_name after reset = %q", got)
	}
	if _, ok := s.ConfigValue("author"); ok {
		t.Fatalf("values set by config.lua are dropped by ResetConfig")
	}
}

func TestNewSession_BadSiteConfig(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "asg.yaml", "a: [unclosed\n")

	cfg, _ := testConfig(t, dir)
	if _, err := NewSession(cfg); err == nil {
		t.Fatalf("expected an error for invalid asg.yaml")
	}
}

func TestRunConfigScript_ErrorIsDisplayed(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "config.lua", `this is not lua`)

	s, out := newTestSession(t, dir)
	if !strings.Contains(out.String(), "Compilation Error:") || !strings.Contains(out.String(), "config.lua") {
		t.Fatalf("expected config.lua error, got %q", out)
	}
	// the session stays usable
	if got := s.EvalTemplate(`{{ 1 }}`); got != "1" {
		t.Fatalf("got %q", got)
	}
}

func TestSession_ClearCache(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "a.html", "a")
	writeSiteFile(t, dir, "b.html", "b")

	s, _ := newTestSession(t, dir)
	for _, f := range []string{"a.html", "b.html"} {
		if _, err := s.Compile(f); err != nil {
			t.Fatalf("Compile %s: %v", f, err)
		}
	}
	if n := len(s.CachedPaths()); n != 2 {
		t.Fatalf("cached = %d, want 2", n)
	}

	s.ClearCacheFor("a.html")
	paths := s.CachedPaths()
	if len(paths) != 1 || filepath.Base(paths[0]) != "b.html" {
		t.Fatalf("cached after ClearCacheFor = %v", paths)
	}

	s.ClearCache()
	if n := len(s.CachedPaths()); n != 0 {
		t.Fatalf("cached after ClearCache = %d", n)
	}
	if _, ok := s.Metadata("a.html"); !ok {
		t.Fatalf("metadata survives ClearCache")
	}
}
