package engine

import (
	"errors"
	"strings"
	"testing"

	"asg/engine/parse"
)

func TestValidateAll(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "good.html", `{{ 1 }}{% x = 1 %}`)
	writeSiteFile(t, dir, "posts/bad.md", "title {{ never closed")
	writeSiteFile(t, dir, "raw.png", "{{")

	s, _ := newTestSession(t, dir)
	err := s.ValidateAll()
	if !errors.Is(err, parse.ErrUnbalanced) {
		t.Fatalf("err = %v, want ErrUnbalanced", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad.md") {
		t.Fatalf("error should name the file: %q", msg)
	}
	if strings.Contains(msg, "good.html") || strings.Contains(msg, "raw.png") {
		t.Fatalf("only templates with problems are reported: %q", msg)
	}
}

func TestValidateAll_Clean(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "page.html", `{% for i = 1, 2 do %}{{ i }}{% end %}`)

	s, _ := newTestSession(t, dir)
	if err := s.ValidateAll(); err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
}

func TestDebugFile(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "page.html", `a{{ b }}c`)
	writeSiteFile(t, dir, "logo.png", `x`)

	s, out := newTestSession(t, dir)
	if err := s.DebugFile("page.html"); err != nil {
		t.Fatalf("DebugFile: %v", err)
	}
	got := out.String()
	for _, want := range []string{"--- tokens ---", "OpenExpr", "--- chunks ---", "ValueExpression", "=== END DEBUG ==="} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	if err := s.DebugFile("logo.png"); !errors.Is(err, ErrNotTemplate) {
		t.Fatalf("err = %v, want ErrNotTemplate", err)
	}
	if err := s.DebugFile("nope.html"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
