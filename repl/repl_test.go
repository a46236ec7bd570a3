package repl

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeEval struct {
	srcs  []string
	names []string
	diag  *bytes.Buffer
}

func (f *fakeEval) EvalTemplate(src string) string {
	f.srcs = append(f.srcs, src)
	if strings.Contains(src, "boom") && f.diag != nil {
		f.diag.WriteString("Compilation Error:\n")
	}
	if strings.Contains(src, "define") {
		f.names = append(f.names, "defined_later")
	}
	return "out"
}

func (f *fakeEval) GlobalNames() []string { return f.names }

func typeText(m model, s string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(model)
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(model), cmd
}

func TestEvaluate_WrapsExpressions(t *testing.T) {
	ev := &fakeEval{}
	m := newModel(ev, nil)

	m.evaluate("1 + 1")
	m.evaluate("{% x = 1 %}{{ x }}")
	m.evaluate("a {% b %}")

	want := []string{"{{ 1 + 1 }}", "{% x = 1 %}{{ x }}", "a {% b %}"}
	if len(ev.srcs) != len(want) {
		t.Fatalf("srcs = %q", ev.srcs)
	}
	for i := range want {
		if ev.srcs[i] != want[i] {
			t.Fatalf("src %d = %q, want %q", i, ev.srcs[i], want[i])
		}
	}
}

func TestEvaluate_Commands(t *testing.T) {
	ev := &fakeEval{names: []string{"posts", "setvar"}}
	m := newModel(ev, nil)

	if out, _ := m.evaluate(":globals"); !strings.Contains(out, "posts setvar") {
		t.Fatalf(":globals = %q", out)
	}
	if out, _ := m.evaluate(":help"); !strings.Contains(out, ":quit") {
		t.Fatalf(":help = %q", out)
	}
	if _, quit := m.evaluate(":quit"); !quit {
		t.Fatalf(":quit should quit")
	}
	if len(ev.srcs) != 0 {
		t.Fatalf("commands are not evaluated: %q", ev.srcs)
	}
}

func TestEvaluate_Diagnostics(t *testing.T) {
	var diag bytes.Buffer
	ev := &fakeEval{diag: &diag}
	m := newModel(ev, &diag)

	out, _ := m.evaluate("boom()")
	if !strings.Contains(out, "Compilation Error:") {
		t.Fatalf("diagnostics missing from %q", out)
	}
	if diag.Len() != 0 {
		t.Fatalf("diagnostics should be consumed")
	}
}

func TestEvaluate_RefreshesNames(t *testing.T) {
	ev := &fakeEval{}
	m := newModel(ev, nil)

	m.evaluate("{% define() %}")
	if len(m.names) != 1 || m.names[0] != "defined_later" {
		t.Fatalf("names = %q", m.names)
	}
}

func TestModel_EnterAndHistory(t *testing.T) {
	ev := &fakeEval{}
	m := newModel(ev, nil)

	m = typeText(m, "first")
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected output command")
	}
	m = typeText(m, "second")
	m, _ = press(m, tea.KeyEnter)

	if m.input.Value() != "" {
		t.Fatalf("input should be cleared, got %q", m.input.Value())
	}
	if len(ev.srcs) != 2 || ev.srcs[1] != "{{ second }}" {
		t.Fatalf("srcs = %q", ev.srcs)
	}

	m, _ = press(m, tea.KeyUp)
	if got := m.input.Value(); got != "second" {
		t.Fatalf("up = %q", got)
	}
	m, _ = press(m, tea.KeyUp)
	m, _ = press(m, tea.KeyUp)
	if got := m.input.Value(); got != "first" {
		t.Fatalf("up past the start = %q", got)
	}
	m, _ = press(m, tea.KeyDown)
	m, _ = press(m, tea.KeyDown)
	if got := m.input.Value(); got != "" {
		t.Fatalf("down past the end = %q", got)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel(&fakeEval{}, nil)

	m = typeText(m, "x")
	m, cmd := press(m, tea.KeyCtrlC)
	if m.quitting || cmd != nil || m.input.Value() != "" {
		t.Fatalf("ctrl+c on a non-empty line clears it")
	}
	m, cmd = press(m, tea.KeyCtrlC)
	if !m.quitting || cmd == nil {
		t.Fatalf("ctrl+c on an empty line quits")
	}
	if m.View() != "" {
		t.Fatalf("view should be empty after quitting")
	}
}

func TestModel_TabCompletion(t *testing.T) {
	ev := &fakeEval{names: []string{"posts", "parse_html", "setvar"}}
	m := newModel(ev, nil)

	m = typeText(m, "x = pos")
	if len(m.matches) == 0 {
		t.Fatalf("expected candidates while typing")
	}

	m, _ = press(m, tea.KeyTab)
	if got := m.input.Value(); got != "x = posts" {
		t.Fatalf("tab = %q", got)
	}
	if !m.tabActive {
		t.Fatalf("tab cycling should be active")
	}

	// typing ends the cycle
	m = typeText(m, "(")
	if m.tabActive {
		t.Fatalf("typing should end tab cycling")
	}
	if got := m.input.Value(); got != "x = posts(" {
		t.Fatalf("value = %q", got)
	}
}

func TestFindMatches(t *testing.T) {
	names := []string{"posts", "parse_html", "setvar"}

	if m, start := findMatches("a + setv", 8, names); len(m) != 1 || m[0].Str != "setvar" || start != 4 {
		t.Fatalf("matches = %v, start = %d", m, start)
	}
	if m, _ := findMatches("file.po", 7, names); m != nil {
		t.Fatalf("field access should not complete globals: %v", m)
	}
	if m, _ := findMatches("x ", 2, names); m != nil {
		t.Fatalf("empty word should not complete: %v", m)
	}
}

func TestRenderCandidates(t *testing.T) {
	ev := &fakeEval{names: []string{"alpha", "alphabet", "alpine"}}
	m := newModel(ev, nil)
	m = typeText(m, "al")

	bar := renderCandidates(m.matches, 0, false, 80)
	for _, n := range ev.names {
		if !strings.Contains(bar, n) {
			t.Fatalf("bar %q missing %q", bar, n)
		}
	}
	if short := renderCandidates(m.matches, 0, false, 8); !strings.Contains(short, "…") {
		t.Fatalf("narrow bar should be cut: %q", short)
	}
}
