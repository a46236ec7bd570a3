package repl

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// currentWord returns the identifier that ends at cursor and its start
// offset. Lua identifiers are ASCII, so byte offsets are enough.
func currentWord(input string, cursor int) (word string, start int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor
	for start > 0 && isIdentByte(input[start-1]) {
		start--
	}

	return input[start:cursor], start
}

// findMatches ranks names against the current word. A word directly after a
// dot is a field access and is not completed from the global names.
func findMatches(input string, cursor int, names []string) (fuzzy.Matches, int) {
	word, start := currentWord(input, cursor)
	if word == "" || (start > 0 && input[start-1] == '.') {
		return nil, start
	}

	return fuzzy.Find(word, names), start
}

func (m *model) refreshMatches() {
	m.matches, m.wordStart = findMatches(m.input.Value(), m.input.Position(), m.names)
	m.suggIdx = -1
}

// handleTab replaces the current word with the next candidate. Repeated
// presses cycle through the candidates computed at the first press.
func (m model) handleTab() model {
	if !m.tabActive {
		m.preTab = m.input.Value()
		m.preCursor = m.input.Position()
		m.matches, m.wordStart = findMatches(m.preTab, m.preCursor, m.names)
		if len(m.matches) == 0 {
			return m
		}

		m.tabActive = true
		m.suggIdx = 0
	} else {
		m.suggIdx = (m.suggIdx + 1) % len(m.matches)
	}

	candidate := m.matches[m.suggIdx].Str
	before := m.preTab[:m.wordStart]
	after := m.preTab[m.preCursor:]

	m.input.SetValue(before + candidate + after)
	m.input.SetCursor(len(before) + len(candidate))

	return m
}

// renderCandidates renders the candidate bar, highlighting the selected one
// while tab-cycling. The bar is cut to fit width.
func renderCandidates(matches fuzzy.Matches, selected int, active bool, width int) string {
	var b strings.Builder

	used := 0
	for i, match := range matches {
		if i == maxCandidates {
			break
		}

		if used+len(match.Str)+1 > width {
			b.WriteString(hintStyle.Render("…"))

			break
		}

		if i > 0 {
			b.WriteString(" ")
		}

		if active && i == selected {
			b.WriteString(selectedStyle.Render(match.Str))
		} else {
			b.WriteString(hintStyle.Render(match.Str))
		}

		used += len(match.Str) + 1
	}

	return b.String()
}
