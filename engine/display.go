package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxFragmentLen bounds the code shown under "Code responsible:".
const maxFragmentLen = 400

// display writes compilation diagnostics for humans. Styling is disabled
// when the site sets coloredErrors to "false".
type display struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	colored  func() bool
}

func newDisplay(w io.Writer, colored func() bool) *display {
	return &display{w: w, renderer: lipgloss.NewRenderer(w), colored: colored}
}

func (d *display) style(color string) lipgloss.Style {
	s := d.renderer.NewStyle()
	if d.colored() {
		s = s.Foreground(lipgloss.Color(color))
	}
	return s
}

// Error prints a script or render failure. fragment may be empty.
func (d *display) Error(file, msg, fragment string) {
	red := d.style("1")

	var b strings.Builder
	fmt.Fprintln(&b, red.Render("Compilation Error:"))
	fmt.Fprintf(&b, "  Concerning %s\n", file)
	fmt.Fprintf(&b, "  %s\n", msg)
	if fragment != "" {
		fmt.Fprintf(&b, "  %s\n", red.Render("Code responsible:"))
		if len(fragment) > maxFragmentLen {
			fmt.Fprintf(&b, "%s... (omited)\n", fragment[:maxFragmentLen])
		} else {
			fmt.Fprintln(&b, fragment)
		}
		fmt.Fprintln(&b, red.Render("-----"))
	}
	io.WriteString(d.w, b.String())
}

// LayoutCycle prints the recursion stack of an abandoned layout inclusion.
func (d *display) LayoutCycle(stack []string) {
	yellow := d.style("3")

	var b strings.Builder
	fmt.Fprintln(&b, yellow.Render("Warning: Infinite inclusion loop in layouts"))
	fmt.Fprintln(&b, "  The recursion stack is:")
	fmt.Fprintf(&b, "  %s\n", strings.Join(stack, ","))
	fmt.Fprintln(&b, "The last file is repeated, this is a loop.")
	io.WriteString(d.w, b.String())
}

// Printf writes a plain line, used by the profiler and debugInfo traces.
func (d *display) Printf(format string, args ...any) {
	fmt.Fprintf(d.w, format+"\n", args...)
}
