package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"asg/engine"
)

const homepage = "https://github.com/vanyle/asg"

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// Info prints the build information of the binary.
type Info struct{}

// Run executes the version command.
func (Info) Run(ctx context.Context) error {
	fmt.Fprint(stdout, versionText(engine.ReadBuildInfo()))

	return nil
}

func versionText(bi engine.BuildInfo) string {
	hash := bi.CommitHash
	if hash == "" {
		hash = "unknown"
	} else if bi.Modified {
		hash += " (modified)"
	}
	built := bi.BuildTime
	if built == "" {
		built = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", name, boldStyle.Render("Awesome Static Generator"))
	fmt.Fprintf(&b, "Available at %s\n", linkStyle.Render(homepage))
	fmt.Fprintf(&b, "Version: %s\n\n", valueStyle.Render(bi.Version))
	fmt.Fprintf(&b, "Build hash: %s\n", valueStyle.Render(hash))
	fmt.Fprintf(&b, "Built on %s\n", valueStyle.Render(built))

	return b.String()
}
