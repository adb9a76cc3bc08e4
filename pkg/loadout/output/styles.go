package output

import "github.com/charmbracelet/lipgloss"

// Styles used by the pretty formatter and interactive prompts.
var (
	headerStyle = lipgloss.NewStyle().Bold(true)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func statusGlyph(passed bool) string {
	if passed {
		return passStyle.Render("✓")
	}
	return failStyle.Render("✗")
}
