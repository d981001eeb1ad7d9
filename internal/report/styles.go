package report

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// LabelStyle prefixes the progress bar.
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// CounterStyle renders the "done/total" counter after the bar.
var CounterStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HeaderStyle is used for the header row of the runs table.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Padding(0, 1)

// CellStyle pads table cells.
var CellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// DuplicatesStyle highlights a non-zero duplicate count.
func DuplicatesStyle(n int) lipgloss.Style {
	if n > 0 {
		return CellStyle.Foreground(ColorYellow).Bold(true)
	}
	return CellStyle.Foreground(ColorGreen)
}
