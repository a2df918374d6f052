package widgets

import (
	"strings"

	"go-generative/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderMeter draws a horizontal bar filled to level (0-1) in color
func RenderMeter(th *theme.Theme, level float32, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	level = max(0, min(1, level))
	filled := int(level*float32(width) + 0.5)

	full := lipgloss.NewStyle().Foreground(color).
		Render(strings.Repeat(string(th.Symbols.BarFull), filled))
	empty := lipgloss.NewStyle().Foreground(th.Muted()).
		Render(strings.Repeat(string(th.Symbols.BarEmpty), width-filled))
	return full + empty
}
