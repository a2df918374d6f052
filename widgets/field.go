package widgets

import (
	"math"
	"strings"

	"go-generative/sequencer"
	"go-generative/theme"

	"github.com/charmbracelet/lipgloss"
)

// FieldCell maps a position in the XZ plane to a cell of a width x height
// grid. The listener is at the centre, -Z is up.
func FieldCell(p sequencer.Vec3, width, height int) (col, row int) {
	r := float64(sequencer.MaxRadius)
	fx := (float64(p.X) + r) / (2 * r)
	fz := (float64(p.Z) + r) / (2 * r)
	col = int(math.Round(fx * float64(width-1)))
	row = int(math.Round(fz * float64(height-1)))
	return clampInt(col, 0, width-1), clampInt(row, 0, height-1)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// RenderField draws a top-down map of the voices inside the clamp circle
func RenderField(th *theme.Theme, voices []sequencer.VoiceSnapshot, selected, width, height int) string {
	width = max(width, 5)
	height = max(height, 5)

	cells := make([][]string, height)
	edge := lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.Edge))
	for row := range cells {
		cells[row] = make([]string, width)
		for col := range cells[row] {
			cells[row][col] = string(th.Symbols.FieldDot)
			if onCircle(col, row, width, height) {
				cells[row][col] = edge
			}
		}
	}

	cc, cr := FieldCell(sequencer.Vec3{}, width, height)
	cells[cr][cc] = lipgloss.NewStyle().Foreground(th.FG()).Render(string(th.Symbols.Listener))

	for i, v := range voices {
		sym := th.Symbols.Voice
		if !v.Audible {
			sym = th.Symbols.VoiceMuted
		}
		if i == selected {
			sym = th.Symbols.Selected
		}
		col, row := FieldCell(v.Position, width, height)
		cells[row][col] = lipgloss.NewStyle().Foreground(th.Voice(v)).Render(string(sym))
	}

	lines := make([]string, height)
	for row := range cells {
		lines[row] = strings.Join(cells[row], "")
	}
	return strings.Join(lines, "\n")
}

// onCircle reports whether a cell lies on the MaxRadius boundary
func onCircle(col, row, width, height int) bool {
	x := float64(col)/float64(width-1)*2 - 1
	z := float64(row)/float64(height-1)*2 - 1
	d := math.Hypot(x, z)
	cell := 2 / float64(min(width, height)-1)
	return math.Abs(d-1) < cell/2
}
