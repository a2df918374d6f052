package theme

import (
	"go-generative/sequencer"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// MuteDarken scales the colour of a voice that is not audible
const MuteDarken = 0.35

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Voice      rune // ● audible voice
	VoiceMuted rune // ○ silent voice
	Selected   rune // ◉ voice under the cursor
	Listener   rune // + centre of the field
	FieldDot   rune // · empty field cell
	Edge       rune // ∙ clamp radius
	BarFull    rune // █ pulse meter
	BarEmpty   rune // ░
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Voice:      '●',
			VoiceMuted: '○',
			Selected:   '◉',
			Listener:   '+',
			FieldDot:   ' ',
			Edge:       '∙',
			BarFull:    '█',
			BarEmpty:   '░',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return toLipgloss(t.Palette.Lookup(norm))
}

// VoiceTint is a voice's base colour, darkened when silent and brightened
// toward white by its pulse.
func VoiceTint(c sequencer.Color, pulse float32, audible bool) colorful.Color {
	col := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
	if !audible {
		col = colorful.Color{R: col.R * MuteDarken, G: col.G * MuteDarken, B: col.B * MuteDarken}
	}
	if pulse > 0 {
		white := colorful.Color{R: 1, G: 1, B: 1}
		col = col.BlendLab(white, 0.5*float64(min(pulse, 1)))
	}
	return col.Clamped()
}

// Voice returns the lipgloss colour for a voice snapshot
func (t *Theme) Voice(s sequencer.VoiceSnapshot) lipgloss.Color {
	return toLipgloss(VoiceTint(s.Color, s.Pulse, s.Audible))
}

func toLipgloss(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}
