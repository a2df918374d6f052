package tui

import (
	"go-generative/sequencer"
	"go-generative/widgets"

	"github.com/charmbracelet/bubbles/key"
)

// Key builds a binding whose help text shows the first key
func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Root        key.Binding
	Mode        key.Binding
	TET         key.Binding
	Pentatonic  key.Binding
	RandomKey   key.Binding
	ReseedAll   key.Binding
	Pause       key.Binding
	Faster      key.Binding
	Slower      key.Binding
	DetuneDown  key.Binding
	DetuneUp    key.Binding
	FineDown    key.Binding
	FineUp      key.Binding
	ResetDetune key.Binding
	NextVoice   key.Binding
	PrevVoice   key.Binding
	Mute        key.Binding
	Solo        key.Binding
	ReseedVoice key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Root:        key.NewBinding(key.WithKeys("a", "b", "c", "d", "e", "f", "g"), key.WithHelp("a-g", "root C4..B4")),
	Mode:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7"), key.WithHelp("1-7", "ionian..locrian")),
	TET:         key.NewBinding(key.WithKeys("8", "9", "0"), key.WithHelp("8/9/0", "19/24/31-TET pentatonic")),
	Pentatonic:  Key("major pentatonic", "p"),
	RandomKey:   Key("random root + mode", "t"),
	ReseedAll:   Key("reseed all voices", "r"),
	Pause:       key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause/resume")),
	Faster:      key.NewBinding(key.WithKeys("+", "=", "right"), key.WithHelp("+/→", "tempo +5")),
	Slower:      key.NewBinding(key.WithKeys("-", "_", "left"), key.WithHelp("-/←", "tempo -5")),
	DetuneDown:  Key("detune -50¢", ","),
	DetuneUp:    Key("detune +50¢", "."),
	FineDown:    Key("detune -10¢", "<"),
	FineUp:      Key("detune +10¢", ">"),
	ResetDetune: Key("reset detune", "/"),
	NextVoice:   Key("next voice", "tab"),
	PrevVoice:   Key("previous voice", "shift+tab"),
	Mute:        Key("mute voice", "m"),
	Solo:        Key("solo voice", "s"),
	ReseedVoice: Key("reseed voice", "x"),
	MoveLeft:    Key("move voice -x", "h"),
	MoveRight:   Key("move voice +x", "l"),
	MoveUp:      Key("move voice -z", "k"),
	MoveDown:    Key("move voice +z", "j"),
	Help:        Key("toggle help", "?"),
	Quit:        Key("quit", "q", "ctrl+c"),
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Faster, k.Root, k.Mode, k.ReseedAll, k.Mute, k.Solo, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	var out [][]key.Binding
	for _, s := range k.Sections() {
		out = append(out, s.Keys)
	}
	return out
}

func (k keyMap) Sections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "Key", Keys: []key.Binding{k.Root, k.Mode, k.TET, k.Pentatonic, k.RandomKey}},
		{Title: "Transport", Keys: []key.Binding{k.Pause, k.Faster, k.Slower, k.ReseedAll}},
		{Title: "Detune", Keys: []key.Binding{k.DetuneDown, k.DetuneUp, k.FineDown, k.FineUp, k.ResetDetune}},
		{Title: "Voice", Keys: []key.Binding{k.NextVoice, k.PrevVoice, k.Mute, k.Solo, k.ReseedVoice,
			k.MoveLeft, k.MoveRight, k.MoveUp, k.MoveDown}},
		{Title: "App", Keys: []key.Binding{k.Help, k.Quit}},
	}
}

var rootKeys = map[string]sequencer.Note{
	"c": 60, "d": 62, "e": 64, "f": 65, "g": 67, "a": 69, "b": 71,
}

var tetKeys = map[string]sequencer.ScaleID{
	"8": sequencer.ScaleTET19Pentatonic,
	"9": sequencer.ScaleTET24Pentatonic,
	"0": sequencer.ScaleTET31Pentatonic,
}

const (
	detuneStep = 50
	detuneFine = 10
	moveStep   = 0.25
)
