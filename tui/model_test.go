package tui

import (
	"errors"
	"strings"
	"testing"

	"go-generative/midi"
	"go-generative/sequencer"
	"go-generative/theme"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	clock := sequencer.NewManualClock(0)
	e, err := sequencer.NewEngine(clock, sequencer.DefaultParams(), sequencer.DefaultVoices(), sequencer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out := midi.NewOutput(clock, 2, 0)
	return NewModel(e, nil, out, "Synth", theme.New(nil))
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRootAndScaleKeys(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		key   string
		root  sequencer.Note
		scale sequencer.ScaleID
	}{
		{"d", 62, sequencer.ScalePentatonic},
		{"2", 62, sequencer.ScaleDorian},
		{"a", 69, sequencer.ScaleDorian},
		{"7", 69, sequencer.ScaleLocrian},
		{"9", 69, sequencer.ScaleTET24Pentatonic},
		{"p", 69, sequencer.ScalePentatonic},
		{"b", 71, sequencer.ScalePentatonic},
	}
	for _, tt := range tests {
		m = press(m, tt.key)
		p := m.Engine.Params()
		if p.Root != tt.root || p.Scale != tt.scale {
			t.Errorf("after %q: root %v scale %v", tt.key, p.Root, p.Scale)
		}
	}
}

func TestTempoKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "+", "right", "-")
	if bpm := m.Engine.Params().BPM; bpm != 115 {
		t.Errorf("bpm %v", bpm)
	}
}

func TestDetuneKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(m, ".", ".", "<")
	if d := m.Engine.Params().DetuneCents; d != 90 {
		t.Errorf("detune %v", d)
	}
	m = press(m, "/", ",")
	if d := m.Engine.Params().DetuneCents; d != -50 {
		t.Errorf("detune %v", d)
	}
}

func TestVoiceSelectionKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "tab", "m")
	snap := m.Engine.Snapshot()
	if !snap[1].Muted || snap[0].Muted {
		t.Errorf("mute went to the wrong voice: %+v", snap)
	}

	m = press(m, "shift+tab", "shift+tab", "s")
	snap = m.Engine.Snapshot()
	if !snap[2].Solo {
		t.Errorf("selection did not wrap backwards")
	}

	before := snap[2].Position
	m = press(m, "l", "j")
	after := m.Engine.Snapshot()[2].Position
	if after.X != before.X+moveStep || after.Z != before.Z+moveStep {
		t.Errorf("move %+v -> %+v", before, after)
	}
}

func TestPauseKey(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "space")
	if !m.Engine.Params().Paused {
		t.Fatal("space did not pause")
	}
	m = press(m, "space")
	if m.Engine.Params().Paused {
		t.Fatal("space did not resume")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestPortEvents(t *testing.T) {
	m := newTestModel(t)
	var opened []string
	m.openPort = func(name string) (midi.Sender, error) {
		opened = append(opened, name)
		return func(gomidi.Message) error { return nil }, nil
	}

	m.handlePort(midi.PortEvent{Type: midi.PortConnected, Name: "Other"})
	if m.Output.Connected() {
		t.Fatal("connected to the wrong port")
	}
	m.handlePort(midi.PortEvent{Type: midi.PortConnected, Name: "Synth"})
	if !m.Output.Connected() || len(opened) != 1 {
		t.Fatalf("not connected: %v", opened)
	}
	m.handlePort(midi.PortEvent{Type: midi.PortDisconnected, Name: "Synth"})
	if m.Output.Connected() {
		t.Error("still connected after unplug")
	}

	m.openPort = func(string) (midi.Sender, error) { return nil, errors.New("busy") }
	m.handlePort(midi.PortEvent{Type: midi.PortConnected, Name: "Synth"})
	if m.status != "busy" {
		t.Errorf("status %q", m.status)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	for _, want := range []string{"PLAY", "110bpm", "C4", "C Major Pentatonic", "low", "saw", "midi:off"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "?")
	if !strings.Contains(m.View(), "reset detune") {
		t.Error("full help not shown")
	}
}
