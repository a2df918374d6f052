package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-generative/sequencer"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatal(err)
	}
	if p != sequencer.DefaultParams() {
		t.Errorf("params %+v", p)
	}
	voices, err := cfg.VoiceConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 3 {
		t.Fatalf("got %d voices", len(voices))
	}
	if voices[0].Waveform != sequencer.WaveSine || voices[0].OctaveMin != -1 {
		t.Errorf("voice 0: %+v", voices[0])
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.BPM != sequencer.DefaultBPM {
		t.Errorf("bpm %v", cfg.Engine.BPM)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
engine:
  bpm: 96
  root: 62
  scale: dorian
  subdivision: 4
  lookahead: 0.25
voices:
  - name: drone
    waveform: Square
    probability: 0.2
    octaveMin: -2
    octaveMax: -1
    color: "#ff8000"
    position: [0, 0, 2]
midi:
  port: "IAC Driver Bus 1"
  bendRange: 12
  baseChannel: 3
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := cfg.Params()
	if p.BPM != 96 || p.Root != 62 || p.Scale != sequencer.ScaleDorian || p.Subdivision != 4 {
		t.Errorf("params %+v", p)
	}
	if cfg.Engine.Seed != sequencer.DefaultSeed {
		t.Errorf("seed default lost: %d", cfg.Engine.Seed)
	}
	voices, err := cfg.VoiceConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 1 {
		t.Fatalf("voices list should replace defaults, got %d", len(voices))
	}
	v := voices[0]
	if v.Gate != 1 || v.Waveform != sequencer.WaveSquare || v.Position.Z != 2 {
		t.Errorf("voice %+v", v)
	}
	if v.Color.R != 1 || v.Color.B != 0 {
		t.Errorf("color %+v", v.Color)
	}
	if cfg.MIDI.Port != "IAC Driver Bus 1" || cfg.MIDI.BaseChannel != 3 {
		t.Errorf("midi %+v", cfg.MIDI)
	}
	if opts := cfg.Options(); opts.Window != 0.25 {
		t.Errorf("window %v", opts.Window)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bpm":       "engine:\n  bpm: 0\n",
		"scale":     "engine:\n  scale: bebop\n",
		"root":      "engine:\n  root: 300\n",
		"lookahead": "engine:\n  lookahead: -1\n",
		"window":    "engine:\n  lookahead: 3600\n",
		"detune":    "engine:\n  detune: 5000\n",
		"octave":    "voices:\n  - {name: a, waveform: sine, probability: 0.5, octaveMin: -1100, octaveMax: 0, color: \"#000000\"}\n",
		"bend":      "midi:\n  bendRange: 0\n",
		"channels":  "midi:\n  baseChannel: 14\n  bendRange: 2\n",
		"color":     "voices:\n  - {name: a, waveform: sine, probability: 0.5, color: purple}\n",
		"waveform":  "voices:\n  - {name: a, waveform: noise, probability: 0.5, color: \"#000000\"}\n",
		"prob":      "voices:\n  - {name: a, waveform: sine, probability: 2, color: \"#000000\"}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			os.WriteFile(path, []byte(data), 0644)
			_, err := LoadFile(path)
			if !errors.Is(err, sequencer.ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("engine: [unclosed"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveFileThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Engine.BPM = 128
	cfg.MIDI.Port = "synth"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine.BPM != 128 || got.MIDI.Port != "synth" || len(got.Voices) != 3 {
		t.Errorf("loaded %+v", got)
	}
	if got.Voices[1].Color != cfg.Voices[1].Color {
		t.Errorf("color %q want %q", got.Voices[1].Color, cfg.Voices[1].Color)
	}
}
