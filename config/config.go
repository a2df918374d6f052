package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go-generative/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// EngineConfig holds the startup musical parameters
type EngineConfig struct {
	BPM         float32 `yaml:"bpm"`
	Root        int     `yaml:"root"`
	Scale       string  `yaml:"scale"`
	Detune      float32 `yaml:"detune,omitempty"`
	Subdivision int     `yaml:"subdivision"`
	Lookahead   float64 `yaml:"lookahead"` // seconds
	Seed        uint64  `yaml:"seed"`
}

// VoiceConfig is the on-disk form of sequencer.VoiceConfig
type VoiceConfig struct {
	Name        string     `yaml:"name"`
	Waveform    string     `yaml:"waveform"`
	Probability float64    `yaml:"probability"`
	OctaveMin   int        `yaml:"octaveMin"`
	OctaveMax   int        `yaml:"octaveMax"`
	Gate        float64    `yaml:"gate,omitempty"` // fraction of a tick, 1 if omitted
	Role        string     `yaml:"role,omitempty"`
	Color       string     `yaml:"color"` // #rrggbb
	Position    [3]float32 `yaml:"position,flow"`
}

// MIDIConfig defines the note output
type MIDIConfig struct {
	Port        string  `yaml:"port,omitempty"`
	BendRange   float64 `yaml:"bendRange"`   // semitones, must match the synth
	BaseChannel int     `yaml:"baseChannel"` // voice i plays on BaseChannel+i
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette string `yaml:"palette,omitempty"` // GIMP .gpl file
}

// Config is the main configuration structure
type Config struct {
	Engine EngineConfig  `yaml:"engine"`
	Voices []VoiceConfig `yaml:"voices"`
	MIDI   MIDIConfig    `yaml:"midi"`
	UI     UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig is the three-voice pentatonic setup
func DefaultConfig() *Config {
	p := sequencer.DefaultParams()
	cfg := &Config{
		Engine: EngineConfig{
			BPM:         p.BPM,
			Root:        int(p.Root),
			Scale:       p.Scale.String(),
			Subdivision: p.Subdivision,
			Lookahead:   sequencer.DefaultWindow,
			Seed:        sequencer.DefaultSeed,
		},
		MIDI: MIDIConfig{
			BendRange: 2,
		},
	}
	for _, v := range sequencer.DefaultVoices() {
		cfg.Voices = append(cfg.Voices, fromVoice(v))
	}
	return cfg
}

func fromVoice(v sequencer.VoiceConfig) VoiceConfig {
	c := colorful.Color{R: float64(v.Color.R), G: float64(v.Color.G), B: float64(v.Color.B)}
	return VoiceConfig{
		Name:        v.Name,
		Waveform:    v.Waveform.String(),
		Probability: v.Probability,
		OctaveMin:   v.OctaveMin,
		OctaveMax:   v.OctaveMax,
		Gate:        v.Gate,
		Role:        v.Role,
		Color:       c.Hex(),
		Position:    [3]float32{v.Position.X, v.Position.Y, v.Position.Z},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-generative"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Sections missing from the file keep their
// defaults; a voices list in the file replaces the default voices.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(format string, args ...any) error {
	return fault.Wrap(sequencer.ErrConfig,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument),
	)
}

// Validate checks every section; errors wrap sequencer.ErrConfig
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	voices, err := c.VoiceConfigs()
	if err != nil {
		return err
	}
	if math.IsNaN(c.Engine.Lookahead) || c.Engine.Lookahead <= 0 || c.Engine.Lookahead > sequencer.MaxWindow {
		return invalid("lookahead %v outside (0,%v]", c.Engine.Lookahead, sequencer.MaxWindow)
	}
	if c.MIDI.BendRange <= 0 || c.MIDI.BendRange > 48 {
		return invalid("midi bend range %v outside (0,48]", c.MIDI.BendRange)
	}
	if c.MIDI.BaseChannel < 0 || c.MIDI.BaseChannel+len(voices) > 16 {
		return invalid("midi channels %d..%d outside 0..15",
			c.MIDI.BaseChannel, c.MIDI.BaseChannel+len(voices)-1)
	}
	return nil
}

// Params converts the engine section
func (c *Config) Params() (sequencer.EngineParams, error) {
	scale, err := sequencer.ScaleByName(c.Engine.Scale)
	if err != nil {
		return sequencer.EngineParams{}, err
	}
	p := sequencer.EngineParams{
		BPM:         c.Engine.BPM,
		Root:        sequencer.Note(c.Engine.Root),
		Scale:       scale.ID,
		DetuneCents: c.Engine.Detune,
		Subdivision: c.Engine.Subdivision,
	}
	if err := p.Validate(); err != nil {
		return sequencer.EngineParams{}, err
	}
	return p, nil
}

// Options converts the look-ahead and seed settings
func (c *Config) Options() sequencer.Options {
	return sequencer.Options{Window: c.Engine.Lookahead, Seed: c.Engine.Seed}
}

// VoiceConfigs converts the voices section
func (c *Config) VoiceConfigs() ([]sequencer.VoiceConfig, error) {
	if len(c.Voices) == 0 {
		return nil, invalid("no voices configured")
	}
	out := make([]sequencer.VoiceConfig, len(c.Voices))
	for i, v := range c.Voices {
		wave, err := sequencer.ParseWaveform(strings.ToLower(v.Waveform))
		if err != nil {
			return nil, err
		}
		col, err := colorful.Hex(v.Color)
		if err != nil {
			return nil, invalid("voice %q: bad color %q", v.Name, v.Color)
		}
		gate := v.Gate
		if gate == 0 {
			gate = 1
		}
		out[i] = sequencer.VoiceConfig{
			Name:        v.Name,
			Waveform:    wave,
			Probability: v.Probability,
			OctaveMin:   v.OctaveMin,
			OctaveMax:   v.OctaveMax,
			Gate:        gate,
			Role:        v.Role,
			Color:       sequencer.Color{R: float32(col.R), G: float32(col.G), B: float32(col.B)},
			Position:    sequencer.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]},
		}
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
