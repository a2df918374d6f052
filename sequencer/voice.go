package sequencer

import (
	"math"
	"math/rand/v2"
)

// Waveform is a hint for the downstream synth; the engine itself never renders audio
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveTriangle
	WaveSquare
)

var waveformNames = []string{"sine", "saw", "triangle", "square"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// ParseWaveform accepts the lowercase names printed by String
func ParseWaveform(s string) (Waveform, error) {
	for i, n := range waveformNames {
		if n == s {
			return Waveform(i), nil
		}
	}
	return 0, configError("unknown waveform %q", s)
}

// Color is linear RGB in [0,1]
type Color struct {
	R, G, B float32
}

// VoiceConfig is fixed for the life of a voice
type VoiceConfig struct {
	Name        string
	Waveform    Waveform
	Probability float64 // chance of a hit per tick
	OctaveMin   int
	OctaveMax   int
	Gate        float64 // note length as a fraction of the tick period, (0,1]
	Role        string
	Color       Color
	Position    Vec3
}

// MaxOctave bounds the octave shift a voice may draw in either direction
const MaxOctave = 4

func (c VoiceConfig) Validate() error {
	if math.IsNaN(c.Probability) || c.Probability < 0 || c.Probability > 1 {
		return configError("voice %q: probability %v outside [0,1]", c.Name, c.Probability)
	}
	if c.OctaveMin < -MaxOctave || c.OctaveMax > MaxOctave {
		return configError("voice %q: octave range [%d,%d] outside ±%d", c.Name, c.OctaveMin, c.OctaveMax, MaxOctave)
	}
	if c.OctaveMin > c.OctaveMax {
		return configError("voice %q: octave range [%d,%d] is empty", c.Name, c.OctaveMin, c.OctaveMax)
	}
	if math.IsNaN(c.Gate) || c.Gate <= 0 || c.Gate > 1 {
		return configError("voice %q: gate %v outside (0,1]", c.Name, c.Gate)
	}
	if !finite32(c.Position.X, c.Position.Y, c.Position.Z) {
		return configError("voice %q: position is not finite", c.Name)
	}
	return nil
}

// Trigger is the musical content of one hit
type Trigger struct {
	Degree   int
	Octave   int
	Velocity float32
}

// Voice is the runtime state of one voice.
//
// Randomness is counter based: the draw for a tick is a pure function of
// (seed, tick-epoch). Skipped ticks, muting and the call pattern of the
// scheduler never shift later draws.
type Voice struct {
	cfg VoiceConfig

	seed        uint64
	epoch       uint64
	pendingSeed uint64
	hasPending  bool

	muted    bool
	solo     bool
	position Vec3
}

// NewVoice validates cfg and starts the voice's stream at tick 0
func NewVoice(cfg VoiceConfig, seed uint64) (*Voice, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Voice{
		cfg:      cfg,
		seed:     seed,
		position: cfg.Position.ClampLength(MaxRadius),
	}, nil
}

func (v *Voice) Config() VoiceConfig { return v.cfg }

// Seed returns the seed in effect (a pending reseed is not reported until applied)
func (v *Voice) Seed() uint64 { return v.seed }

// DecideTrigger makes the voice's single draw for a tick. degrees is the
// length of the active scale.
func (v *Voice) DecideTrigger(tick uint64, degrees int) (Trigger, bool) {
	// the grid was rewound past the tick a reseed took effect at; apply it again here
	if tick < v.epoch && !v.hasPending {
		v.pendingSeed = v.seed
		v.hasPending = true
	}
	if v.hasPending {
		v.seed = v.pendingSeed
		v.epoch = tick
		v.hasPending = false
	}
	if degrees <= 0 {
		return Trigger{}, false
	}

	r := rand.New(rand.NewPCG(v.seed, tick-v.epoch))
	if r.Float64() >= v.cfg.Probability {
		return Trigger{}, false
	}
	return Trigger{
		Degree:   r.IntN(degrees),
		Octave:   v.cfg.OctaveMin + r.IntN(v.cfg.OctaveMax-v.cfg.OctaveMin+1),
		Velocity: float32(0.4 + 0.6*r.Float64()),
	}, true
}

// Reseed takes effect at the voice's next tick boundary
func (v *Voice) Reseed(seed uint64) {
	v.pendingSeed = seed
	v.hasPending = true
}

func (v *Voice) Muted() bool { return v.muted }
func (v *Voice) Solo() bool { return v.solo }
func (v *Voice) SetMute(m bool) { v.muted = m }
func (v *Voice) SetSolo(s bool) { v.solo = s }
func (v *Voice) ToggleMute() { v.muted = !v.muted }
func (v *Voice) ToggleSolo() { v.solo = !v.solo }
func (v *Voice) Position() Vec3 { return v.position }

// Audible applies solo precedence: with any voice soloed, only soloed voices sound
func (v *Voice) Audible(anySolo bool) bool {
	if anySolo {
		return v.solo
	}
	return !v.muted
}

// SetPosition moves the voice in the XZ plane, keeping its height.
// The result is clamped to MaxRadius.
func (v *Voice) SetPosition(x, z float32) error {
	if !finite32(x, z) {
		return configError("voice %q: position (%v,%v) is not finite", v.cfg.Name, x, z)
	}
	v.position = Vec3{X: x, Y: v.position.Y, Z: z}.ClampLength(MaxRadius)
	return nil
}

// anySolo reports whether any voice in the slice is soloed
func anySolo(voices []*Voice) bool {
	for _, v := range voices {
		if v != nil && v.solo {
			return true
		}
	}
	return false
}

// DefaultVoices is the three-voice texture the app starts with
func DefaultVoices() []VoiceConfig {
	return []VoiceConfig{
		{
			Name: "low", Waveform: WaveSine, Role: "bass",
			Probability: 0.4, OctaveMin: -1, OctaveMax: -1, Gate: 1.0,
			Color: Color{0.9, 0.3, 0.3}, Position: Vec3{X: -1},
		},
		{
			Name: "mid", Waveform: WaveSaw, Role: "lead",
			Probability: 0.6, OctaveMin: 0, OctaveMax: 0, Gate: 0.9,
			Color: Color{0.3, 0.9, 0.4}, Position: Vec3{X: 1},
		},
		{
			Name: "high", Waveform: WaveTriangle, Role: "pad",
			Probability: 0.3, OctaveMin: 1, OctaveMax: 1, Gate: 1.0,
			Color: Color{0.3, 0.5, 0.9}, Position: Vec3{Z: -1},
		},
	}
}
