package sequencer

import "math"

// Tempo and detune limits for the interactive controls
const (
	MinNudgeBPM   = 40
	MaxNudgeBPM   = 240
	BPMStep       = 5
	MaxDetune     = 200
	DefaultBPM    = 110
	DefaultRoot   = Note(60)
	DefaultSubdiv = 2
)

// EngineParams is the single owned parameter record. Every scheduling call
// receives it by pointer and reads it once.
type EngineParams struct {
	BPM         float32
	Root        Note
	Scale       ScaleID
	DetuneCents float32
	Subdivision int // ticks per beat
	Paused      bool
}

// DefaultParams is C4 major pentatonic at 110 BPM in eighth notes
func DefaultParams() EngineParams {
	return EngineParams{
		BPM:         DefaultBPM,
		Root:        DefaultRoot,
		Scale:       ScalePentatonic,
		Subdivision: DefaultSubdiv,
	}
}

// Validate checks every field the scheduler depends on
func (p *EngineParams) Validate() error {
	if err := validBPM(p.BPM); err != nil {
		return err
	}
	if !p.Root.Valid() {
		return configError("root %d outside [0,127]", int(p.Root))
	}
	if _, err := LookupScale(p.Scale); err != nil {
		return err
	}
	if p.Subdivision < 1 {
		return configError("subdivision %d must be >= 1", p.Subdivision)
	}
	if !finite32(p.DetuneCents) {
		return configError("detune is not finite")
	}
	if p.DetuneCents < -MaxDetune || p.DetuneCents > MaxDetune {
		return configError("detune %v outside [-%d,%d] cents", p.DetuneCents, MaxDetune, MaxDetune)
	}
	return nil
}

// TickPeriod is the grid spacing in seconds, 60/bpm/subdivision
func (p *EngineParams) TickPeriod() float64 {
	return 60 / float64(p.BPM) / float64(p.Subdivision)
}

func validBPM(bpm float32) error {
	if !finite32(bpm) || bpm <= 0 {
		return configError("bpm %v must be a positive finite number", bpm)
	}
	return nil
}

func clampf(v, lo, hi float32) float32 {
	return float32(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}
