package sequencer

import "math"

// PulseDecay is the exponential decay rate of a voice's pulse, per second
const PulseDecay = 1.6

type pulse struct {
	level    float32
	velocity float32
	at       float64 // time level was last computed
}

// VoiceSnapshot is what the visual layer needs to draw one voice
type VoiceSnapshot struct {
	Name     string
	Waveform Waveform
	Role     string
	Position Vec3
	Pulse    float32 // 0..1, jumps to velocity on a note and decays
	Velocity float32 // of the last note that started
	Muted    bool
	Solo     bool
	Audible  bool
	Color    Color
}

// advanceVisual decays pulses to now and fires every upcoming note that has
// started. Expects e.mu held.
func (e *Engine) advanceVisual(now float64) {
	for i := range e.visual {
		p := &e.visual[i]
		if now > p.at {
			p.level *= float32(math.Exp(-PulseDecay * (now - p.at)))
			p.at = now
		}
	}

	n := 0
	for _, ev := range e.upcoming {
		if ev.Start > now {
			e.upcoming[n] = ev
			n++
			continue
		}
		if ev.Voice < 0 || ev.Voice >= len(e.visual) {
			continue
		}
		p := &e.visual[ev.Voice]
		p.velocity = ev.Velocity
		p.level = ev.Velocity * float32(math.Exp(-PulseDecay*(now-ev.Start)))
		p.at = now
	}
	e.upcoming = e.upcoming[:n]
}

// Snapshot returns the visual state of every voice at the clock's current time
func (e *Engine) Snapshot() []VoiceSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advanceVisual(e.clock.Now())
	solo := anySolo(e.voices)
	out := make([]VoiceSnapshot, len(e.voices))
	for i, v := range e.voices {
		out[i] = VoiceSnapshot{
			Name:     v.cfg.Name,
			Waveform: v.cfg.Waveform,
			Role:     v.cfg.Role,
			Position: v.position,
			Pulse:    e.visual[i].level,
			Velocity: e.visual[i].velocity,
			Muted:    v.muted,
			Solo:     v.solo,
			Audible:  v.Audible(solo),
			Color:    v.cfg.Color,
		}
	}
	return out
}
