package sequencer

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go-generative/debug"
)

// Sink consumes scheduled notes. The runtime loop calls it with the engine
// locked, so it must not block for long or call back into the Engine.
type Sink interface {
	Send(events []NoteEvent)
}

// Canceler is implemented by sinks that can withdraw queued notes starting
// at or after from. The engine calls it when a pause takes back ticks that
// were already handed out.
type Canceler interface {
	Cancel(from float64)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(events []NoteEvent)

func (f SinkFunc) Send(events []NoteEvent) { f(events) }

type multiSink []Sink

func (m multiSink) Send(events []NoteEvent) {
	for _, s := range m {
		if s != nil {
			s.Send(events)
		}
	}
}

func (m multiSink) Cancel(from float64) {
	for _, s := range m {
		if c, ok := s.(Canceler); ok {
			c.Cancel(from)
		}
	}
}

// MultiSink fans a batch out to every non-nil sink in order. Cancel reaches
// every sink that implements Canceler.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

// Options for NewEngine. Zero values pick the defaults.
type Options struct {
	Window float64 // look-ahead seconds, DefaultWindow if zero
	Seed   uint64  // master seed, voice i starts at Seed ^ i*seedMix
}

const (
	seedMix     = 0x9E3779B97F4A7C15
	DefaultSeed = 42

	scheduleRate = 25 * time.Millisecond
	uiFPS        = 30
)

// Engine is the single owner of the parameters, the voices and the
// scheduler. All control calls and scheduling passes are serialized on one
// mutex, so any goroutine may call any method.
type Engine struct {
	mu sync.Mutex

	clock  Clock
	params EngineParams
	voices []*Voice
	sched  *Scheduler
	seeder *rand.Rand

	visual   []pulse
	upcoming []NoteEvent // returned but not yet started, for pulses
	sink     Sink        // set while Run is active

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewEngine validates everything up front; a rejected config never yields
// a half-built engine.
func NewEngine(clock Clock, params EngineParams, configs []VoiceConfig, opts Options) (*Engine, error) {
	if clock == nil {
		return nil, configError("nil clock")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, configError("at least one voice is required")
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	sched, err := NewScheduler(opts.Window)
	if err != nil {
		return nil, err
	}

	voices := make([]*Voice, len(configs))
	for i, cfg := range configs {
		v, err := NewVoice(cfg, opts.Seed^(uint64(i)*seedMix))
		if err != nil {
			return nil, err
		}
		voices[i] = v
	}

	return &Engine{
		clock:      clock,
		params:     params,
		voices:     voices,
		sched:      sched,
		seeder:     rand.New(rand.NewPCG(opts.Seed, seedMix)),
		visual:     make([]pulse, len(voices)),
		UpdateChan: make(chan struct{}, 1),
	}, nil
}

// Update runs one scheduling pass at the clock's current time and returns
// the newly scheduled notes.
func (e *Engine) Update() ([]NoteEvent, error) {
	e.mu.Lock()
	events, err := e.update()
	e.mu.Unlock()

	if len(events) > 0 {
		e.notifyUpdate()
	}
	return events, err
}

// update expects e.mu held
func (e *Engine) update() ([]NoteEvent, error) {
	now := e.clock.Now()
	events, err := e.sched.Schedule(&e.params, e.voices, now)
	e.upcoming = append(e.upcoming, events...)
	e.advanceVisual(now)
	if len(events) > 0 {
		debug.LogEvery(20, "engine", "scheduled %d notes at %.3f", len(events), now)
	}
	return events, err
}

// Run drives Update until ctx is done, handing every batch to sink. It also
// refreshes the visual state and pings UpdateChan at a fixed frame rate.
func (e *Engine) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(scheduleRate)
	uiTicker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()
	defer uiTicker.Stop()

	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.sink = nil
		e.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// send under the lock so a pause cannot slip between schedule and send
			e.mu.Lock()
			events, err := e.update()
			if len(events) > 0 && sink != nil {
				sink.Send(events)
			}
			e.mu.Unlock()

			if err != nil {
				debug.Log("engine", "schedule: %v", err)
			}
			if len(events) > 0 {
				e.notifyUpdate()
			}
		case <-uiTicker.C:
			e.mu.Lock()
			e.advanceVisual(e.clock.Now())
			e.mu.Unlock()
			e.notifyUpdate()
		}
	}
}

func (e *Engine) notifyUpdate() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}

// Params returns a copy of the current parameters
func (e *Engine) Params() EngineParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Stats()
}

func (e *Engine) NumVoices() int { return len(e.voices) }

func (e *Engine) Now() float64 { return e.clock.Now() }

func (e *Engine) voice(id int) (*Voice, error) {
	if id < 0 || id >= len(e.voices) {
		return nil, indexError(id, len(e.voices))
	}
	return e.voices[id], nil
}

// control runs fn under the lock and pings the UI on success
func (e *Engine) control(action string, fn func() error) error {
	e.mu.Lock()
	err := fn()
	e.mu.Unlock()
	if err != nil {
		debug.Log("engine", "%s rejected: %v", action, err)
		return err
	}
	debug.Log("engine", "%s", action)
	e.notifyUpdate()
	return nil
}

// SetBPM takes effect from the next tick not yet scheduled
func (e *Engine) SetBPM(bpm float32) error {
	return e.control("set bpm", func() error {
		if err := validBPM(bpm); err != nil {
			return err
		}
		e.params.BPM = bpm
		return nil
	})
}

// NudgeBPM adds delta and clamps to the interactive range
func (e *Engine) NudgeBPM(delta float32) error {
	return e.control("nudge bpm", func() error {
		bpm := clampf(e.params.BPM+delta, MinNudgeBPM, MaxNudgeBPM)
		if err := validBPM(bpm); err != nil {
			return err
		}
		e.params.BPM = bpm
		return nil
	})
}

func (e *Engine) SetRoot(root Note) error {
	return e.control("set root", func() error {
		if !root.Valid() {
			return configError("root %d outside [0,127]", int(root))
		}
		e.params.Root = root
		return nil
	})
}

func (e *Engine) SetScale(id ScaleID) error {
	return e.control("set scale", func() error {
		if _, err := LookupScale(id); err != nil {
			return err
		}
		e.params.Scale = id
		return nil
	})
}

func (e *Engine) SetSubdivision(n int) error {
	return e.control("set subdivision", func() error {
		if n < 1 {
			return configError("subdivision %d must be >= 1", n)
		}
		e.params.Subdivision = n
		return nil
	})
}

// SetDetuneCents clamps to ±MaxDetune; non-finite values are rejected
func (e *Engine) SetDetuneCents(cents float32) error {
	return e.control("set detune", func() error {
		return e.setDetune(cents)
	})
}

func (e *Engine) AdjustDetune(delta float32) error {
	return e.control("adjust detune", func() error {
		return e.setDetune(e.params.DetuneCents + delta)
	})
}

func (e *Engine) ResetDetune() {
	_ = e.SetDetuneCents(0)
}

func (e *Engine) setDetune(cents float32) error {
	if !finite32(cents) {
		return configError("detune %v is not finite", cents)
	}
	e.params.DetuneCents = clampf(cents, -MaxDetune, MaxDetune)
	return nil
}

// ReseedAll gives every voice an independent fresh seed
func (e *Engine) ReseedAll() {
	_ = e.control("reseed all", func() error {
		for _, v := range e.voices {
			v.Reseed(e.seeder.Uint64())
		}
		return nil
	})
}

func (e *Engine) ReseedVoice(id int) error {
	return e.control("reseed voice", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		v.Reseed(e.seeder.Uint64())
		return nil
	})
}

func (e *Engine) ToggleMute(id int) error {
	return e.control("toggle mute", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		v.ToggleMute()
		return nil
	})
}

func (e *Engine) ToggleSolo(id int) error {
	return e.control("toggle solo", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		v.ToggleSolo()
		return nil
	})
}

func (e *Engine) SetMute(id int, muted bool) error {
	return e.control("set mute", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		v.SetMute(muted)
		return nil
	})
}

func (e *Engine) SetSolo(id int, solo bool) error {
	return e.control("set solo", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		v.SetSolo(solo)
		return nil
	})
}

// SetVoicePosition moves a voice in the XZ plane, clamped to MaxRadius
func (e *Engine) SetVoicePosition(id int, x, z float32) error {
	return e.control("move voice", func() error {
		v, err := e.voice(id)
		if err != nil {
			return err
		}
		return v.SetPosition(x, z)
	})
}

// Pause stops the grid now. Notes already handed out that start at or after
// now are withdrawn and come back after Resume, shifted by the pause.
func (e *Engine) Pause() {
	_ = e.control("pause", func() error {
		e.pause(e.clock.Now())
		return nil
	})
}

// pause expects e.mu held
func (e *Engine) pause(now float64) {
	if e.sched.Pause(&e.params, now) == 0 {
		return
	}
	n := 0
	for _, ev := range e.upcoming {
		if ev.Start < now {
			e.upcoming[n] = ev
			n++
		}
	}
	e.upcoming = e.upcoming[:n]
	if c, ok := e.sink.(Canceler); ok {
		c.Cancel(now)
	}
}

func (e *Engine) Resume() {
	_ = e.control("resume", func() error {
		e.sched.Resume(&e.params, e.clock.Now())
		return nil
	})
}

// TogglePause returns true if the engine is now paused
func (e *Engine) TogglePause() bool {
	var paused bool
	_ = e.control("toggle pause", func() error {
		now := e.clock.Now()
		if e.params.Paused {
			e.sched.Resume(&e.params, now)
		} else {
			e.pause(now)
		}
		paused = e.params.Paused
		return nil
	})
	return paused
}

// whiteKeys are the roots reachable from the a-g keys, C4..B4
var whiteKeys = []Note{60, 62, 64, 65, 67, 69, 71}

// RandomizeKey picks a random white-key root and a random diatonic mode
func (e *Engine) RandomizeKey() {
	_ = e.control("randomize key", func() error {
		e.params.Root = whiteKeys[e.seeder.IntN(len(whiteKeys))]
		e.params.Scale = Modes[e.seeder.IntN(len(Modes))]
		return nil
	})
}
