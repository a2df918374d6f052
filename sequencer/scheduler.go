package sequencer

import (
	"math"

	"go-generative/debug"
)

// DefaultWindow is the look-ahead horizon in seconds. It must exceed the
// longest gap between Schedule calls or ticks go stale and are dropped.
const DefaultWindow = 0.5

// MaxWindow bounds the look-ahead so one call never builds an unbounded batch
const MaxWindow = 10.0

// NoteEvent is one scheduled note. Start and Duration are clock seconds.
type NoteEvent struct {
	Voice       int
	FrequencyHz float64
	Velocity    float32
	Start       float64
	Duration    float64
	Position    Vec3
}

// Stats counts grid ticks since the scheduler was created
type Stats struct {
	Generated uint64 // ticks that reached the voices
	Dropped   uint64 // stale ticks skipped without drawing
	Events    uint64 // audible notes returned
}

// Scheduler turns the clock into grid ticks. It owns the grid phase and
// nothing else; voices and params are passed in on every call.
type Scheduler struct {
	window float64

	started  bool
	nextTick uint64
	nextTime float64
	pausedAt float64

	issued []issuedTick // returned ticks that had not started at the last call

	stats Stats
}

type issuedTick struct {
	tick   uint64
	at     float64
	events int
}

func NewScheduler(window float64) (*Scheduler, error) {
	if math.IsNaN(window) || window <= 0 || window > MaxWindow {
		return nil, configError("look-ahead window %v outside (0,%v] seconds", window, MaxWindow)
	}
	return &Scheduler{window: window}, nil
}

func (s *Scheduler) Window() float64 { return s.window }

// NextTick is the index of the first tick not yet generated
func (s *Scheduler) NextTick() uint64 { return s.nextTick }

// NextTickTime is when NextTick falls due. Zero before the first call.
func (s *Scheduler) NextTickTime() float64 { return s.nextTime }

func (s *Scheduler) Stats() Stats { return s.stats }

// Schedule returns every audible note whose tick falls in [now, now+window)
// and has not been returned before, ordered by start time then voice.
//
// Every voice draws on every tick whether or not it is audible. Ticks that
// are already in the past are skipped without drawing.
func (s *Scheduler) Schedule(params *EngineParams, voices []*Voice, now float64) ([]NoteEvent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Paused {
		return nil, nil
	}
	scale, err := LookupScale(params.Scale)
	if err != nil {
		return nil, err
	}

	if !s.started {
		s.started = true
		s.nextTime = now
	}

	period := params.TickPeriod()
	s.dropStale(now, period)
	s.pruneIssued(now)

	horizon := now + s.window
	solo := anySolo(voices)

	var events []NoteEvent
	for s.nextTime < horizon {
		before := len(events)
		for i, v := range voices {
			if v == nil {
				continue
			}
			trig, hit := v.DecideTrigger(s.nextTick, scale.Len())
			if !hit || !v.Audible(solo) {
				continue
			}
			hz, err := PitchToHz(params.Root, scale, trig.Degree, trig.Octave, float64(params.DetuneCents))
			if err != nil {
				return events, err
			}
			events = append(events, NoteEvent{
				Voice:       i,
				FrequencyHz: hz,
				Velocity:    trig.Velocity,
				Start:       s.nextTime,
				Duration:    v.cfg.Gate * period,
				Position:    v.position,
			})
		}
		s.issued = append(s.issued, issuedTick{tick: s.nextTick, at: s.nextTime, events: len(events) - before})
		s.nextTick++
		s.nextTime += period
		s.stats.Generated++
	}
	s.stats.Events += uint64(len(events))
	return events, nil
}

// dropStale jumps the grid past ticks earlier than now in one step
func (s *Scheduler) dropStale(now, period float64) {
	if s.nextTime >= now {
		return
	}
	k := uint64(math.Ceil((now - s.nextTime) / period))
	s.nextTick += k
	s.nextTime += float64(k) * period
	// rounding can leave us a hair short
	for s.nextTime < now {
		s.nextTick++
		s.nextTime += period
		k++
	}
	s.stats.Dropped += k
	debug.Log("sched", "dropped %d stale ticks, next=%d at %.4f", k, s.nextTick, s.nextTime)
}

func (s *Scheduler) pruneIssued(now float64) {
	i := 0
	for i < len(s.issued) && s.issued[i].at < now {
		i++
	}
	s.issued = s.issued[i:]
}

// Pause stops generation and rewinds the grid to the first returned tick at
// or after now. Those ticks are generated again after Resume, shifted by the
// paused duration; callers must discard the events they already hold with
// Start >= now. Pause reports how many ticks were taken back.
func (s *Scheduler) Pause(params *EngineParams, now float64) int {
	if params.Paused {
		return 0
	}
	params.Paused = true
	s.pausedAt = now

	s.pruneIssued(now)
	n := len(s.issued)
	if n > 0 {
		s.nextTick = s.issued[0].tick
		s.nextTime = s.issued[0].at
		for _, it := range s.issued {
			s.stats.Generated--
			s.stats.Events -= uint64(it.events)
		}
		s.issued = s.issued[:0]
	}
	debug.Log("sched", "pause at %.4f, rewound %d ticks, next=%d at %.4f", now, n, s.nextTick, s.nextTime)
	return n
}

// Resume shifts every future tick by the time spent paused, so the grid
// phase and the voices' streams continue where they left off.
func (s *Scheduler) Resume(params *EngineParams, now float64) {
	if !params.Paused {
		return
	}
	params.Paused = false
	d := now - s.pausedAt
	if d < 0 {
		d = 0
	}
	if s.started {
		s.nextTime += d
	}
	debug.Log("sched", "resume at %.4f after %.4fs, next=%d at %.4f", now, d, s.nextTick, s.nextTime)
}
