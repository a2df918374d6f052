package sequencer

import (
	"errors"
	"math"
	"testing"
)

func testVoices(t *testing.T, seed uint64, probs ...float64) []*Voice {
	t.Helper()
	voices := make([]*Voice, len(probs))
	for i, p := range probs {
		voices[i] = mustVoice(t, testVoiceConfig(p), seed^(uint64(i)*seedMix))
	}
	return voices
}

func mustScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(DefaultWindow)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestTickPeriod(t *testing.T) {
	p := DefaultParams()
	if !near(p.TickPeriod(), 0.27273, 1e-5) {
		t.Errorf("110 bpm eighths = %v", p.TickPeriod())
	}
	p.BPM = 115
	if !near(p.TickPeriod(), 0.26087, 1e-5) {
		t.Errorf("115 bpm eighths = %v", p.TickPeriod())
	}
}

func TestScheduleWindowAndOrder(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 42, 1, 1, 1)

	events, err := s.Schedule(&params, voices, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	// ticks at 2.0 and 2.2727 fall inside [2.0, 2.5)
	if len(events) != 6 {
		t.Fatalf("got %d events", len(events))
	}
	for i, ev := range events {
		if ev.Start < 2.0 || ev.Start >= 2.5 {
			t.Errorf("event %d start %v outside window", i, ev.Start)
		}
		if ev.FrequencyHz <= 0 {
			t.Errorf("event %d frequency %v", i, ev.FrequencyHz)
		}
		if !near(ev.Duration, 0.5*params.TickPeriod(), 1e-12) {
			t.Errorf("event %d duration %v", i, ev.Duration)
		}
		if i == 0 {
			continue
		}
		prev := events[i-1]
		if ev.Start < prev.Start || (ev.Start == prev.Start && ev.Voice <= prev.Voice) {
			t.Errorf("events out of order at %d: %+v after %+v", i, ev, prev)
		}
	}

	again, _ := s.Schedule(&params, voices, 2.0)
	if len(again) != 0 {
		t.Errorf("ticks returned twice: %d", len(again))
	}
}

func runPattern(t *testing.T, step float64, calls int) []NoteEvent {
	t.Helper()
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 42, 0.4, 0.6, 0.3)
	var all []NoteEvent
	for i := 0; i <= calls; i++ {
		events, err := s.Schedule(&params, voices, float64(i)*step)
		if err != nil {
			t.Fatal(err)
		}
		all = append(all, events...)
	}
	if s.Stats().Dropped != 0 {
		t.Fatalf("step %v dropped ticks", step)
	}
	return all
}

func TestInvocationPatternIndependence(t *testing.T) {
	fine := runPattern(t, 0.05, 200)
	coarse := runPattern(t, 0.4, 25)
	if len(fine) == 0 || len(fine) != len(coarse) {
		t.Fatalf("event counts differ: %d vs %d", len(fine), len(coarse))
	}
	for i := range fine {
		if fine[i] != coarse[i] {
			t.Fatalf("event %d: %+v vs %+v", i, fine[i], coarse[i])
		}
	}
}

func TestStaleTicksDropped(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 5, 1)
	ref := mustVoice(t, testVoiceConfig(1), 5)

	s.Schedule(&params, voices, 0)
	generated := s.Stats().Generated

	events, err := s.Schedule(&params, voices, 60)
	if err != nil {
		t.Fatal(err)
	}
	st := s.Stats()
	if st.Dropped < 200 {
		t.Fatalf("expected a minute of ticks dropped, got %d", st.Dropped)
	}
	if n := st.Generated - generated; n > 2 {
		t.Errorf("catch-up burst: %d ticks generated", n)
	}
	if len(events) == 0 {
		t.Fatal("no events after gap")
	}
	first := generated + st.Dropped
	for i, ev := range events {
		if ev.Start < 60 {
			t.Errorf("stale event at %v", ev.Start)
		}
		want, _ := ref.DecideTrigger(first+uint64(i), 6)
		scale, _ := LookupScale(params.Scale)
		hz, _ := PitchToHz(params.Root, scale, want.Degree, want.Octave, 0)
		if ev.FrequencyHz != hz || ev.Velocity != want.Velocity {
			t.Errorf("tick %d drew differently after drop", first+uint64(i))
		}
	}
}

func TestTempoChangeKeepsReturnedTicks(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 1, 1)

	before, _ := s.Schedule(&params, voices, 0)
	snapshot := append([]NoteEvent(nil), before...)
	next := s.NextTickTime()

	params.BPM = 200
	after, err := s.Schedule(&params, voices, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range snapshot {
		if before[i] != snapshot[i] {
			t.Errorf("returned event %d changed", i)
		}
	}
	if len(after) < 2 {
		t.Fatalf("got %d events", len(after))
	}
	if after[0].Start != next {
		t.Errorf("first new tick at %v, want %v", after[0].Start, next)
	}
	if !near(after[1].Start-after[0].Start, params.TickPeriod(), 1e-9) {
		t.Errorf("new spacing %v, want %v", after[1].Start-after[0].Start, params.TickPeriod())
	}
}

func TestPauseResumeShiftsGrid(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 1, 1)
	period := params.TickPeriod()

	before, _ := s.Schedule(&params, voices, 0)
	if len(before) != 2 || !near(before[1].Start, period, 1e-9) {
		t.Fatalf("first window %+v", before)
	}

	// tick 1 was returned but has not started; pausing takes it back
	if n := s.Pause(&params, 0.1); n != 1 {
		t.Fatalf("rewound %d ticks, want 1", n)
	}
	if !params.Paused {
		t.Fatal("not paused")
	}
	if s.NextTick() != 1 || !near(s.NextTickTime(), period, 1e-9) {
		t.Fatalf("next tick %d at %v", s.NextTick(), s.NextTickTime())
	}
	if events, _ := s.Schedule(&params, voices, 3); len(events) != 0 {
		t.Errorf("paused scheduler returned %d events", len(events))
	}

	s.Resume(&params, 10.1)
	if params.Paused {
		t.Fatal("still paused")
	}
	if !near(s.NextTickTime(), period+10, 1e-9) {
		t.Errorf("next tick at %v, want %v", s.NextTickTime(), period+10)
	}

	events, _ := s.Schedule(&params, voices, 10.1)
	if len(events) == 0 {
		t.Fatal("no events after resume")
	}
	got, want := events[0], before[1]
	if !near(got.Start, want.Start+10, 1e-9) {
		t.Errorf("tick 1 resumed at %v, want %v", got.Start, want.Start+10)
	}
	if got.FrequencyHz != want.FrequencyHz || got.Velocity != want.Velocity {
		t.Errorf("tick 1 redrawn differently: %+v vs %+v", got, want)
	}

	st := s.Stats()
	if st.Dropped != 0 {
		t.Errorf("resume dropped %d ticks", st.Dropped)
	}
	if st.Generated != s.NextTick() {
		t.Errorf("generated %d ticks, next is %d", st.Generated, s.NextTick())
	}
}

func TestPauseAfterWindowStartedKeepsPlayedTicks(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	s.Schedule(&params, nil, 0)

	// both returned ticks (0 and 0.27) are in the past at 0.4
	if n := s.Pause(&params, 0.4); n != 0 {
		t.Errorf("rewound %d played ticks", n)
	}
	if s.NextTick() != 2 {
		t.Errorf("next tick %d, want 2", s.NextTick())
	}
}

func TestPauseRewindsPastReseed(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	voices := testVoices(t, 3, 1)

	s.Schedule(&params, voices, 0)
	voices[0].Reseed(77)
	s.Schedule(&params, voices, 0.26) // reseed applied at tick 2
	if n := s.Pause(&params, 0.26); n != 2 || s.NextTick() != 1 {
		t.Fatalf("rewound %d ticks to %d", n, s.NextTick())
	}
	s.Resume(&params, 1.26)

	events, _ := s.Schedule(&params, voices, 1.26)
	if len(events) == 0 {
		t.Fatal("no events after resume")
	}

	// the new seed now starts at the first replayed tick
	ref := mustVoice(t, testVoiceConfig(1), 77)
	scale, _ := LookupScale(params.Scale)
	trig, _ := ref.DecideTrigger(0, scale.Len())
	hz, _ := PitchToHz(params.Root, scale, trig.Degree, trig.Octave, 0)
	if events[0].FrequencyHz != hz {
		t.Errorf("replayed tick %v Hz, want %v", events[0].FrequencyHz, hz)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	s := mustScheduler(t)
	params := DefaultParams()
	s.Schedule(&params, nil, 0)
	next := s.NextTickTime()

	s.Resume(&params, 1) // not paused, no shift
	s.Pause(&params, 1)
	s.Pause(&params, 2) // keeps the first pause time
	s.Resume(&params, 3)
	if !near(s.NextTickTime(), next+2, 1e-9) {
		t.Errorf("next = %v, want %v", s.NextTickTime(), next+2)
	}
}

func TestMuteDoesNotShiftStreams(t *testing.T) {
	params := DefaultParams()
	plain := testVoices(t, 9, 0.5, 0.5)
	muted := testVoices(t, 9, 0.5, 0.5)
	sa, sb := mustScheduler(t), mustScheduler(t)

	var a, b []NoteEvent
	for i := 0; i <= 40; i++ {
		now := float64(i) * 0.25
		if i == 10 {
			muted[1].SetMute(true)
		}
		if i == 20 {
			muted[1].SetMute(false)
			muted[0].SetSolo(true)
		}
		if i == 30 {
			muted[0].SetSolo(false)
		}
		ea, _ := sa.Schedule(&params, plain, now)
		eb, _ := sb.Schedule(&params, muted, now)
		if i >= 30 {
			a = append(a, ea...)
			b = append(b, eb...)
		}
	}
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("event counts %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d diverged after mute/solo: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestScheduleRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineParams)
	}{
		{"zero bpm", func(p *EngineParams) { p.BPM = 0 }},
		{"negative bpm", func(p *EngineParams) { p.BPM = -10 }},
		{"nan bpm", func(p *EngineParams) { p.BPM = float32(math.NaN()) }},
		{"inf bpm", func(p *EngineParams) { p.BPM = float32(math.Inf(1)) }},
		{"subdivision", func(p *EngineParams) { p.Subdivision = 0 }},
		{"root", func(p *EngineParams) { p.Root = 200 }},
		{"scale", func(p *EngineParams) { p.Scale = ScaleCount }},
		{"detune above limit", func(p *EngineParams) { p.DetuneCents = 5000 }},
		{"detune below limit", func(p *EngineParams) { p.DetuneCents = -MaxDetune - 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustScheduler(t)
			params := DefaultParams()
			tt.mutate(&params)
			if _, err := s.Schedule(&params, nil, 0); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}

	if _, err := NewScheduler(0); !errors.Is(err, ErrConfig) {
		t.Errorf("zero window: %v", err)
	}
	if _, err := NewScheduler(MaxWindow + 1); !errors.Is(err, ErrConfig) {
		t.Errorf("oversized window: %v", err)
	}
}
