package midi

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go-generative/debug"
	"go-generative/sequencer"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Sender writes one message to a port. gomidi.SendTo returns one.
type Sender func(msg gomidi.Message) error

// OpenPort finds an output port by name and returns its sender
func OpenPort(name string) (Sender, error) {
	port, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find output port %q: %w", name, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output port %q: %w", name, err)
	}
	debug.Log("midi", "opened output %q", port.String())
	return Sender(send), nil
}

// idleWait bounds how long the dispatcher sleeps between queue checks
const idleWait = 5 * time.Millisecond

type heldKey struct {
	channel, note uint8
}

// Output is a sequencer.Sink that turns notes into timed MIDI messages.
// Voice i plays on channel baseChannel+i; microtonal offsets travel as
// per-channel pitch bend.
type Output struct {
	mu          sync.Mutex
	send        Sender
	clock       sequencer.Clock
	queue       []Event // sorted, see Event.before
	held        map[heldKey]bool
	bendRange   float64
	baseChannel uint8

	interrupt chan struct{}

	sent    int
	dropped int
}

func NewOutput(clock sequencer.Clock, bendRange float64, baseChannel int) *Output {
	if bendRange <= 0 {
		bendRange = DefaultBendRange
	}
	return &Output{
		clock:       clock,
		held:        make(map[heldKey]bool),
		bendRange:   bendRange,
		baseChannel: uint8(baseChannel & 0x0F),
		interrupt:   make(chan struct{}, 1),
	}
}

// SetSender swaps the port. nil disconnects; queued messages are then dropped
// as they fall due.
func (o *Output) SetSender(s Sender) {
	o.mu.Lock()
	o.send = s
	if s == nil {
		o.held = make(map[heldKey]bool)
	}
	o.mu.Unlock()
}

func (o *Output) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil
}

// Send queues a batch from the scheduler
func (o *Output) Send(events []sequencer.NoteEvent) {
	o.mu.Lock()
	for _, ev := range events {
		ch := o.baseChannel + uint8(ev.Voice)
		if ch > 15 {
			continue
		}
		msgs, err := NoteEvents(ev, ch, o.bendRange)
		if err != nil {
			debug.Log("midi", "skip note: %v", err)
			continue
		}
		for _, m := range msgs {
			o.insert(m)
		}
	}
	o.mu.Unlock()

	select {
	case o.interrupt <- struct{}{}:
	default:
	}
}

// insert keeps the queue sorted and FIFO among equal events. Expects o.mu held.
func (o *Output) insert(e Event) {
	i := sort.Search(len(o.queue), func(i int) bool { return e.before(o.queue[i]) })
	o.queue = append(o.queue, Event{})
	copy(o.queue[i+1:], o.queue[i:])
	o.queue[i] = e
}

// Pending is the number of queued messages
func (o *Output) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Stats returns how many messages were written and dropped
func (o *Output) Stats() (sent, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent, o.dropped
}

// Flush writes every message due at or before now and returns the count
func (o *Output) Flush(now float64) int {
	o.mu.Lock()
	n := 0
	for n < len(o.queue) && o.queue[n].At <= now {
		n++
	}
	due := make([]Event, n)
	copy(due, o.queue[:n])
	o.queue = o.queue[n:]
	send := o.send
	o.mu.Unlock()

	written := 0
	for _, e := range due {
		if send == nil {
			o.count(false)
			continue
		}
		if err := send(e.Message()); err != nil {
			debug.Log("midi", "send: %v", err)
			o.count(false)
			continue
		}
		o.track(e)
		o.count(true)
		written++
	}
	if written > 0 {
		debug.LogEvery(50, "dispatch", "wrote %d messages at %.3f", written, now)
	}
	return written
}

func (o *Output) count(ok bool) {
	o.mu.Lock()
	if ok {
		o.sent++
	} else {
		o.dropped++
	}
	o.mu.Unlock()
}

func (o *Output) track(e Event) {
	k := heldKey{e.Channel, e.Note}
	o.mu.Lock()
	switch e.Type {
	case NoteOn:
		o.held[k] = true
	case NoteOff:
		delete(o.held, k)
	}
	o.mu.Unlock()
}

// AllNotesOff drops the queue and releases every sounding note
func (o *Output) AllNotesOff() {
	o.mu.Lock()
	o.queue = nil
	send := o.send
	held := o.held
	o.held = make(map[heldKey]bool)
	o.mu.Unlock()

	if send == nil {
		return
	}
	for k := range held {
		if err := send(gomidi.NoteOff(k.channel, k.note)); err != nil {
			debug.Log("midi", "note off ch=%d key=%d: %v", k.channel, k.note, err)
		}
	}
	debug.Log("midi", "all notes off (%d held)", len(held))
}

// Cancel withdraws every queued note starting at or after from, with its
// bend. Notes that are sounding or start earlier keep their NoteOff.
func (o *Output) Cancel(from float64) {
	o.mu.Lock()
	sounding := make(map[heldKey]bool, len(o.held))
	for k := range o.held {
		sounding[k] = true
	}

	n := 0
	for _, e := range o.queue {
		k := heldKey{e.Channel, e.Note}
		keep := e.At < from
		switch e.Type {
		case NoteOn:
			if keep {
				sounding[k] = true
			}
		case NoteOff:
			if sounding[k] {
				keep = true
				delete(sounding, k)
			}
		}
		if keep {
			o.queue[n] = e
			n++
		}
	}
	dropped := len(o.queue) - n
	o.queue = o.queue[:n]
	o.mu.Unlock()

	debug.Log("midi", "cancelled %d messages from %.3f", dropped, from)
}

// Run dispatches queued messages on time until ctx is done
func (o *Output) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer o.AllNotesOff()

	for {
		wait := idleWait
		o.mu.Lock()
		if len(o.queue) > 0 {
			d := time.Duration((o.queue[0].At - o.clock.Now()) * float64(time.Second))
			if d < wait {
				wait = d
			}
		}
		o.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-o.interrupt:
				timer.Stop()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return
		}

		o.Flush(o.clock.Now())
	}
}
