package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-generative/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// PortEvent is emitted when an output port appears or disappears
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortConnected {
		return "connected"
	}
	return "disconnected"
}

// scanTimeout guards against drivers that hang while enumerating (CoreMIDI)
const scanTimeout = 3 * time.Second

// PortWatcher polls the MIDI output ports for hot-plug changes
type PortWatcher struct {
	known    map[string]bool
	mu       sync.RWMutex
	events   chan PortEvent
	pollRate time.Duration
	list     func() []string
}

func NewPortWatcher() *PortWatcher {
	return &PortWatcher{
		known:    make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		list:     OutPortNames,
	}
}

// Events returns a channel of connect/disconnect events. It is closed when Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns the currently known output ports, sorted
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.known))
	for n := range w.known {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-ctx.Done():
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *PortWatcher) scan() {
	ch := make(chan []string, 1)
	go func() {
		ch <- w.list()
	}()

	var names []string
	select {
	case names = <-ch:
	case <-time.After(scanTimeout):
		debug.Log("ports", "port scan timed out, skipping")
		return
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}

	w.mu.Lock()
	var changes []PortEvent
	for n := range seen {
		if !w.known[n] {
			w.known[n] = true
			changes = append(changes, PortEvent{Type: PortConnected, Name: n})
		}
	}
	for n := range w.known {
		if !seen[n] {
			delete(w.known, n)
			changes = append(changes, PortEvent{Type: PortDisconnected, Name: n})
		}
	}
	w.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	for _, c := range changes {
		debug.Log("ports", "%s %q", c.Type, c.Name)
		select {
		case w.events <- c:
		default:
			debug.Log("ports", "event queue full, dropped %q", c.Name)
		}
	}
}

// OutPortNames lists the output ports of the registered driver
func OutPortNames() []string {
	var names []string
	for _, p := range gomidi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}
