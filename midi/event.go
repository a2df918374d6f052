package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn    uint8 = 0x90
	NoteOff   uint8 = 0x80
	PitchBend uint8 = 0xE0
)

// Event is one timestamped MIDI message waiting in the output queue
type Event struct {
	At       float64 // clock seconds
	Type     uint8   // NoteOn, NoteOff, PitchBend
	Channel  uint8   // 0-15
	Note     uint8
	Velocity uint8
	Bend     int16 // -8192..8191
}

// Message encodes the event for the wire
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case PitchBend:
		return gomidi.Pitchbend(e.Channel, e.Bend)
	}
	return nil
}

// before orders the queue: by time, and note-offs first on a tie so a
// voice's previous note never cuts the next one
func (e Event) before(o Event) bool {
	if e.At != o.At {
		return e.At < o.At
	}
	return e.Type == NoteOff && o.Type != NoteOff
}
