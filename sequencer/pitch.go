package sequencer

import (
	"fmt"
	"math"
)

// Note is a MIDI note number, 0..127. 69 is A4 = 440 Hz.
type Note int

const (
	concertA     = 440.0
	concertANote = 69
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Valid reports whether n is inside the MIDI note range
func (n Note) Valid() bool { return n >= 0 && n <= 127 }

// String returns scientific pitch notation, C4 = 60
func (n Note) String() string {
	if !n.Valid() {
		return fmt.Sprintf("note(%d)", int(n))
	}
	return fmt.Sprintf("%s%d", noteNames[int(n)%12], int(n)/12-1)
}

// PitchToHz maps a scale degree to a frequency:
//
//	cents = (root-69)*100 + offset(degree) + 1200*octave + detune
//	f     = 440 * 2^(cents/1200)
//
// Degrees outside the scale are rejected, never wrapped.
func PitchToHz(root Note, scale *Scale, degree, octave int, detuneCents float64) (float64, error) {
	if scale == nil {
		return 0, configError("nil scale")
	}
	offset, err := scale.Offset(degree)
	if err != nil {
		return 0, err
	}
	cents := float64(int(root)-concertANote)*100 + offset + 1200*float64(octave) + detuneCents
	return concertA * math.Exp2(cents/1200), nil
}

// MIDIToHz converts a (possibly fractional) MIDI note number to Hz
func MIDIToHz(note float64) float64 {
	return concertA * math.Exp2((note-concertANote)/12)
}

// HzToMIDI converts a frequency to a fractional MIDI note number
func HzToMIDI(hz float64) float64 {
	return concertANote + 12*math.Log2(hz/concertA)
}
