package midi

import (
	"fmt"
	"math"

	"go-generative/sequencer"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// DefaultBendRange matches the ±2 semitone default of most synths
const DefaultBendRange = 2.0

// Pitch is a frequency expressed as the nearest MIDI key plus a bend
type Pitch struct {
	Key  uint8
	Bend int16 // 0 is centre
}

// FrequencyToPitch rounds hz to the nearest key and carries the remainder
// (at most half a semitone) in the pitch bend. bendRange is the synth's
// full-scale bend in semitones.
func FrequencyToPitch(hz, bendRange float64) (Pitch, error) {
	if math.IsNaN(hz) || hz <= 0 || math.IsInf(hz, 0) {
		return Pitch{}, outOfRange("frequency %v Hz", hz)
	}
	if bendRange <= 0 {
		return Pitch{}, outOfRange("bend range %v", bendRange)
	}
	note := sequencer.HzToMIDI(hz)
	key := math.Round(note)
	if key < 0 || key > 127 {
		return Pitch{}, outOfRange("%.1f Hz is outside the MIDI key range", hz)
	}
	bend := math.Round((note - key) / bendRange * 8192)
	bend = math.Max(-8192, math.Min(8191, bend))
	return Pitch{Key: uint8(key), Bend: int16(bend)}, nil
}

// Hz converts back, the inverse of FrequencyToPitch
func (p Pitch) Hz(bendRange float64) float64 {
	return sequencer.MIDIToHz(float64(p.Key) + float64(p.Bend)/8192*bendRange)
}

// VelocityToMIDI maps 0..1 to 1..127. Zero is avoided since a zero
// velocity note-on means note-off.
func VelocityToMIDI(v float32) uint8 {
	n := math.Round(float64(v) * 127)
	return uint8(math.Max(1, math.Min(127, n)))
}

// NoteEvents expands one scheduled note into bend, note-on and note-off
func NoteEvents(ev sequencer.NoteEvent, channel uint8, bendRange float64) ([]Event, error) {
	p, err := FrequencyToPitch(ev.FrequencyHz, bendRange)
	if err != nil {
		return nil, err
	}
	return []Event{
		{At: ev.Start, Type: PitchBend, Channel: channel, Bend: p.Bend},
		{At: ev.Start, Type: NoteOn, Channel: channel, Note: p.Key, Velocity: VelocityToMIDI(ev.Velocity)},
		{At: ev.Start + ev.Duration, Type: NoteOff, Channel: channel, Note: p.Key},
	}, nil
}

func outOfRange(format string, args ...any) error {
	return fault.Wrap(sequencer.ErrConfig,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument),
	)
}
