package sequencer

import (
	"math"
	"strings"
)

// ScaleID identifies a scale in the table
type ScaleID int

const (
	ScalePentatonic ScaleID = iota
	ScaleIonian
	ScaleDorian
	ScalePhrygian
	ScaleLydian
	ScaleMixolydian
	ScaleAeolian
	ScaleLocrian
	ScaleTET19Pentatonic
	ScaleTET24Pentatonic
	ScaleTET31Pentatonic
	ScaleHarmonicMinor
	ScaleMelodicMinor
	ScaleBlues
	ScaleWholeTone
	ScaleHungarianMinor
	ScaleDoubleHarmonic
	ScaleHirajoshi
	ScaleInSen
	ScaleCount
)

// Scale is an ordered set of pitch offsets in cents relative to the root.
// Diatonic and microtonal scales share this one representation.
type Scale struct {
	ID    ScaleID
	Name  string
	cents []float64
}

// NewScale validates offsets (non-empty, first >= 0, strictly increasing)
// and returns a scale holding its own copy of them.
func NewScale(id ScaleID, name string, cents []float64) (*Scale, error) {
	if len(cents) == 0 {
		return nil, configError("scale %q has no degrees", name)
	}
	for i, c := range cents {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, configError("scale %q degree %d is not finite", name, i)
		}
		if i == 0 && c < 0 {
			return nil, configError("scale %q starts below the root (%v cents)", name, c)
		}
		if i > 0 && c <= cents[i-1] {
			return nil, configError("scale %q offsets not strictly increasing at degree %d", name, i)
		}
	}
	own := make([]float64, len(cents))
	copy(own, cents)
	return &Scale{ID: id, Name: name, cents: own}, nil
}

// Len returns the number of valid degrees
func (s *Scale) Len() int { return len(s.cents) }

// Offset returns the cents offset of a degree
func (s *Scale) Offset(degree int) (float64, error) {
	if degree < 0 || degree >= len(s.cents) {
		return 0, degreeError(degree, len(s.cents))
	}
	return s.cents[degree], nil
}

// Cents returns a copy of the offsets
func (s *Scale) Cents() []float64 {
	out := make([]float64, len(s.cents))
	copy(out, s.cents)
	return out
}

// semitones converts 12-TET intervals to cents
func semitones(steps ...int) []float64 {
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = float64(s) * 100
	}
	return out
}

// edo converts steps of an n-tone equal division of the octave to cents
func edo(n int, steps ...int) []float64 {
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = float64(s) * 1200 / float64(n)
	}
	return out
}

type scaleDef struct {
	name  string
	cents []float64
}

// Interval tables, octave degree included where the source tables include it.
var scaleDefs = [ScaleCount]scaleDef{
	ScalePentatonic:      {"C Major Pentatonic", semitones(0, 2, 4, 7, 9, 12)},
	ScaleIonian:          {"Ionian (major)", semitones(0, 2, 4, 5, 7, 9, 11, 12)},
	ScaleDorian:          {"Dorian", semitones(0, 2, 3, 5, 7, 9, 10, 12)},
	ScalePhrygian:        {"Phrygian", semitones(0, 1, 3, 5, 7, 8, 10, 12)},
	ScaleLydian:          {"Lydian", semitones(0, 2, 4, 6, 7, 9, 11, 12)},
	ScaleMixolydian:      {"Mixolydian", semitones(0, 2, 4, 5, 7, 9, 10, 12)},
	ScaleAeolian:         {"Aeolian (minor)", semitones(0, 2, 3, 5, 7, 8, 10, 12)},
	ScaleLocrian:         {"Locrian", semitones(0, 1, 3, 5, 6, 8, 10, 12)},
	ScaleTET19Pentatonic: {"19-TET pentatonic", edo(19, 0, 3, 6, 11, 14, 19)},
	ScaleTET24Pentatonic: {"24-TET pentatonic", edo(24, 0, 4, 7, 14, 17, 24)},
	ScaleTET31Pentatonic: {"31-TET pentatonic", edo(31, 0, 5, 10, 18, 23, 31)},
	ScaleHarmonicMinor:   {"Harmonic Minor", semitones(0, 2, 3, 5, 7, 8, 11, 12)},
	ScaleMelodicMinor:    {"Melodic Minor", semitones(0, 2, 3, 5, 7, 9, 11, 12)},
	ScaleBlues:           {"Blues", semitones(0, 3, 5, 6, 7, 10, 12)},
	ScaleWholeTone:       {"Whole Tone", semitones(0, 2, 4, 6, 8, 10, 12)},
	ScaleHungarianMinor:  {"Hungarian Minor", semitones(0, 2, 3, 6, 7, 8, 11, 12)},
	ScaleDoubleHarmonic:  {"Double Harmonic", semitones(0, 1, 4, 5, 7, 8, 11, 12)},
	ScaleHirajoshi:       {"Hirajoshi", semitones(0, 2, 3, 7, 8, 12)},
	ScaleInSen:           {"In Sen", semitones(0, 1, 5, 7, 10, 12)},
}

// table is built once at init and never mutated afterwards
var table = buildTable()

func buildTable() [ScaleCount]*Scale {
	var t [ScaleCount]*Scale
	for id, def := range scaleDefs {
		s, err := NewScale(ScaleID(id), def.name, def.cents)
		if err != nil {
			panic(err) // static table
		}
		t[id] = s
	}
	return t
}

// LookupScale returns the scale for an id
func LookupScale(id ScaleID) (*Scale, error) {
	if id < 0 || id >= ScaleCount {
		return nil, configError("unknown scale id %d", int(id))
	}
	return table[id], nil
}

// ScaleByName finds a scale by case-insensitive name
func ScaleByName(name string) (*Scale, error) {
	for _, s := range table {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return nil, configError("unknown scale %q", name)
}

// Scales lists every scale id in table order
func Scales() []ScaleID {
	ids := make([]ScaleID, ScaleCount)
	for i := range ids {
		ids[i] = ScaleID(i)
	}
	return ids
}

// Modes are the seven diatonic modes, in keyboard order
var Modes = []ScaleID{
	ScaleIonian, ScaleDorian, ScalePhrygian, ScaleLydian,
	ScaleMixolydian, ScaleAeolian, ScaleLocrian,
}

func (id ScaleID) String() string {
	if id < 0 || id >= ScaleCount {
		return "Custom"
	}
	return table[id].Name
}
