package sequencer

import "math"

// MaxRadius bounds voice positions in the XZ plane around the listener
const MaxRadius float32 = 3.0

// Vec3 is a position in listener space
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y) + float64(v.Z)*float64(v.Z)))
}

func (v Vec3) Scale(k float32) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// ClampLength shortens v to at most r, keeping its direction
func (v Vec3) ClampLength(r float32) Vec3 {
	l := float64(v.Len())
	if l <= float64(r) || l == 0 {
		return v
	}
	k := float64(r) / l
	return Vec3{
		X: float32(float64(v.X) * k),
		Y: float32(float64(v.Y) * k),
		Z: float32(float64(v.Z) * k),
	}
}

func finite32(vals ...float32) bool {
	for _, f := range vals {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
