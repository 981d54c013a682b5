package masscal

import (
	"fmt"
	"math"
)

// Range is a closed interval [Lo, Hi]
type Range struct {
	Lo float64
	Hi float64
}

// Contains reports whether v lies within the closed interval
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Length returns Hi-Lo
func (r Range) Length() float64 {
	return r.Hi - r.Lo
}

// Tolerance describes how far a value may be from a center value.
// The window around a center c is c +- max(Absolute, |c|*Relative),
// so a tolerance can be purely absolute, purely relative or both
// (the widest one wins).
type Tolerance struct {
	Absolute float64
	Relative float64 // fraction of the center value, e.g. 5e-6 for 5 ppm
}

// NewTolerance checks the tolerance values and returns the tolerance
func NewTolerance(absolute, relative float64) (Tolerance, error) {
	t := Tolerance{Absolute: absolute, Relative: relative}
	if err := t.Validate(); err != nil {
		return Tolerance{}, err
	}
	return t, nil
}

// MZTolerance returns an m/z tolerance with an absolute part (in Da)
// and a relative part in ppm
func MZTolerance(absolute, ppm float64) (Tolerance, error) {
	return NewTolerance(absolute, ppm*1e-6)
}

// AbsoluteRTTolerance returns a retention time tolerance of a fixed width
func AbsoluteRTTolerance(rt float64) (Tolerance, error) {
	return NewTolerance(rt, 0)
}

// RelativeRTTolerance returns a retention time tolerance that is a percentage
// of the retention time
func RelativeRTTolerance(percent float64) (Tolerance, error) {
	return NewTolerance(0, percent/100)
}

// Validate returns ErrInvalidTolerance for negative, NaN or infinite values
func (t Tolerance) Validate() error {
	for _, v := range []float64{t.Absolute, t.Relative} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: absolute=%g relative=%g",
				ErrInvalidTolerance, t.Absolute, t.Relative)
		}
	}
	return nil
}

// Window returns the tolerance window around center.
// Lo <= center <= Hi holds for every valid tolerance.
func (t Tolerance) Window(center float64) Range {
	d := math.Max(t.Absolute, math.Abs(center)*t.Relative)
	return Range{Lo: center - d, Hi: center + d}
}
