package masscal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToleranceWindow(t *testing.T) {
	tests := []struct {
		name   string
		tol    func() (Tolerance, error)
		center float64
		lo, hi float64
	}{
		{"ppm", func() (Tolerance, error) { return MZTolerance(0, 5) }, 100, 99.9995, 100.0005},
		{"absolute wins", func() (Tolerance, error) { return MZTolerance(0.01, 5) }, 100, 99.99, 100.01},
		{"ppm wins", func() (Tolerance, error) { return MZTolerance(0.0001, 5) }, 100, 99.9995, 100.0005},
		{"absolute rt", func() (Tolerance, error) { return AbsoluteRTTolerance(0.5) }, 5, 4.5, 5.5},
		{"relative rt", func() (Tolerance, error) { return RelativeRTTolerance(10) }, 50, 45, 55},
		{"zero", func() (Tolerance, error) { return NewTolerance(0, 0) }, 7, 7, 7},
		{"negative center", func() (Tolerance, error) { return RelativeRTTolerance(10) }, -50, -55, -45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tol, err := tt.tol()
			require.NoError(t, err)
			w := tol.Window(tt.center)
			assert.InDelta(t, tt.lo, w.Lo, 1e-9)
			assert.InDelta(t, tt.hi, w.Hi, 1e-9)
			assert.LessOrEqual(t, w.Lo, tt.center)
			assert.GreaterOrEqual(t, w.Hi, tt.center)
			assert.True(t, w.Contains(tt.center))
		})
	}
}

func TestToleranceRejectsInvalid(t *testing.T) {
	_, err := MZTolerance(-1, 5)
	assert.True(t, errors.Is(err, ErrInvalidTolerance))

	_, err = MZTolerance(0, -5)
	assert.ErrorIs(t, err, ErrInvalidTolerance)

	_, err = AbsoluteRTTolerance(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidTolerance)

	_, err = RelativeRTTolerance(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidTolerance)
}

func TestRange(t *testing.T) {
	r := Range{Lo: 1, Hi: 3}
	assert.True(t, r.Contains(1))
	assert.True(t, r.Contains(3))
	assert.False(t, r.Contains(3.0000001))
	assert.Equal(t, 2.0, r.Length())
}
