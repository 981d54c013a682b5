package masscal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticMean(t *testing.T) {
	m, err := ArithmeticMean([]float64{1, 2, 3, 6})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)

	m, err = ArithmeticMean([]float64{-1.5})
	require.NoError(t, err)
	assert.Equal(t, -1.5, m)
}

func TestArithmeticMeanEmpty(t *testing.T) {
	_, err := ArithmeticMean(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = ArithmeticMean([]float64{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, Unique([]float64{1, 2, 1, 3, 2}))
	assert.Equal(t, []float64{}, Unique(nil))
}
