package masscal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T, standards []StandardsListItem) *PeakMatcher {
	t.Helper()
	rtTol, err := AbsoluteRTTolerance(0.5)
	require.NoError(t, err)
	mzTol, err := MZTolerance(0, 5)
	require.NoError(t, err)
	pm, err := NewPeakMatcher(NewStandardsIndex(standards), rtTol, mzTol, nil)
	require.NoError(t, err)
	return pm
}

func TestMatchSingleCandidate(t *testing.T) {
	pm := newTestMatcher(t, []StandardsListItem{
		{Name: "cal", MZRatio: 100.0002, RetentionTime: 5.0},
	})
	peaks := []DataPoint{{MZ: 100.0, Intensity: 1000}, {MZ: 200.0005, Intensity: 500}}

	matches, stats := pm.Match(peaks, 5.0)
	require.Len(t, matches, 1)
	assert.Equal(t, MassPeakMatch{
		MeasuredMZ: 100.0,
		MeasuredRT: 5.0,
		MatchedMZ:  100.0002,
		MatchedRT:  5.0,
		Standard:   "cal",
	}, matches[0])
	assert.Equal(t, MatchStats{Total: 2, Zero: 1, Single: 1}, stats)
}

func TestMatchAmbiguousIsDiscarded(t *testing.T) {
	pm := newTestMatcher(t, []StandardsListItem{
		{Name: "x", MZRatio: 100.0001, RetentionTime: 5.0},
		{Name: "y", MZRatio: 99.9999, RetentionTime: 5.1},
	})
	matches, stats := pm.Match([]DataPoint{{MZ: 100.0, Intensity: 1}}, 5.0)
	assert.Empty(t, matches)
	assert.Equal(t, MatchStats{Total: 1, Multiple: 1}, stats)
}

func TestMatchRespectsRTWindow(t *testing.T) {
	pm := newTestMatcher(t, []StandardsListItem{
		{Name: "early", MZRatio: 100.0001, RetentionTime: 1.0},
		{Name: "now", MZRatio: 99.9999, RetentionTime: 5.2},
	})
	// Only "now" is within the RT window, so the peak is not ambiguous
	matches, stats := pm.Match([]DataPoint{{MZ: 100.0, Intensity: 1}}, 5.0)
	require.Len(t, matches, 1)
	assert.Equal(t, "now", matches[0].Standard)
	assert.Equal(t, 1, stats.Single)

	matches, stats = pm.Match([]DataPoint{{MZ: 100.0, Intensity: 1}}, 30.0)
	assert.Empty(t, matches)
	assert.Equal(t, 1, stats.Zero)
}

func TestMatchAnyRetentionTime(t *testing.T) {
	pm := newTestMatcher(t, []StandardsListItem{
		{Name: "siloxane", MZRatio: 445.12003, RetentionTime: AnyRetentionTime},
	})
	for _, rt := range []float64{0, 120, 3600} {
		matches, _ := pm.Match([]DataPoint{{MZ: 445.1210, Intensity: 1}}, rt)
		require.Len(t, matches, 1, "rt %f", rt)
	}
}

func TestMatchOrderFollowsPeaks(t *testing.T) {
	pm := newTestMatcher(t, []StandardsListItem{
		{Name: "a", MZRatio: 300, RetentionTime: 5},
		{Name: "b", MZRatio: 100, RetentionTime: 5},
		{Name: "c", MZRatio: 200, RetentionTime: 5},
	})
	peaks := []DataPoint{{MZ: 200}, {MZ: 300}, {MZ: 100}}
	matches, _ := pm.Match(peaks, 5)
	require.Len(t, matches, 3)
	for i, p := range peaks {
		assert.Equal(t, p.MZ, matches[i].MeasuredMZ)
	}
}

func TestMatchCounterConservation(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	var standards []StandardsListItem
	for i := 0; i < 200; i++ {
		standards = append(standards, StandardsListItem{
			MZRatio:       100 + rnd.Float64()*900,
			RetentionTime: rnd.Float64() * 60,
		})
	}
	pm := newTestMatcher(t, standards)
	for scan := 0; scan < 20; scan++ {
		peaks := make([]DataPoint, 500)
		for i := range peaks {
			peaks[i] = DataPoint{MZ: 100 + rnd.Float64()*900, Intensity: rnd.Float64()}
		}
		// Make sure some peaks hit calibrants
		for i := 0; i < 50; i++ {
			peaks[i].MZ = standards[rnd.Intn(len(standards))].MZRatio
		}
		matches, stats := pm.Match(peaks, rnd.Float64()*60)
		assert.Equal(t, len(peaks), stats.Total)
		assert.Equal(t, stats.Total, stats.Zero+stats.Single+stats.Multiple)
		assert.Equal(t, stats.Single, len(matches))
	}
}

func TestNewPeakMatcherRejectsInvalidTolerance(t *testing.T) {
	_, err := NewPeakMatcher(NewStandardsIndex(nil), Tolerance{Absolute: -1},
		Tolerance{}, nil)
	assert.ErrorIs(t, err, ErrInvalidTolerance)
}

func TestMatchStatsAdd(t *testing.T) {
	a := MatchStats{Total: 3, Zero: 1, Single: 1, Multiple: 1}
	b := MatchStats{Total: 2, Single: 2}
	assert.Equal(t, MatchStats{Total: 5, Zero: 1, Single: 3, Multiple: 1}, a.Add(b))
}
