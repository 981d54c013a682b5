package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/524D/mzcal/masscal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "history.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	est := masscal.BiasEstimate{
		Bias:      -1.25,
		Errors:    7,
		Extracted: masscal.DistributionRange{Items: []float64{-1, -1.5}},
	}
	stats := masscal.MatchStats{Total: 20, Zero: 10, Single: 7, Multiple: 3}
	first := NewRun("a.mzML", "ppm", est, stats)
	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, &first))

	second := Run{InputFile: "b.mzML", Metric: "log", Bias: 0.5}
	require.NoError(t, s.Record(ctx, &second))
	assert.NotEmpty(t, second.ID)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	got := runs[1]
	assert.Equal(t, "a.mzML", got.InputFile)
	assert.Equal(t, -1.25, got.Bias)
	assert.Equal(t, 7, got.ErrorsPooled)
	assert.Equal(t, 2, got.ErrorsExtracted)
	assert.Equal(t, 20, got.PeaksTotal)
	assert.Equal(t, 3, got.PeaksMultiple)
	assert.False(t, got.CreatedAt.IsZero())

	runs, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestForInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, f := range []string{"a.mzML", "b.mzML", "a.mzML"} {
		run := Run{InputFile: f, Metric: "ppm"}
		require.NoError(t, s.Record(ctx, &run))
	}
	runs, err := s.ForInput(ctx, "a.mzML")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := Run{ID: uuid.NewString()}
	require.NoError(t, s.Record(ctx, &run))
	dup := run
	assert.Error(t, s.Record(ctx, &dup))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite3")
	s, err := Open(path)
	require.NoError(t, err)
	run := Run{InputFile: "x.mzML"}
	require.NoError(t, s.Record(context.Background(), &run))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestNilStore(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
	assert.Error(t, s.Record(context.Background(), &Run{}))
	_, err := s.Recent(context.Background(), 1)
	assert.Error(t, err)
}
