package masscal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Config holds the tolerances and extraction parameters of a calibration run
type Config struct {
	RTTolerance Tolerance
	MZTolerance Tolerance
	Extraction  ExtractionParams
}

// Option changes optional settings of a MassCalibrator
type Option func(*MassCalibrator)

// WithLogger sets the logger for diagnostic messages.
// Without it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MassCalibrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetric sets the error metric, the default is PPMError
func WithMetric(metric ErrorMetric) Option {
	return func(m *MassCalibrator) {
		if metric != nil {
			m.metric = metric
		}
	}
}

// MassCalibrator ties together matching, bias estimation and calibration.
// It holds no mutable state, all methods can be called concurrently.
type MassCalibrator struct {
	cfg       Config
	standards *StandardsIndex
	matcher   *PeakMatcher
	metric    ErrorMetric
	logger    *slog.Logger
}

// New creates a MassCalibrator. Invalid tolerances or extraction
// parameters are reported here, not during matching.
func New(cfg Config, standards []StandardsListItem, opts ...Option) (*MassCalibrator, error) {
	if err := cfg.Extraction.Validate(); err != nil {
		return nil, err
	}
	m := &MassCalibrator{
		cfg:       cfg,
		standards: NewStandardsIndex(standards),
		metric:    PPMError{},
		logger:    discardLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	matcher, err := NewPeakMatcher(m.standards, cfg.RTTolerance, cfg.MZTolerance, m.logger)
	if err != nil {
		return nil, err
	}
	m.matcher = matcher
	return m, nil
}

// Metric returns the error metric in use
func (m *MassCalibrator) Metric() ErrorMetric {
	return m.metric
}

// Standards returns the calibrant index
func (m *MassCalibrator) Standards() *StandardsIndex {
	return m.standards
}

// FindErrors matches the peaks of one scan and computes the error of
// every match
func (m *MassCalibrator) FindErrors(peaks []DataPoint, retentionTime float64) ScanErrors {
	matches, stats := m.matcher.Match(peaks, retentionTime)
	errs := make([]float64, len(matches))
	for i, match := range matches {
		errs[i] = m.metric.Error(match.MeasuredMZ, match.MatchedMZ)
	}
	return ScanErrors{Errors: errs, Matches: matches, Stats: stats}
}

// EstimateBias estimates the bias from a pooled set of errors. If unique
// is true, duplicate errors are removed first. ErrInsufficientData is
// returned when there is nothing to estimate from.
func (m *MassCalibrator) EstimateBias(errors []float64, unique bool) (BiasEstimate, error) {
	if unique {
		errors = Unique(errors)
	}
	extracted, ranges := m.cfg.Extraction.Extract(errors)
	est := BiasEstimate{
		Errors:    len(errors),
		Extracted: extracted,
		Ranges:    ranges,
	}
	bias, err := ArithmeticMean(extracted.Items)
	if err != nil {
		return est, fmt.Errorf("estimating bias from %d errors: %w", len(errors), err)
	}
	est.Bias = bias
	m.logger.Info("bias estimated",
		"errors", len(errors),
		"extracted", len(extracted.Items),
		"unique", unique,
		"bias", bias,
	)
	return est, nil
}

// Calibrate returns a copy of peaks with the bias removed from all m/z values
func (m *MassCalibrator) Calibrate(peaks []DataPoint, bias float64) []DataPoint {
	return Calibrator{Metric: m.metric}.Calibrate(peaks, bias)
}

func workerLimit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// FindErrorsInScans runs FindErrors for all scans using up to workers
// goroutines (GOMAXPROCS if workers <= 0). It returns after all scans are
// done, with results in scan order and the summed match statistics.
func (m *MassCalibrator) FindErrorsInScans(ctx context.Context, scans []Scan,
	workers int) ([]ScanErrors, MatchStats, error) {
	results := make([]ScanErrors, len(scans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, scan := range scans {
		i, scan := i, scan
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := m.FindErrors(scan.Peaks, scan.RetentionTime)
			r.Scan = scan.Index
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, MatchStats{}, err
	}
	var stats MatchStats
	for _, r := range results {
		stats = stats.Add(r.Stats)
	}
	m.logger.Debug("scans matched",
		"scans", len(scans),
		"peaks", stats.Total,
		"matched", stats.Single,
		"ambiguous", stats.Multiple,
	)
	return results, stats, nil
}

// PoolErrors concatenates the errors of all scans
func PoolErrors(results []ScanErrors) []float64 {
	n := 0
	for _, r := range results {
		n += len(r.Errors)
	}
	pooled := make([]float64, 0, n)
	for _, r := range results {
		pooled = append(pooled, r.Errors...)
	}
	return pooled
}

// CalibrateScans calibrates all scans with the same bias, using up to
// workers goroutines. The input scans are not modified.
func (m *MassCalibrator) CalibrateScans(ctx context.Context, scans []Scan, bias float64,
	workers int) ([]Scan, error) {
	out := make([]Scan, len(scans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, scan := range scans {
		i, scan := i, scan
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Scan{
				Index:         scan.Index,
				RetentionTime: scan.RetentionTime,
				Peaks:         m.Calibrate(scan.Peaks, bias),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
