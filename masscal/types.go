// Package masscal corrects systematic m/z measurement bias in peak lists.
//
// Peaks are matched against a list of known calibrants within retention
// time and m/z tolerance windows. The errors of the matches are narrowed
// down to a representative range, averaged into one bias estimate, and the
// bias is applied to every m/z value of a peak list.
//
// The typical use is to call FindErrors (or FindErrorsInScans) for all
// scans of a run, pool the errors, call EstimateBias once and then
// Calibrate every scan with that single bias.
package masscal

import "errors"

// DataPoint is a single detected peak
type DataPoint struct {
	MZ        float64
	Intensity float64
}

// StandardsListItem is a calibrant with known m/z and expected retention time
type StandardsListItem struct {
	Name          string
	MZRatio       float64
	RetentionTime float64
}

// MassPeakMatch pairs a measured peak with the calibrant it was matched to
type MassPeakMatch struct {
	MeasuredMZ float64
	MeasuredRT float64
	MatchedMZ  float64
	MatchedRT  float64
	Standard   string // Name of the matched calibrant
}

// MatchStats counts the outcome of matching each peak.
// Total == Zero + Single + Multiple for every matching pass.
type MatchStats struct {
	Total    int
	Zero     int // no calibrant within tolerance
	Single   int // exactly one calibrant, used as match
	Multiple int // ambiguous, discarded
}

// Add returns the sum of two sets of counters
func (s MatchStats) Add(o MatchStats) MatchStats {
	return MatchStats{
		Total:    s.Total + o.Total,
		Zero:     s.Zero + o.Zero,
		Single:   s.Single + o.Single,
		Multiple: s.Multiple + o.Multiple,
	}
}

// Scan is one peak list with the retention time at which it was acquired
type Scan struct {
	Index         int
	RetentionTime float64
	Peaks         []DataPoint
}

// ScanErrors holds the result of matching a single scan
type ScanErrors struct {
	Scan    int
	Errors  []float64
	Matches []MassPeakMatch
	Stats   MatchStats
}

var (
	// ErrInsufficientData means there are no errors to estimate a bias from
	ErrInsufficientData = errors.New("masscal: insufficient calibration data")
	// ErrInvalidTolerance means a tolerance is negative or not a finite number
	ErrInvalidTolerance = errors.New("masscal: invalid tolerance")
	// ErrInvalidParams means the error extraction parameters are invalid
	ErrInvalidParams = errors.New("masscal: invalid extraction parameters")
	// ErrUnknownMetric means an error metric name is not known
	ErrUnknownMetric = errors.New("masscal: unknown error metric")
)
