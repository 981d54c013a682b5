package masscal

import "log/slog"

// PeakMatcher matches the peaks of a scan with calibrants
type PeakMatcher struct {
	standards *StandardsIndex
	rtTol     Tolerance
	mzTol     Tolerance
	logger    *slog.Logger
}

// NewPeakMatcher returns a matcher, the tolerances must be valid
func NewPeakMatcher(standards *StandardsIndex, rtTol, mzTol Tolerance,
	logger *slog.Logger) (*PeakMatcher, error) {
	if err := rtTol.Validate(); err != nil {
		return nil, err
	}
	if err := mzTol.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = discardLogger
	}
	return &PeakMatcher{
		standards: standards,
		rtTol:     rtTol,
		mzTol:     mzTol,
		logger:    logger,
	}, nil
}

// Match pairs each peak with at most one calibrant.
// A peak with more than one calibrant within tolerance could belong to
// different ions with different errors, so it is never matched.
// Matches are returned in peak order.
func (pm *PeakMatcher) Match(peaks []DataPoint, retentionTime float64) (
	[]MassPeakMatch, MatchStats) {
	var stats MatchStats
	matches := make([]MassPeakMatch, 0, len(peaks))

	rtRange := pm.rtTol.Window(retentionTime)
	rtFiltered := pm.standards.rtCandidates(rtRange)

	for _, p := range peaks {
		mzRange := pm.mzTol.Window(p.MZ)
		candidates := rtFiltered.InRanges(&mzRange, nil)
		stats.Total++

		switch candidates.Len() {
		case 0:
			stats.Zero++
		case 1:
			stats.Single++
			cal := candidates.items[0]
			matches = append(matches, MassPeakMatch{
				MeasuredMZ: p.MZ,
				MeasuredRT: retentionTime,
				MatchedMZ:  cal.MZRatio,
				MatchedRT:  cal.RetentionTime,
				Standard:   cal.Name,
			})
		default:
			stats.Multiple++
			pm.logger.Debug("ambiguous peak discarded",
				"mz", p.MZ, "rt", retentionTime, "candidates", candidates.Len())
		}
	}
	return matches, stats
}
