package masscal

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Labels under which extracted ranges are reported
const (
	LabelWholeRange        = "Whole range"
	LabelMostPopulated     = "Most populated range"
	LabelToleranceExtend   = "Tolerance extended range"
	LabelBiggestByDistance = "Biggest range by tolerance"
)

// DistributionRange is an interval over errors together with the
// errors (in input order) that fall inside it
type DistributionRange struct {
	Lower float64
	Upper float64
	Items []float64
}

// Empty reports whether no errors were extracted
func (d DistributionRange) Empty() bool {
	return len(d.Items) == 0
}

// Extractor selects the errors that represent the systematic bias
type Extractor interface {
	Extract(errors []float64) DistributionRange
	Label() string
}

// collect returns the range [lo, hi] with all errors inside it
func collect(errors []float64, lo, hi float64) DistributionRange {
	d := DistributionRange{Lower: lo, Upper: hi, Items: make([]float64, 0, len(errors))}
	for _, e := range errors {
		if e >= lo && e <= hi {
			d.Items = append(d.Items, e)
		}
	}
	return d
}

func sortedCopy(errors []float64) []float64 {
	s := make([]float64, len(errors))
	copy(s, errors)
	sort.Float64s(s)
	return s
}

// WholeRange extracts all errors
type WholeRange struct{}

func (WholeRange) Label() string { return LabelWholeRange }

func (WholeRange) Extract(errors []float64) DistributionRange {
	if len(errors) == 0 {
		return DistributionRange{Items: []float64{}}
	}
	items := make([]float64, len(errors))
	copy(items, errors)
	return DistributionRange{Lower: floats.Min(errors), Upper: floats.Max(errors), Items: items}
}

// FixedLengthRange extracts the errors in the interval of length Length
// that holds the most errors. Candidate intervals start at an error value;
// of equally populated intervals the one with the lowest lower bound wins.
type FixedLengthRange struct {
	Length float64
}

func (FixedLengthRange) Label() string { return LabelMostPopulated }

func (f FixedLengthRange) Extract(errors []float64) DistributionRange {
	if len(errors) == 0 {
		return DistributionRange{Items: []float64{}}
	}
	s := sortedCopy(errors)
	best, bestCount := 0, 0
	j := 0
	for i := range s {
		if j < i {
			j = i
		}
		for j < len(s) && s[j] <= s[i]+f.Length {
			j++
		}
		// Strictly greater keeps the lowest start on ties
		if j-i > bestCount {
			best, bestCount = i, j-i
		}
	}
	return collect(errors, s[best], s[best]+f.Length)
}

// ToleranceExtendedRange takes the FixedLengthRange and grows it by
// Distance on both sides, so that errors just outside the densest
// interval are also extracted
type ToleranceExtendedRange struct {
	Length   float64
	Distance float64
}

func (ToleranceExtendedRange) Label() string { return LabelToleranceExtend }

func (t ToleranceExtendedRange) Extract(errors []float64) DistributionRange {
	r := FixedLengthRange{Length: t.Length}.Extract(errors)
	return ExtendRange(r, errors, t.Distance)
}

// ExtendRange grows r by distance on both sides and collects the errors
// inside the grown interval
func ExtendRange(r DistributionRange, errors []float64, distance float64) DistributionRange {
	if r.Empty() {
		return r
	}
	return collect(errors, r.Lower-distance, r.Upper+distance)
}

// MostPopulatedCluster splits the sorted errors wherever two neighbours
// are more than Distance apart, and extracts the biggest cluster.
// Of equally sized clusters the lowest one wins.
type MostPopulatedCluster struct {
	Distance float64
}

func (MostPopulatedCluster) Label() string { return LabelBiggestByDistance }

func (m MostPopulatedCluster) Extract(errors []float64) DistributionRange {
	if len(errors) == 0 {
		return DistributionRange{Items: []float64{}}
	}
	s := sortedCopy(errors)
	bestStart, bestEnd := 0, 0 // bestEnd inclusive
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || s[i]-s[i-1] > m.Distance {
			if i-1-start > bestEnd-bestStart {
				bestStart, bestEnd = start, i-1
			}
			start = i
		}
	}
	return collect(errors, s[bestStart], s[bestEnd])
}

// ExtractionParams selects the extraction strategy:
//   - MaxRangeLength != 0: FixedLengthRange, extended by DistributionDistance
//     if that is != 0
//   - else DistributionDistance != 0: MostPopulatedCluster
//   - else WholeRange
type ExtractionParams struct {
	MaxRangeLength       float64
	DistributionDistance float64
}

// Validate returns ErrInvalidParams for negative or non-finite values
func (p ExtractionParams) Validate() error {
	for _, v := range []float64{p.MaxRangeLength, p.DistributionDistance} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: maxRangeLength=%g distributionDistance=%g",
				ErrInvalidParams, p.MaxRangeLength, p.DistributionDistance)
		}
	}
	return nil
}

// Extract applies the selected strategy. It returns the range to estimate
// the bias from, and all ranges computed on the way keyed by label.
func (p ExtractionParams) Extract(errors []float64) (DistributionRange, map[string]DistributionRange) {
	ranges := make(map[string]DistributionRange, 2)
	switch {
	case p.MaxRangeLength != 0:
		r := FixedLengthRange{Length: p.MaxRangeLength}.Extract(errors)
		ranges[LabelMostPopulated] = r
		if p.DistributionDistance != 0 {
			ext := ExtendRange(r, errors, p.DistributionDistance)
			ranges[LabelToleranceExtend] = ext
			return ext, ranges
		}
		return r, ranges
	case p.DistributionDistance != 0:
		r := MostPopulatedCluster{Distance: p.DistributionDistance}.Extract(errors)
		ranges[LabelBiggestByDistance] = r
		return r, ranges
	}
	r := WholeRange{}.Extract(errors)
	ranges[LabelWholeRange] = r
	return r, ranges
}

// Extractor returns the strategy that Extract applies
func (p ExtractionParams) Extractor() Extractor {
	switch {
	case p.MaxRangeLength != 0 && p.DistributionDistance != 0:
		return ToleranceExtendedRange{Length: p.MaxRangeLength, Distance: p.DistributionDistance}
	case p.MaxRangeLength != 0:
		return FixedLengthRange{Length: p.MaxRangeLength}
	case p.DistributionDistance != 0:
		return MostPopulatedCluster{Distance: p.DistributionDistance}
	}
	return WholeRange{}
}
