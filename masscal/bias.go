package masscal

import "gonum.org/v1/gonum/stat"

// ArithmeticMean estimates the bias as the mean of the errors.
// The mean of no errors is undefined, so ErrInsufficientData is returned
// instead of a number.
func ArithmeticMean(errors []float64) (float64, error) {
	if len(errors) == 0 {
		return 0, ErrInsufficientData
	}
	return stat.Mean(errors, nil), nil
}

// Unique returns the errors with duplicates removed, keeping the order of
// first occurrence
func Unique(errors []float64) []float64 {
	seen := make(map[float64]struct{}, len(errors))
	out := make([]float64, 0, len(errors))
	for _, e := range errors {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// BiasEstimate is the result of estimating the bias from a set of errors
type BiasEstimate struct {
	Bias      float64
	Errors    int // number of errors after optional de-duplication
	Extracted DistributionRange
	Ranges    map[string]DistributionRange
}
