package masscal

// Calibrator applies a bias to peak lists
type Calibrator struct {
	Metric ErrorMetric
}

// Calibrate returns a new peak list with recalibrated m/z values.
// Order and intensities are kept, the input is not modified.
func (c Calibrator) Calibrate(peaks []DataPoint, bias float64) []DataPoint {
	metric := c.Metric
	if metric == nil {
		metric = PPMError{}
	}
	out := make([]DataPoint, len(peaks))
	for i, p := range peaks {
		out[i] = DataPoint{MZ: metric.Calibrate(p.MZ, bias), Intensity: p.Intensity}
	}
	return out
}
