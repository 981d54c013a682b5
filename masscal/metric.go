package masscal

import (
	"fmt"
	"math"
	"strings"
)

// ErrorMetric computes a signed measurement error and applies a bias
// correction. Calibrate is the inverse of Error:
// Error(Calibrate(m, b), r) ~= Error(m, r) - b
type ErrorMetric interface {
	Name() string
	Error(measured, reference float64) float64
	Calibrate(value, bias float64) float64
}

// PPMError is the relative error in parts per million
type PPMError struct{}

func (PPMError) Name() string { return "ppm" }

func (PPMError) Error(measured, reference float64) float64 {
	return (measured - reference) / reference * 1e6
}

// Calibrate removes a ppm bias. The correction is exact for the
// reference of a match with error == bias.
func (PPMError) Calibrate(value, bias float64) float64 {
	return value / (1 + bias/1e6)
}

// AbsoluteError is the error in Da
type AbsoluteError struct{}

func (AbsoluteError) Name() string { return "absolute" }

func (AbsoluteError) Error(measured, reference float64) float64 {
	return measured - reference
}

func (AbsoluteError) Calibrate(value, bias float64) float64 {
	return value - bias
}

// LogError is the natural logarithm of the ratio measured/reference
type LogError struct{}

func (LogError) Name() string { return "log" }

func (LogError) Error(measured, reference float64) float64 {
	return math.Log(measured / reference)
}

func (LogError) Calibrate(value, bias float64) float64 {
	return value * math.Exp(-bias)
}

// MetricByName returns the built-in metric with the given name
func MetricByName(name string) (ErrorMetric, error) {
	switch strings.ToLower(name) {
	case ``, `ppm`:
		return PPMError{}, nil
	case `absolute`, `da`:
		return AbsoluteError{}, nil
	case `log`:
		return LogError{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}
