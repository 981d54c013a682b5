// Package metrics defines the Prometheus collectors of a calibration run
// and writes them to a node-exporter textfile.
package metrics

import (
	"github.com/524D/mzcal/masscal"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors of a run. Each Metrics has its
// own registry, so several runs in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	PeaksTotal        *prometheus.CounterVec
	Bias              prometheus.Gauge
	ErrorsPooled      prometheus.Gauge
	ErrorsExtracted   prometheus.Gauge
	SpectraCalibrated prometheus.Counter
	PrecursorsUpdated prometheus.Counter
	StageDuration     *prometheus.GaugeVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PeaksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mzcal_peaks_total",
				Help: "Peaks considered for matching by outcome (zero, single, multiple).",
			},
			[]string{"outcome"},
		),
		Bias: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mzcal_bias",
				Help: "Estimated systematic m/z error, in units of the error metric.",
			},
		),
		ErrorsPooled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mzcal_errors_pooled",
				Help: "Number of errors the bias was estimated from, before extraction.",
			},
		),
		ErrorsExtracted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mzcal_errors_extracted",
				Help: "Number of errors in the extracted range.",
			},
		),
		SpectraCalibrated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mzcal_spectra_calibrated_total",
				Help: "Spectra written with recalibrated peaks.",
			},
		),
		PrecursorsUpdated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mzcal_precursors_updated_total",
				Help: "Selected ion m/z values recalibrated.",
			},
		),
		StageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mzcal_stage_duration_seconds",
				Help: "Wall time per processing stage.",
			},
			[]string{"stage"},
		),
	}
	m.registry.MustRegister(
		m.PeaksTotal,
		m.Bias,
		m.ErrorsPooled,
		m.ErrorsExtracted,
		m.SpectraCalibrated,
		m.PrecursorsUpdated,
		m.StageDuration,
	)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMatches adds the outcome counters of a matching pass
func (m *Metrics) ObserveMatches(stats masscal.MatchStats) {
	m.PeaksTotal.WithLabelValues("zero").Add(float64(stats.Zero))
	m.PeaksTotal.WithLabelValues("single").Add(float64(stats.Single))
	m.PeaksTotal.WithLabelValues("multiple").Add(float64(stats.Multiple))
}

// ObserveBias records the result of a bias estimation
func (m *Metrics) ObserveBias(est masscal.BiasEstimate) {
	m.Bias.Set(est.Bias)
	m.ErrorsPooled.Set(float64(est.Errors))
	m.ErrorsExtracted.Set(float64(len(est.Extracted.Items)))
}

// WriteToTextfile writes all metrics in the text exposition format, for
// the node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
