// Package config loads the calibration settings from a YAML file with
// environment-variable overrides, and converts them into the types used
// by the masscal engine.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/524D/mzcal/masscal"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned (wrapped) by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration of a calibration run.
type Config struct {
	Tolerance  ToleranceConfig  `yaml:"tolerance"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Metric     string           `yaml:"metric"`
	// Workers bounds the number of scans processed in parallel, 0 means GOMAXPROCS
	Workers int `yaml:"workers"`
	// Peaks below MinIntensity are not used for computing the bias
	MinIntensity float64 `yaml:"minIntensity"`
	// Only the MaxPeaks most intense peaks of a scan are matched, 0 means all
	MaxPeaks int `yaml:"maxPeaks"`
	// BuiltinStandards adds background ions that are found in most samples
	BuiltinStandards bool            `yaml:"builtinStandards"`
	Logging          LoggingConfig   `yaml:"logging"`
	Standards        []StandardEntry `yaml:"standards"`
}

// ToleranceConfig holds the matching windows.
type ToleranceConfig struct {
	RT RTToleranceConfig `yaml:"rt"`
	MZ MZToleranceConfig `yaml:"mz"`
}

// RTToleranceConfig is an absolute window in seconds and/or a percentage
// of the retention time.
type RTToleranceConfig struct {
	Absolute float64 `yaml:"absolute"`
	Relative float64 `yaml:"relative"`
}

// UnmarshalYAML replaces the whole window, so that a file giving only
// a relative tolerance does not inherit the default absolute one.
func (r *RTToleranceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RTToleranceConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RTToleranceConfig(p)
	return nil
}

// MZToleranceConfig is an absolute window in Da and/or a window in ppm.
type MZToleranceConfig struct {
	Absolute float64 `yaml:"absolute"`
	PPM      float64 `yaml:"ppm"`
}

// UnmarshalYAML replaces the whole window, like RTToleranceConfig
func (m *MZToleranceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain MZToleranceConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = MZToleranceConfig(p)
	return nil
}

// ExtractionConfig selects how the representative errors are extracted.
type ExtractionConfig struct {
	MaxRangeLength       float64 `yaml:"maxRangeLength"`
	DistributionDistance float64 `yaml:"distributionDistance"`
	Unique               bool    `yaml:"unique"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StandardEntry is one calibrant. A negative RT means the calibrant can
// be found at any retention time.
type StandardEntry struct {
	Name string  `yaml:"name"`
	MZ   float64 `yaml:"mz"`
	RT   float64 `yaml:"rt"`
}

// Load reads a YAML config file (if path is not empty), applies
// environment-variable overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for values missing from the file
func Default() *Config {
	return &Config{
		Tolerance: ToleranceConfig{
			RT: RTToleranceConfig{Absolute: 10},
			MZ: MZToleranceConfig{PPM: 10},
		},
		Metric: "ppm",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvOverrides reads MZCAL_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MZCAL_METRIC"); v != "" {
		cfg.Metric = v
	}
	if v := os.Getenv("MZCAL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MZCAL_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("MZCAL_MZ_PPM"); v != "" {
		ppm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MZCAL_MZ_PPM: %w", err)
		}
		cfg.Tolerance.MZ.PPM = ppm
	}
	if v := os.Getenv("MZCAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MZCAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks all values, the returned error wraps ErrInvalidConfig
// and, where applicable, the masscal error that caused it.
func (c *Config) Validate() error {
	if _, err := c.EngineConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := masscal.MetricByName(c.Metric); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative (%d)", ErrInvalidConfig, c.Workers)
	}
	if c.MaxPeaks < 0 {
		return fmt.Errorf("%w: maxPeaks must not be negative (%d)", ErrInvalidConfig, c.MaxPeaks)
	}
	if c.MinIntensity < 0 {
		return fmt.Errorf("%w: minIntensity must not be negative (%g)", ErrInvalidConfig, c.MinIntensity)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for i, s := range c.Standards {
		if !(s.MZ > 0) {
			return fmt.Errorf("%w: standard %d (%s) has invalid m/z %g",
				ErrInvalidConfig, i, s.Name, s.MZ)
		}
	}
	return nil
}

// EngineConfig converts the tolerance and extraction settings
func (c *Config) EngineConfig() (masscal.Config, error) {
	rtTol, err := masscal.NewTolerance(c.Tolerance.RT.Absolute, c.Tolerance.RT.Relative/100)
	if err != nil {
		return masscal.Config{}, fmt.Errorf("rt tolerance: %w", err)
	}
	mzTol, err := masscal.MZTolerance(c.Tolerance.MZ.Absolute, c.Tolerance.MZ.PPM)
	if err != nil {
		return masscal.Config{}, fmt.Errorf("mz tolerance: %w", err)
	}
	ext := masscal.ExtractionParams{
		MaxRangeLength:       c.Extraction.MaxRangeLength,
		DistributionDistance: c.Extraction.DistributionDistance,
	}
	if err := ext.Validate(); err != nil {
		return masscal.Config{}, err
	}
	return masscal.Config{RTTolerance: rtTol, MZTolerance: mzTol, Extraction: ext}, nil
}

// StandardsList converts the configured calibrants, followed by the
// built-in ones if enabled
func (c *Config) StandardsList() []masscal.StandardsListItem {
	entries := c.Standards
	if c.BuiltinStandards {
		entries = append(entries[:len(entries):len(entries)], BuiltinStandards()...)
	}
	items := make([]masscal.StandardsListItem, len(entries))
	for i, s := range entries {
		rt := s.RT
		if rt < 0 {
			rt = masscal.AnyRetentionTime
		}
		name := s.Name
		if name == "" {
			name = strconv.FormatFloat(s.MZ, 'f', -1, 64)
		}
		items[i] = masscal.StandardsListItem{Name: name, MZRatio: s.MZ, RetentionTime: rt}
	}
	return items
}

// NewCalibrator creates the engine for this configuration
func (c *Config) NewCalibrator(logger *slog.Logger) (*masscal.MassCalibrator, error) {
	ec, err := c.EngineConfig()
	if err != nil {
		return nil, err
	}
	metric, err := masscal.MetricByName(c.Metric)
	if err != nil {
		return nil, err
	}
	return masscal.New(ec, c.StandardsList(),
		masscal.WithMetric(metric), masscal.WithLogger(logger))
}

// NewLogger returns a logger writing to w in the configured format.
// levelShift lowers (<0) or raises (>0) the configured level by that many
// slog steps, which is how -verbose and -quiet are applied.
func (l LoggingConfig) NewLogger(w io.Writer, levelShift int) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level + slog.Level(4*levelShift)}
	var handler slog.Handler
	switch strings.ToLower(l.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
