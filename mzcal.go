// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/524D/mzcal/internal/config"
	"github.com/524D/mzcal/internal/history"
	"github.com/524D/mzcal/internal/metrics"
	"github.com/524D/mzcal/internal/mzml"
	"github.com/524D/mzcal/masscal"

	"github.com/dustin/go-humanize"
)

// Program name and version, appended to software list in mzML output
const progName = "mzcal"

var progVersion = `Unknown`

// Format of the calibration file, if it ever changes we should still be
// able to parse output from old versions
const outputFormatVersion = "1.0"

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters
type params struct {
	stage             *int // Compute bias (1), recalibrate (2) or both (0)
	mzMLFilename      string
	mzMLRecalFilename *string
	calFilename       *string // JSON calibration file, written in stage 1 and read in stage 2
	configFilename    *string
	specFilter        *string // Range of spectra to use and recalibrate
	minSpecIdx        int
	maxSpecIdx        int
	rtRange           *string // Retention time range of MS1 spectra used for computing the bias
	minRT             float64
	maxRT             float64
	unique            *bool
	fallbackZero      *bool // Use bias 0 when there are no matches
	acceptProfile     *bool // Accept non-peak picked profile spectra
	metricsFilename   *string
	historyFilename   *string
	verbosity         int
	debug             bool // Add per-spectrum info to the JSON file (MZCAL_DEBUG=1)
	args              []string
}

// rangeSummary describes one extracted error range
type rangeSummary struct {
	Lower float64
	Upper float64
	Count int
}

type specDebugInfo struct {
	SpecIndex        int
	RetentionTime    float64
	Peaks            int
	Matched          int
	Ambiguous        int
	TotalIonCurrent  float64 `json:",omitempty"`
	IonInjectionTime float64 `json:",omitempty"`
}

// calParams is the content of the JSON calibration file
type calParams struct {
	// Version of the file format
	MzCalVersion string
	Metric       string
	Bias         float64
	Fallback     bool `json:",omitempty"` // Bias could not be estimated, 0 is used
	Unique       bool
	Errors       int // Number of errors (after removing duplicates if Unique)
	Extracted    int // Number of errors the bias was computed from
	Stats        masscal.MatchStats
	Ranges       map[string]rangeSummary
	RunID        string          `json:",omitempty"`
	DebugInfo    []specDebugInfo `json:",omitempty"`
}

var ErrRangeSpec = errors.New("invalid range specified")

var errNoMS1 = errors.New("no MS1 spectra found, calibration not possible")

// Data processing steps to be added to mzML file
var mzCalProcessing = mzml.DataProcessing{
	ID: progName,
	ProcessingMeth: []mzml.ProcessingMethod{
		{
			Count:       0,
			SoftwareRef: progName,
			CvPar: []mzml.CVParam{
				{
					Accession: `MS:1001485`,
					Name:      `m/z calibration`,
				},
			},
		},
		{
			Count:       1,
			SoftwareRef: progName,
			CvPar: []mzml.CVParam{
				{
					Accession: `MS:1000780`,
					Name:      `precursor recalculation`,
				},
			},
		},
	},
}

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	re := regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Return a slice with only the peaks that we want to base the calibration on:
// the maxPeaks most intense ones, and none below minIntensity.
// The m/z order of the input is kept.
func filterPeaks(peaks []masscal.DataPoint, minIntensity float64, maxPeaks int) []masscal.DataPoint {
	peaksNew := make([]masscal.DataPoint, 0, len(peaks))
	for _, p := range peaks {
		if p.Intensity >= minIntensity {
			peaksNew = append(peaksNew, p)
		}
	}
	if maxPeaks > 0 && len(peaksNew) > maxPeaks {
		order := make([]int, len(peaksNew))
		for i := range order {
			order[i] = i
		}
		// sort by intensity, so the most intense peaks are at the front
		sort.SliceStable(order,
			func(i, j int) bool { return peaksNew[order[i]].Intensity > peaksNew[order[j]].Intensity })
		order = order[:maxPeaks]
		sort.Ints(order)
		top := make([]masscal.DataPoint, maxPeaks)
		for i, k := range order {
			top[i] = peaksNew[k]
		}
		peaksNew = top
	}
	return peaksNew
}

// lastSpecIdx returns the highest spectrum index within the filter
func lastSpecIdx(mzML *mzml.File, par params) int {
	return min(par.maxSpecIdx, mzML.NumSpecs()-1)
}

// ms1Scans collects the MS1 spectra that are used to compute the bias
func ms1Scans(mzML *mzml.File, par params, cfg *config.Config, logger *slog.Logger) ([]masscal.Scan, error) {
	var scans []masscal.Scan
	warnProfile := true
	for i := par.minSpecIdx; i <= lastSpecIdx(mzML, par); i++ {
		msLevel, err := mzML.MSLevel(i)
		if err != nil {
			return nil, err
		}
		if msLevel != 1 {
			continue
		}
		centroid, err := mzML.Centroid(i)
		if err != nil {
			return nil, err
		}
		if !centroid {
			// (unless overruled by option acceptprofile)
			if !*par.acceptProfile {
				return nil, errors.New(`input mzML file must contain centroid data, not profile data`)
			} else if warnProfile {
				logger.Warn("input contains non-peak picked (profile) spectra")
				warnProfile = false
			}
		}
		scan, err := mzML.Scan(i)
		if err != nil {
			return nil, err
		}
		if scan.RetentionTime < par.minRT || scan.RetentionTime > par.maxRT {
			continue
		}
		scan.Peaks = filterPeaks(scan.Peaks, cfg.MinIntensity, cfg.MaxPeaks)
		scans = append(scans, scan)
	}
	if len(scans) == 0 {
		return nil, errNoMS1
	}
	return scans, nil
}

// computeCal matches the MS1 spectra against the calibrants and estimates
// the bias of the whole file
func computeCal(ctx context.Context, mzML *mzml.File, par params, cfg *config.Config,
	mc *masscal.MassCalibrator, logger *slog.Logger) (calParams, masscal.BiasEstimate, []masscal.ScanErrors, error) {
	cal := calParams{
		MzCalVersion: outputFormatVersion,
		Metric:       mc.Metric().Name(),
		Unique:       *par.unique || cfg.Extraction.Unique,
	}
	scans, err := ms1Scans(mzML, par, cfg, logger)
	if err != nil {
		return cal, masscal.BiasEstimate{}, nil, err
	}
	results, stats, err := mc.FindErrorsInScans(ctx, scans, cfg.Workers)
	if err != nil {
		return cal, masscal.BiasEstimate{}, nil, err
	}
	cal.Stats = stats

	est, err := mc.EstimateBias(masscal.PoolErrors(results), cal.Unique)
	if err != nil {
		if !errors.Is(err, masscal.ErrInsufficientData) || !*par.fallbackZero {
			return cal, est, results, err
		}
		logger.Warn("no calibrants matched, using bias 0", "error", err)
		est.Bias = 0
		cal.Fallback = true
	}
	cal.Bias = est.Bias
	cal.Errors = est.Errors
	cal.Extracted = len(est.Extracted.Items)
	cal.Ranges = make(map[string]rangeSummary, len(est.Ranges))
	for label, r := range est.Ranges {
		cal.Ranges[label] = rangeSummary{Lower: r.Lower, Upper: r.Upper, Count: len(r.Items)}
	}

	if par.debug {
		for i, r := range results {
			info := specDebugInfo{
				SpecIndex:     r.Scan,
				RetentionTime: scans[i].RetentionTime,
				Peaks:         r.Stats.Total,
				Matched:       r.Stats.Single,
				Ambiguous:     r.Stats.Multiple,
			}
			// NaN can't be written as JSON
			if tic, err := mzML.TotalIonCurrent(r.Scan); err == nil && !math.IsNaN(tic) {
				info.TotalIonCurrent = tic
			}
			if iit, err := mzML.IonInjectionTime(r.Scan); err == nil && !math.IsNaN(iit) {
				info.IonInjectionTime = iit
			}
			cal.DebugInfo = append(cal.DebugInfo, info)
		}
	}
	return cal, est, results, nil
}

// applyCal recalibrates the peaks of all spectra in the spectrum filter
// and the precursor m/z of MS2 spectra. It returns the number of spectra
// and precursors that were updated.
func applyCal(ctx context.Context, mzML *mzml.File, cal calParams, par params,
	cfg *config.Config, logger *slog.Logger) (int, int, error) {
	metric, err := masscal.MetricByName(cal.Metric)
	if err != nil {
		return 0, 0, err
	}
	calibrator := masscal.Calibrator{Metric: metric}

	var scans []masscal.Scan
	for i := par.minSpecIdx; i <= lastSpecIdx(mzML, par); i++ {
		peaks, err := mzML.Peaks(i)
		if err != nil {
			return 0, 0, err
		}
		scans = append(scans, masscal.Scan{Index: i, Peaks: peaks})
	}
	mc, err := masscal.New(masscal.Config{}, nil,
		masscal.WithMetric(metric), masscal.WithLogger(logger))
	if err != nil {
		return 0, 0, err
	}
	calibrated, err := mc.CalibrateScans(ctx, scans, cal.Bias, cfg.Workers)
	if err != nil {
		return 0, 0, err
	}
	for _, scan := range calibrated {
		if err := mzML.UpdatePeaks(scan.Index, scan.Peaks, true, false); err != nil {
			return 0, 0, err
		}
	}

	var precursorsUpdated int
	for i := par.minSpecIdx; i <= lastSpecIdx(mzML, par); i++ {
		msLevel, err := mzML.MSLevel(i)
		if err != nil {
			return 0, 0, err
		}
		if msLevel != 2 {
			continue
		}
		n, err := mzML.CalibratePrecursors(i, func(mz float64) float64 {
			mzNew := calibrator.Calibrate([]masscal.DataPoint{{MZ: mz}}, cal.Bias)[0].MZ
			debugLogPrecursorUpdate(os.Stdout, *debugSpecs, i, mzML.NumSpecs(), mz, mzNew)
			return mzNew
		})
		if err != nil {
			return 0, 0, err
		}
		precursorsUpdated += n
	}

	mzML.AppendSoftwareInfo(progName, progVersion)
	mzML.AppendDataProcessing(mzCalProcessing)
	return len(calibrated), precursorsUpdated, nil
}

func writeCal(cal calParams, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	e := json.NewEncoder(f)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	if err := e.Encode(cal); err != nil {
		return err
	}
	return f.Close()
}

func readCal(filename string) (calParams, error) {
	var cal calParams
	f, err := os.Open(filename)
	if err != nil {
		return cal, err
	}
	defer f.Close()

	d := json.NewDecoder(f)
	err = d.Decode(&cal)
	return cal, err
}

func readMzML(filename string) (*mzml.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mzml.Read(f)
}

// writeMzML writes the recalibrated file and returns its size
func writeMzML(mzML *mzml.File, filename string) (int64, error) {
	f, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := mzML.Write(f); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), f.Close()
}

// stageTimer prints progress with timings in verbose mode, and records
// the stage durations as metrics
type stageTimer struct {
	verbosity int
	metrics   *metrics.Metrics
	name      string
	start     time.Time
}

func (s *stageTimer) begin(name, msg string) {
	s.name = name
	s.start = time.Now()
	if s.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s: ", msg)
	}
}

func (s *stageTimer) end() {
	d := time.Since(s.start)
	if s.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", d)
	}
	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues(s.name).Set(d.Seconds())
	}
}

// makeCal glues together the steps to compute the bias:
// Read mzML file
// Match MS1 spectra to calibrants and estimate the bias
// Write the calibration file
func makeCal(ctx context.Context, par params, cfg *config.Config, logger *slog.Logger,
	m *metrics.Metrics, store *history.Store) (*mzml.File, calParams) {
	t := stageTimer{verbosity: par.verbosity, metrics: m}

	t.begin("read", "Reading MS data from "+par.mzMLFilename)
	mzML, err := readMzML(par.mzMLFilename)
	if err != nil {
		log.Fatalf("reading %s: %v", par.mzMLFilename, err)
	}
	t.end()

	mc, err := cfg.NewCalibrator(logger)
	if err != nil {
		log.Fatalf("creating calibrator: %v", err)
	}

	t.begin("compute", "Computing bias")
	cal, est, results, err := computeCal(ctx, mzML, par, cfg, mc, logger)
	if err != nil {
		log.Fatalf("computing bias: %v", err)
	}
	t.end()

	if *debugSpecs != `` {
		debugLogSpecs(os.Stdout, *debugSpecs, mzML.NumSpecs(), results, mc.Metric(), cal.Bias)
		debugListUnusedCalibrants(os.Stdout, mc.Standards(), results)
	}

	if m != nil {
		m.ObserveMatches(cal.Stats)
		m.ObserveBias(est)
	}
	if store != nil {
		run := history.NewRun(par.mzMLFilename, cal.Metric, est, cal.Stats)
		run.Fallback = cal.Fallback
		if err := store.Record(ctx, &run); err != nil {
			logger.Error("recording run", "error", err)
		} else {
			cal.RunID = run.ID
		}
	}

	t.begin("write-cal", "Writing calibration file")
	if err := writeCal(cal, *par.calFilename); err != nil {
		log.Fatalf("writing %s: %v", *par.calFilename, err)
	}
	t.end()

	if par.verbosity != infoSilent {
		fmt.Fprintf(os.Stderr, "Peaks: %s matched: %s ambiguous: %s bias: %.4f %s (from %s errors)\n",
			humanize.Comma(int64(cal.Stats.Total)),
			humanize.Comma(int64(cal.Stats.Single)),
			humanize.Comma(int64(cal.Stats.Multiple)),
			cal.Bias, cal.Metric,
			humanize.Comma(int64(cal.Extracted)))
	}
	return mzML, cal
}

// calibMzML recalibrates an mzML file and writes the result
func calibMzML(ctx context.Context, par params, cfg *config.Config, logger *slog.Logger,
	m *metrics.Metrics, mzML *mzml.File, cal calParams) {
	t := stageTimer{verbosity: par.verbosity, metrics: m}

	t.begin("calibrate", "Recalibrating spectra")
	spectra, precursors, err := applyCal(ctx, mzML, cal, par, cfg, logger)
	if err != nil {
		log.Fatalf("recalibrating: %v", err)
	}
	t.end()
	if m != nil {
		m.SpectraCalibrated.Add(float64(spectra))
		m.PrecursorsUpdated.Add(float64(precursors))
	}

	t.begin("write-mzml", "Writing MS data")
	size, err := writeMzML(mzML, *par.mzMLRecalFilename)
	if err != nil {
		log.Fatalf("writing %s: %v", *par.mzMLRecalFilename, err)
	}
	t.end()

	if par.verbosity != infoSilent {
		fmt.Fprintf(os.Stderr, "Spectra: %s updated precursors: %s written: %s (%s)\n",
			humanize.Comma(int64(spectra)), humanize.Comma(int64(precursors)),
			*par.mzMLRecalFilename, humanize.Bytes(uint64(size)))
	}
}

// doRecal reads the mzML file and a previously written calibration file,
// and writes the recalibrated mzML file
func doRecal(ctx context.Context, par params, cfg *config.Config, logger *slog.Logger,
	m *metrics.Metrics) {
	mzML, err := readMzML(par.mzMLFilename)
	if err != nil {
		log.Fatalf("reading %s: %v", par.mzMLFilename, err)
	}
	cal, err := readCal(*par.calFilename)
	if err != nil {
		log.Fatalf("reading %s: %v", *par.calFilename, err)
	}
	calibMzML(ctx, par, cfg, logger, m, mzML, cal)
}

// sanitizeParams checks the parameters, and fills missing
// filenames if possible
func sanitizeParams(par *params) error {
	if len(par.args) != 1 {
		return errors.New(`last argument must be name of mzML file`)
	}

	par.mzMLFilename = par.args[0]
	var extension = filepath.Ext(par.mzMLFilename)
	var startName = par.mzMLFilename[0 : len(par.mzMLFilename)-len(extension)]

	if *par.calFilename == "" {
		*par.calFilename = startName + "-recal.json"
	}
	if *par.mzMLRecalFilename == "" {
		*par.mzMLRecalFilename = startName + "-recal.mzML"
	}

	var err error
	par.minSpecIdx, par.maxSpecIdx, err = parseIntRange(*par.specFilter,
		0, math.MaxInt32)
	if err != nil {
		return fmt.Errorf(`invalid value for parameter 'specfilter': %w`, err)
	}
	par.minRT, par.maxRT, err = parseFloat64Range(*par.rtRange,
		-math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return fmt.Errorf(`invalid value for parameter 'rtrange': %w`, err)
	}
	if *par.stage < 0 || *par.stage > 2 {
		return fmt.Errorf(`invalid stage %d`, *par.stage)
	}
	return nil
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s [options] <mzMLfile>

  This program corrects the systematic m/z error of an mzML file, using
  calibrants listed in a configuration file.

OPTIONS:
`, exeName)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr,
		`
CONFIGURATION:
  The YAML configuration file holds the tolerances, the error extraction
  parameters and the list of calibrants. A calibrant with a negative rt
  is used at all retention times. Example:

    tolerance:
      rt: {absolute: 30}
      mz: {ppm: 5}
    extraction: {maxRangeLength: 2, distributionDistance: 0.5}
    metric: ppm
    builtinStandards: true
    standards:
      - {name: LVNELTEFAK, mz: 582.319, rt: 1830}

  When enabled, the following built-in calibrants are added (m/z of the
  singly charged ion):
`)
	for _, s := range config.BuiltinStandards() {
		fmt.Fprintf(os.Stderr, "     %s (%f)\n", s.Name, s.MZ)
	}
	fmt.Fprintf(os.Stderr,
		`
ENVIRONMENT VARIABLES:
    MZCAL_METRIC, MZCAL_WORKERS, MZCAL_MZ_PPM, MZCAL_LOG_LEVEL and
    MZCAL_LOG_FORMAT override the configuration file.
    When MZCAL_DEBUG=1, per-spectrum information is added to the JSON file.

USAGE EXAMPLES:
  %s -config cal.yaml yeast.mzML
    Recalibrate yeast.mzML, write the result to yeast-recal.mzML and the
    bias to yeast-recal.json.

  %s -stage 1 -config cal.yaml -history runs.sqlite3 yeast.mzML
    Only compute the bias, and keep a record of the run.
`, exeName, exeName)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	var par params

	par.stage = flag.Int("stage", 0,
		`0 (default): do all calibration stages in one run
1: only compute the bias
2: recalibrate using a previously computed bias`)
	par.configFilename = flag.String("config", "",
		"YAML configuration `filename`")
	par.mzMLRecalFilename = flag.String("o", "",
		"`filename` of recalibrated mzML")
	par.calFilename = flag.String("cal", "",
		"`filename` for output of the computed bias")
	par.specFilter = flag.String("specfilter", "",
		"`range`"+` of spectrum indices to calibrate (e.g. 1000:2000).
Default is all spectra`)
	par.rtRange = flag.String("rtrange", "",
		"retention time `range`"+` (seconds) of MS1 spectra used to compute the bias`)
	par.unique = flag.Bool("unique", false,
		`remove duplicate errors before estimating the bias
(same as "unique" in the extraction section of the configuration)`)
	par.fallbackZero = flag.Bool("fallback-zero", false,
		`use bias 0 instead of failing when no calibrant is matched`)
	par.acceptProfile = flag.Bool("acceptprofile", false,
		`Accept non-peak picked (profile) input.
The default of "minIntensity" is then set to 10000 and "maxPeaks" to 0`)
	par.metricsFilename = flag.String("metrics-file", "",
		"write Prometheus metrics to this textfile `path`")
	par.historyFilename = flag.String("history", "",
		"record the run in this SQLite `database`")
	version := flag.Bool("version", false,
		`Show software version`)
	verbose := flag.Bool("verbose", false,
		`Print more verbose progress information`)
	quiet := flag.Bool("quiet", false,
		`Don't print any output except for errors`)
	flag.Usage = usage
	flag.Parse()
	if *version {
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
		return
	}
	levelShift := 0
	if *verbose {
		par.verbosity = infoVerbose
		levelShift = -1
	}
	if *quiet {
		par.verbosity = infoSilent
		levelShift = 2
	}
	par.args = flag.Args()
	par.debug = os.Getenv("MZCAL_DEBUG") == `1`

	if err := sanitizeParams(&par); err != nil {
		fmt.Fprintf(os.Stderr, "%v\nType %s --help for usage\n", err, filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load(*par.configFilename)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if *par.acceptProfile {
		cfg.MaxPeaks = 0
		if cfg.MinIntensity == 0 {
			cfg.MinIntensity = 10000
		}
	}
	logger := cfg.Logging.NewLogger(os.Stderr, levelShift)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var m *metrics.Metrics
	if *par.metricsFilename != "" {
		m = metrics.New()
	}
	var store *history.Store
	if *par.historyFilename != "" {
		store, err = history.Open(*par.historyFilename)
		if err != nil {
			log.Fatalf("opening history: %v", err)
		}
		defer store.Close()
	}

	switch *par.stage {
	case 1:
		makeCal(ctx, par, cfg, logger, m, store)
	case 2:
		doRecal(ctx, par, cfg, logger, m)
	default:
		mzML, cal := makeCal(ctx, par, cfg, logger, m, store)
		calibMzML(ctx, par, cfg, logger, m, mzML, cal)
	}

	if m != nil {
		if err := m.WriteToTextfile(*par.metricsFilename); err != nil {
			logger.Error("writing metrics", "file", *par.metricsFilename, "error", err)
		}
	}
}
