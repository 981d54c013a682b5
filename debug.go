// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/524D/mzcal/masscal"
)

var debugSpecs *string // Print debug output for given spectrum range

func init() {
	debugSpecs = flag.String("debug", "",
		"Print debug output for given spectrum `range` e.g. 3:6")
}

// debugLogSpecs prints the matches of each spectrum in the debug range,
// with the error before and after recalibration
func debugLogSpecs(w io.Writer, specRange string, numSpecs int,
	results []masscal.ScanErrors, metric masscal.ErrorMetric, bias float64) {
	if specRange == `` {
		return
	}
	debugMin, debugMax, _ := parseIntRange(specRange, 0, numSpecs)
	for _, r := range results {
		if r.Scan < debugMin || r.Scan > debugMax {
			continue
		}
		fmt.Fprintf(w, "Spectrum:%d peaks:%d matched:%d ambiguous:%d\n",
			r.Scan, r.Stats.Total, r.Stats.Single, r.Stats.Multiple)
		var errSum float64
		for j, m := range r.Matches {
			mzRecal := metric.Calibrate(m.MeasuredMZ, bias)
			errRecal := metric.Error(mzRecal, m.MatchedMZ)
			errSum += errRecal
			fmt.Fprintf(w, "%d mzMeas:%f rt:%f cal:%s mzCalc:%f rtCalc:%f err:%0.4f mzRecal:%f errRecal:%0.4f\n",
				j, m.MeasuredMZ, m.MeasuredRT, m.Standard, m.MatchedMZ, m.MatchedRT,
				r.Errors[j], mzRecal, errRecal)
		}
		if len(r.Matches) > 0 {
			fmt.Fprintf(w, "Mean error after recalibration: %0.4f %s\n",
				errSum/float64(len(r.Matches)), metric.Name())
		}
	}
}

func debugLogPrecursorUpdate(w io.Writer, specRange string, i int, numSpecs int,
	mzOrig float64, mzNew float64) {
	if specRange == `` {
		return
	}
	debugMin, debugMax, _ := parseIntRange(specRange, 0, numSpecs)
	if i >= debugMin && i <= debugMax {
		fmt.Fprintf(w, "Spec %d precursor changed from %f to %f (%f)\n",
			i, mzOrig, mzNew, mzOrig-mzNew)
	}
}

// unusedCalibrants returns the calibrants that were not matched in any spectrum
func unusedCalibrants(standards *masscal.StandardsIndex,
	results []masscal.ScanErrors) []masscal.StandardsListItem {
	used := make(map[masscal.StandardsListItem]bool)
	for _, r := range results {
		for _, m := range r.Matches {
			used[masscal.StandardsListItem{
				Name:          m.Standard,
				MZRatio:       m.MatchedMZ,
				RetentionTime: m.MatchedRT,
			}] = true
		}
	}
	var unused []masscal.StandardsListItem
	for _, s := range standards.Items() {
		if !used[s] {
			unused = append(unused, s)
		}
	}
	return unused
}

func debugListUnusedCalibrants(w io.Writer, standards *masscal.StandardsIndex,
	results []masscal.ScanErrors) {
	fmt.Fprintf(w, "Unused calibrants\n")
	for _, s := range unusedCalibrants(standards, results) {
		fmt.Fprintf(w, "%s mz:%f rt:%f\n", s.Name, s.MZRatio, s.RetentionTime)
	}
}
