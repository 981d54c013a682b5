package mzml

import (
	"fmt"
	"strconv"
)

// CalibratePrecursors applies fn to the selected ion m/z values and the
// isolation window target m/z of all precursors of a spectrum. It returns
// the number of selected ion values that were changed.
func (f *File) CalibratePrecursors(scanIndex int, fn func(mz float64) float64) (int, error) {
	precursors, err := f.Precursors(scanIndex)
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range precursors {
		p := &precursors[i]
		if _, err := updateCVValue(p.IsolationWindow.CvPar, cvIsolationWindowTarget, fn); err != nil {
			return updated, fmt.Errorf("spectrum %d isolation window: %w", scanIndex, err)
		}
		for j := range p.SelectedIonList.SelectedIon {
			ok, err := updateCVValue(p.SelectedIonList.SelectedIon[j].CvPar, cvSelectedIonMz, fn)
			if err != nil {
				return updated, fmt.Errorf("spectrum %d selected ion: %w", scanIndex, err)
			}
			if ok {
				updated++
			}
		}
	}
	return updated, nil
}

// PrecursorMZs returns the selected ion m/z values of a spectrum
func (f *File) PrecursorMZs(scanIndex int) ([]float64, error) {
	precursors, err := f.Precursors(scanIndex)
	if err != nil {
		return nil, err
	}
	var mzs []float64
	for _, p := range precursors {
		for _, ion := range p.SelectedIonList.SelectedIon {
			for _, cvParam := range ion.CvPar {
				if cvParam.Accession == cvSelectedIonMz {
					mz, err := strconv.ParseFloat(cvParam.Value, 64)
					if err != nil {
						return nil, err
					}
					mzs = append(mzs, mz)
				}
			}
		}
	}
	return mzs, nil
}

// updateCVValue replaces the value of the first cvParam with the given
// accession by fn(value)
func updateCVValue(params []CVParam, accession string, fn func(float64) float64) (bool, error) {
	for k := range params {
		if params[k].Accession != accession {
			continue
		}
		v, err := strconv.ParseFloat(params[k].Value, 64)
		if err != nil {
			return false, fmt.Errorf("invalid m/z value %q: %w", params[k].Value, err)
		}
		params[k].Value = strconv.FormatFloat(fn(v), 'f', 8, 64)
		return true, nil
	}
	return false, nil
}
