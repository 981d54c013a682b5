package mzml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/524D/mzcal/masscal"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestWriteRoundTrip(t *testing.T) {
	f := readTestFile(t, "utf-8")

	peaks, err := f.Peaks(0)
	if err != nil {
		t.Fatalf("Peaks: error return %v", err)
	}
	for i := range peaks {
		peaks[i].MZ += 0.001
		peaks[i].Intensity = 777
	}
	// Only m/z is updated, so intensities must stay as they were
	if err := f.UpdatePeaks(0, peaks, true, false); err != nil {
		t.Fatalf("UpdatePeaks: error return %v", err)
	}
	n, err := f.CalibratePrecursors(1, func(mz float64) float64 { return mz - 0.25 })
	if err != nil || n != 1 {
		t.Fatalf("CalibratePrecursors: %d %v, should be 1", n, err)
	}
	f.AppendSoftwareInfo("mzcal", "test")
	f.AppendDataProcessing(DataProcessing{
		ID: "mzcal",
		ProcessingMeth: []ProcessingMethod{{
			SoftwareRef: "mzcal",
			CvPar:       []CVParam{{Accession: `MS:1001485`, Name: `m/z calibration`}},
		}},
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: error return %v", err)
	}
	out := buf.String()
	for _, s := range []string{`<software id="mzcal" version="test"`, `MS:1001485`, `xsi:schemaLocation`} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %s", s)
		}
	}

	g, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	got, err := g.Peaks(0)
	if err != nil {
		t.Fatalf("Peaks: error return %v", err)
	}
	want := []masscal.DataPoint{
		{MZ: 100.001, Intensity: 1000.5},
		{MZ: 445.12103, Intensity: 20},
		{MZ: 722.3255, Intensity: 3},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Peaks after round trip mismatch (-want +got):\n%s", diff)
	}

	mzs, err := g.PrecursorMZs(1)
	if err != nil {
		t.Fatalf("PrecursorMZs: error return %v", err)
	}
	if diff := cmp.Diff([]float64{500.0}, mzs); diff != "" {
		t.Errorf("PrecursorMZs mismatch (-want +got):\n%s", diff)
	}
	precursors, _ := g.Precursors(1)
	if v := precursors[0].IsolationWindow.CvPar[0].Value; v != "500.00000000" {
		t.Errorf("isolation window target %s, should be 500.00000000", v)
	}
	if rt, _ := g.RetentionTime(0); rt != 30 {
		t.Errorf("RetentionTime: %v after round trip", rt)
	}
	if g.content.SoftwareList.Count != 2 || g.content.DataProcessingList.Count != 2 {
		t.Errorf("software %d / data processing %d entries, should be 2/2",
			g.content.SoftwareList.Count, g.content.DataProcessingList.Count)
	}
}

func TestUpdatePeaksEmpty(t *testing.T) {
	f := readTestFile(t, "utf-8")
	if err := f.UpdatePeaks(1, nil, true, true); err != nil {
		t.Fatalf("UpdatePeaks: error return %v", err)
	}
	peaks, err := f.Peaks(1)
	if err != nil {
		t.Fatalf("Peaks: error return %v", err)
	}
	// A single dummy peak is inserted
	if diff := cmp.Diff([]masscal.DataPoint{{}}, peaks); diff != "" {
		t.Errorf("Peaks mismatch (-want +got):\n%s", diff)
	}
	if err := f.UpdatePeaks(7, nil, true, true); err != ErrInvalidScanIndex {
		t.Errorf("UpdatePeaks: error return %v, should be ErrInvalidScanIndex", err)
	}
}

func TestAppendToEmptyLists(t *testing.T) {
	var f File
	f.AppendSoftwareInfo("mzcal", "1")
	f.AppendDataProcessing(DataProcessing{ID: "mzcal"})
	if f.content.SoftwareList.Count != 1 || f.content.DataProcessingList.Count != 1 {
		t.Errorf("counts %d/%d, should be 1/1",
			f.content.SoftwareList.Count, f.content.DataProcessingList.Count)
	}
}
