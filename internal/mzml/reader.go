package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/524D/mzcal/masscal"

	"golang.org/x/net/html/charset"
)

// Read reads an mzML file. Both plain and indexed mzML are accepted,
// the index of indexedmzML is dropped.
func Read(reader io.Reader) (*File, error) {
	f := &File{}

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	found := false
	for {
		t, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&f.content, &se); err != nil {
				return nil, err
			}
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no mzML element", ErrNoSpectra)
	}
	if err := f.buildIndex(); err != nil {
		return nil, err
	}
	return f, nil
}

// arrayEncoding is decoded from the CV terms of a binaryDataArray
type arrayEncoding struct {
	zlib      bool
	bits64    bool
	mz        bool
	intensity bool
}

// binaryDataPars decodes the CV terms in a mzML binarydata section
//
// CV Terms for binary data compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
// MS:1002312 MS-Numpress linear prediction compression
// MS:1002313 MS-Numpress positive integer compression
// MS:1002314 MS-Numpress short logged float compression
// MS:1002746 MS-Numpress linear prediction compression followed by zlib compression
// MS:1002747 MS-Numpress positive integer compression followed by zlib compression
// MS:1002748 MS-Numpress short logged float compression followed by zlib compression
//
// Default is uncompressed 32-bit float.
func binaryDataPars(b *binaryDataArray) (arrayEncoding, error) {
	var enc arrayEncoding
	for _, cvParam := range b.CvPar {
		switch cvParam.Accession {
		case cvZlibCompression:
			enc.zlib = true
		case cvMzArray:
			enc.mz = true
		case cvIntensityArray:
			enc.intensity = true
		case cvFloat64:
			enc.bits64 = true
		case `MS:1002312`, `MS:1002313`, `MS:1002314`,
			`MS:1002746`, `MS:1002747`, `MS:1002748`:
			return enc, fmt.Errorf("%w (CV term %s)", ErrUnsupportedCompression, cvParam.Accession)
		}
	}
	return enc, nil
}

func decodeArray(b *binaryDataArray, enc arrayEncoding) ([]float64, error) {
	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return nil, err
	}
	if enc.zlib {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return nil, err
		}
	}
	var values []float64
	if enc.bits64 {
		values = make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	} else {
		values = make([]float64, len(data)/4)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	return values, nil
}

// NumSpecs returns the number of spectra
func (f *File) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

func (f *File) spectrum(scanIndex int) (*spectrum, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	return &f.content.Run.SpectrumList.Spectrum[scanIndex], nil
}

// RetentionTime returns the retention time of a spectrum in seconds,
// or -1 if the spectrum has none
func (f *File) RetentionTime(scanIndex int) (float64, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, scan := range spec.ScanList.Scan {
		for _, cvParam := range scan.CvPar {
			if cvParam.Accession == cvScanStartTime {
				rt, err := strconv.ParseFloat(cvParam.Value, 64)
				if cvParam.UnitAccession == unitMinute || cvParam.UnitAccession == unitMinuteMS {
					rt *= 60
				}
				return rt, err
			}
		}
	}
	return -1, nil
}

// IonInjectionTime returns the ion injection time of a spectrum in ms,
// or NaN if not found
func (f *File) IonInjectionTime(scanIndex int) (float64, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, scan := range spec.ScanList.Scan {
		for _, cvParam := range scan.CvPar {
			if cvParam.Accession == cvIonInjectionTime {
				t, err := strconv.ParseFloat(cvParam.Value, 64)
				if cvParam.UnitAccession != unitMillisecond {
					return t, ErrUnknownUnit
				}
				return t, err
			}
		}
	}
	return math.NaN(), nil
}

// Peaks returns the peaks of a spectrum. scanIndex is the position of
// the spectrum in the file, use ScanIndex to look it up by id.
func (f *File) Peaks(scanIndex int) ([]masscal.DataPoint, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return nil, err
	}
	peaks := make([]masscal.DataPoint, spec.DefaultArrayLength)
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		b := &spec.BinaryDataArrayList.BinaryDataArray[i]
		enc, err := binaryDataPars(b)
		if err != nil {
			return nil, err
		}
		if !enc.mz && !enc.intensity {
			continue
		}
		values, err := decodeArray(b, enc)
		if err != nil {
			return nil, fmt.Errorf("spectrum %d: %w", scanIndex, err)
		}
		if len(values) > len(peaks) {
			values = values[:len(peaks)]
		}
		for j, v := range values {
			if enc.mz {
				peaks[j].MZ = v
			} else {
				peaks[j].Intensity = v
			}
		}
	}
	return peaks, nil
}

// Scan returns a spectrum as input for the calibration engine
func (f *File) Scan(scanIndex int) (masscal.Scan, error) {
	rt, err := f.RetentionTime(scanIndex)
	if err != nil {
		return masscal.Scan{}, err
	}
	peaks, err := f.Peaks(scanIndex)
	if err != nil {
		return masscal.Scan{}, err
	}
	return masscal.Scan{Index: scanIndex, RetentionTime: rt, Peaks: peaks}, nil
}

// Centroid returns true if the spectrum contains centroid peaks
func (f *File) Centroid(scanIndex int) (bool, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return false, err
	}
	for _, cvParam := range spec.CvPar {
		if cvParam.Accession == cvCentroidSpectrum {
			return true, nil
		}
	}
	return false, nil
}

// TotalIonCurrent returns the total ion current, or NaN if not found
func (f *File) TotalIonCurrent(scanIndex int) (float64, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, cvParam := range spec.CvPar {
		if cvParam.Accession == cvTotalIonCurrent {
			return strconv.ParseFloat(cvParam.Value, 64)
		}
	}
	return math.NaN(), nil
}

// MSLevel returns the MS level of a spectrum, 1 if it is not specified
func (f *File) MSLevel(scanIndex int) (int, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, cvParam := range spec.CvPar {
		if cvParam.Accession == cvMSLevel {
			msLevel, err := strconv.Atoi(cvParam.Value)
			return msLevel, err
		}
	}
	return 1, nil
}

// buildIndex fills index2id and id2Index
func (f *File) buildIndex() error {
	n := f.NumSpecs()
	f.index2id = make([]string, n)
	f.id2Index = make(map[string]int, n)
	for i, spec := range f.content.Run.SpectrumList.Spectrum {
		if i != spec.Index {
			return fmt.Errorf("%w: spectrum %s has index %d at position %d",
				ErrInvalidScanIndex, spec.ID, spec.Index, i)
		}
		f.index2id[i] = spec.ID
		f.id2Index[spec.ID] = i
	}
	return nil
}

// ScanIndex converts a scan identifier (the string used in the mzML file)
// into an index that is used to access the scans
func (f *File) ScanIndex(scanID string) (int, error) {
	if index, ok := f.id2Index[scanID]; ok {
		return index, nil
	}
	return 0, ErrInvalidScanID
}

// ScanID converts a scan index into the id used in the mzML file
func (f *File) ScanID(scanIndex int) (string, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		return f.index2id[scanIndex], nil
	}
	return "", ErrInvalidScanIndex
}

// Precursors returns the precursors of a spectrum. The returned slice
// shares memory with the file, so changes are written by Write.
func (f *File) Precursors(scanIndex int) ([]Precursor, error) {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return nil, err
	}
	if len(spec.PrecursorList) == 0 {
		return nil, nil
	}
	return spec.PrecursorList[0].Precursor, nil
}
