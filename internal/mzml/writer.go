package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"io"
	"math"

	"github.com/524D/mzcal/masscal"
)

// Write writes the file as (non-indexed) mzML
func (f *File) Write(writer io.Writer) error {
	if _, err := io.WriteString(writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(writer)
	// Indent only works with a non-empty prefix, hence the single space
	enc.Indent(` `, `  `)
	content := mzMLContentWrite{
		XMLName:                     f.content.XMLName,
		Sl1:                         "http://psi.hupo.org/ms/mzml http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd",
		Version:                     "1.1.0",
		Sl2:                         "http://www.w3.org/2001/XMLSchema-instance",
		CvList:                      f.content.CvList,
		FileDescription:             f.content.FileDescription,
		ReferenceableParamGroupList: f.content.ReferenceableParamGroupList,
		SoftwareList:                f.content.SoftwareList,
		InstrumentConfigurationList: f.content.InstrumentConfigurationList,
		DataProcessingList:          f.content.DataProcessingList,
		Run:                         f.content.Run,
	}
	if err := enc.Encode(&content); err != nil {
		return err
	}
	_, err := io.WriteString(writer, "\n")
	return err
}

// AppendSoftwareInfo adds an entry to the softwareList
func (f *File) AppendSoftwareInfo(id string, version string) {
	if f.content.SoftwareList == nil {
		f.content.SoftwareList = &softwareList{}
	}
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software,
		software{ID: id, Version: version})
	f.content.SoftwareList.Count = len(f.content.SoftwareList.Software)
}

// AppendDataProcessing adds an entry to the dataProcessingList
func (f *File) AppendDataProcessing(proc DataProcessing) {
	if f.content.DataProcessingList == nil {
		f.content.DataProcessingList = &dataProcessingList{}
	}
	f.content.DataProcessingList.DataProcessing = append(f.content.DataProcessingList.DataProcessing, proc)
	f.content.DataProcessingList.Count = len(f.content.DataProcessingList.DataProcessing)
}

// UpdatePeaks replaces the m/z and/or intensity arrays of a spectrum.
// The arrays keep their original compression and precision.
func (f *File) UpdatePeaks(scanIndex int, peaks []masscal.DataPoint,
	updateMz bool, updateIntens bool) error {
	spec, err := f.spectrum(scanIndex)
	if err != nil {
		return err
	}
	// msConvert rejects spectra without peaks
	if len(peaks) == 0 {
		peaks = []masscal.DataPoint{{}}
	}

	spec.DefaultArrayLength = int64(len(peaks))
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		b := &spec.BinaryDataArrayList.BinaryDataArray[i]
		enc, err := binaryDataPars(b)
		if err != nil {
			return err
		}
		if (enc.mz && updateMz) || (enc.intensity && updateIntens) {
			b64, err := encodeBinary(peaks, enc)
			if err != nil {
				return err
			}
			b.Binary = b64
			b.ArrayLength = len(peaks)
			b.EncodedLength = len(b64)
		}
	}
	return nil
}

func encodeBinary(peaks []masscal.DataPoint, enc arrayEncoding) (string, error) {
	value := func(p masscal.DataPoint) float64 { return p.Intensity }
	if enc.mz {
		value = func(p masscal.DataPoint) float64 { return p.MZ }
	}

	var raw []byte
	if enc.bits64 {
		raw = make([]byte, len(peaks)*8)
		for i, p := range peaks {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(value(p)))
		}
	} else {
		raw = make([]byte, len(peaks)*4)
		for i, p := range peaks {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(value(p))))
		}
	}
	if enc.zlib {
		var b bytes.Buffer
		z := zlib.NewWriter(&b)
		if _, err := z.Write(raw); err != nil {
			return "", err
		}
		// Close flushes, the output is invalid without it
		if err := z.Close(); err != nil {
			return "", err
		}
		raw = b.Bytes()
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
