package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"
)

// b64Array encodes values the way mzML binary arrays are stored
func b64Array(t *testing.T, values []float64, bits64, compress bool) string {
	t.Helper()
	var raw bytes.Buffer
	for _, v := range values {
		if bits64 {
			binary.Write(&raw, binary.LittleEndian, math.Float64bits(v))
		} else {
			binary.Write(&raw, binary.LittleEndian, math.Float32bits(float32(v)))
		}
	}
	data := raw.Bytes()
	if compress {
		var z bytes.Buffer
		w := zlib.NewWriter(&z)
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		data = z.Bytes()
	}
	return base64.StdEncoding.EncodeToString(data)
}

func arrayXML(t *testing.T, values []float64, bits64, compress bool, arrayCV string) string {
	t.Helper()
	var cv []string
	if compress {
		cv = append(cv, `<cvParam cvRef="MS" accession="MS:1000574" name="zlib compression"/>`)
	} else {
		cv = append(cv, `<cvParam cvRef="MS" accession="MS:1000576" name="no compression"/>`)
	}
	if bits64 {
		cv = append(cv, `<cvParam cvRef="MS" accession="MS:1000523" name="64-bit float"/>`)
	} else {
		cv = append(cv, `<cvParam cvRef="MS" accession="MS:1000521" name="32-bit float"/>`)
	}
	cv = append(cv, fmt.Sprintf(`<cvParam cvRef="MS" accession="%s"/>`, arrayCV))
	return fmt.Sprintf(`<binaryDataArray>%s<binary>%s</binary></binaryDataArray>`,
		strings.Join(cv, ""), b64Array(t, values, bits64, compress))
}

var (
	ms1MZ     = []float64{100.0, 445.12003, 722.3245}
	ms1Intens = []float64{1000.5, 20, 3}
	ms2MZ     = []float64{150.5, 250.25}
	ms2Intens = []float64{10, 20}
)

// testMzML returns a small mzML document with one MS1 and one MS2 spectrum
func testMzML(t *testing.T, encoding string) string {
	t.Helper()
	return fmt.Sprintf(`<?xml version="1.0" encoding="%s"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
 <cvList count="1"><cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology"/></cvList>
 <fileDescription><fileContent><cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum"/></fileContent></fileDescription>
 <softwareList count="1"><software id="acq" version="1.0"/></softwareList>
 <instrumentConfigurationList count="1"><instrumentConfiguration id="IC1"/></instrumentConfigurationList>
 <dataProcessingList count="1"><dataProcessing id="conv"><processingMethod order="0" softwareRef="acq"/></dataProcessing></dataProcessingList>
 <run id="r1" defaultInstrumentConfigurationRef="IC1">
  <spectrumList count="2">
   <spectrum index="0" id="scan=1" defaultArrayLength="3">
    <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
    <cvParam cvRef="MS" accession="MS:1000127" name="centroid spectrum"/>
    <cvParam cvRef="MS" accession="MS:1000285" name="total ion current" value="1023.5"/>
    <scanList count="1"><scan>
     <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="0.5" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
     <cvParam cvRef="MS" accession="MS:1000927" name="ion injection time" value="12.5" unitCvRef="UO" unitAccession="UO:0000028" unitName="millisecond"/>
    </scan></scanList>
    <binaryDataArrayList count="2">%s%s</binaryDataArrayList>
   </spectrum>
   <spectrum index="1" id="scan=2" defaultArrayLength="2">
    <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="2"/>
    <scanList count="1"><scan>
     <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="31" unitCvRef="UO" unitAccession="UO:0000010" unitName="second"/>
    </scan></scanList>
    <precursorList count="1"><precursor spectrumRef="scan=1">
     <isolationWindow><cvParam cvRef="MS" accession="MS:1000827" name="isolation window target m/z" value="500.25"/></isolationWindow>
     <selectedIonList count="1"><selectedIon><cvParam cvRef="MS" accession="MS:1000744" name="selected ion m/z" value="500.25"/></selectedIon></selectedIonList>
     <activation><cvParam cvRef="MS" accession="MS:1000133" name="collision-induced dissociation"/></activation>
    </precursor></precursorList>
    <binaryDataArrayList count="2">%s%s</binaryDataArrayList>
   </spectrum>
  </spectrumList>
 </run>
</mzML>
`, encoding,
		arrayXML(t, ms1MZ, true, true, "MS:1000514"),
		arrayXML(t, ms1Intens, false, false, "MS:1000515"),
		arrayXML(t, ms2MZ, false, true, "MS:1000514"),
		arrayXML(t, ms2Intens, false, false, "MS:1000515"))
}
