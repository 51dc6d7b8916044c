package models

import (
	"fmt"
)

// Column identifies one field of the normalized measurement schema
type Column int

const (
	DAPI Column = iota
	CFos
	NRe
	NReCFos
	BLA
	BLACFos
	Area

	numColumns
)

var columnNames = [numColumns]string{
	DAPI:    "DAPI",
	CFos:    "cFos",
	NRe:     "NRe",
	NReCFos: "NRe_cFos",
	BLA:     "BLA",
	BLACFos: "BLA_cFos",
	Area:    "area",
}

// String returns the column name used in output headers
func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnNames[c]
}

// ParseColumn maps a column name back to its Column
func ParseColumn(name string) (Column, error) {
	for c, n := range columnNames {
		if n == name {
			return Column(c), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", name)
}

// Measurement is the normalized numeric record of one region in one slice.
// Columns that the acquisition mode does not produce stay zero.
type Measurement [numColumns]float64

// Get returns the value of column c
func (m Measurement) Get(c Column) float64 {
	return m[c]
}

// Set assigns the value of column c
func (m *Measurement) Set(c Column, v float64) {
	m[c] = v
}

// Add sums other into m column-wise
func (m *Measurement) Add(other Measurement) {
	for i := range m {
		m[i] += other[i]
	}
}

// Tracer names the retrograde tracer whose positive cells are counted
type Tracer string

const (
	NoTracer  Tracer = ""
	TracerBLA Tracer = "BLA"
	TracerNRe Tracer = "NRe"
)

// ParseTracer validates a configured tracer name
func ParseTracer(s string) (Tracer, error) {
	switch Tracer(s) {
	case NoTracer, TracerBLA, TracerNRe:
		return Tracer(s), nil
	}
	return NoTracer, fmt.Errorf("unsupported tracer %q (expected %q or %q)", s, TracerBLA, TracerNRe)
}

// Column returns the tracer-positive column
func (t Tracer) Column() Column {
	if t == TracerNRe {
		return NRe
	}
	return BLA
}

// DoublePositive returns the tracer and cFos double-positive column
func (t Tracer) DoublePositive() Column {
	if t == TracerNRe {
		return NReCFos
	}
	return BLACFos
}

// AcquisitionMode tells which channels were scored and therefore which
// formula turns raw QuPath counts into the measurement schema.
type AcquisitionMode int

const (
	// Single is a cFos-only acquisition
	Single AcquisitionMode = iota
	// DualB scores cFos plus the NRe tracer on channel B
	DualB
	// DualC scores cFos plus the BLA tracer on channel C
	DualC
	// Triple scores cFos, NRe (channel B) and BLA (channel C)
	Triple
)

// ModeFor selects the acquisition mode from the configured tracers
func ModeFor(tracers []Tracer) AcquisitionMode {
	var hasBLA, hasNRe bool
	for _, t := range tracers {
		switch t {
		case TracerBLA:
			hasBLA = true
		case TracerNRe:
			hasNRe = true
		}
	}

	switch {
	case hasBLA && hasNRe:
		return Triple
	case hasNRe:
		return DualB
	case hasBLA:
		return DualC
	}
	return Single
}

func (m AcquisitionMode) String() string {
	switch m {
	case Single:
		return "single"
	case DualB:
		return "dual-B"
	case DualC:
		return "dual-C"
	case Triple:
		return "triple"
	}
	return fmt.Sprintf("AcquisitionMode(%d)", int(m))
}

// Columns returns the parameter list of the mode in output order
func (m AcquisitionMode) Columns() []Column {
	switch m {
	case DualB:
		return []Column{DAPI, CFos, NRe, Area, NReCFos}
	case DualC:
		return []Column{DAPI, CFos, BLA, Area, BLACFos}
	case Triple:
		return []Column{DAPI, CFos, BLA, NRe, Area, BLACFos, NReCFos}
	}
	return []Column{DAPI, CFos, Area}
}

// Has reports whether the mode produces column c
func (m AcquisitionMode) Has(c Column) bool {
	for _, col := range m.Columns() {
		if col == c {
			return true
		}
	}
	return false
}
