package aggregation

import (
	"fmt"

	"cellratios/internal/models"
	"cellratios/pkg/counts"
)

// Raw QuPath column names
const (
	colDetections = "Num Detections"
	colA          = "Num A"
	colB          = "Num B"
	colC          = "Num C"
	colAB         = "Num AB"
	colAC         = "Num AC"
	colArea       = "Area um^2"
)

// squareMicronsPerMM2 converts QuPath areas (µm²) to mm²
const squareMicronsPerMM2 = 1e6

// term fills one schema column with the sum of raw columns
type term struct {
	column  models.Column
	sources []string
}

// formulas maps each acquisition mode to the terms that build its schema.
// Channel A is cFos, B is the NRe tracer, C is the BLA tracer; AB and AC count
// cells positive in both channels.
var formulas = map[models.AcquisitionMode][]term{
	models.Single: {
		{models.DAPI, []string{colDetections}},
		{models.CFos, []string{colA}},
		{models.Area, []string{colArea}},
	},
	models.DualB: {
		{models.DAPI, []string{colDetections}},
		{models.CFos, []string{colA, colAB}},
		{models.NRe, []string{colB, colAB}},
		{models.NReCFos, []string{colAB}},
		{models.Area, []string{colArea}},
	},
	models.DualC: {
		{models.DAPI, []string{colDetections}},
		{models.CFos, []string{colA, colAC}},
		{models.BLA, []string{colC, colAC}},
		{models.BLACFos, []string{colAC}},
		{models.Area, []string{colArea}},
	},
	models.Triple: {
		{models.DAPI, []string{colDetections}},
		{models.CFos, []string{colA, colAC, colAB}},
		{models.BLA, []string{colC, colAC}},
		{models.BLACFos, []string{colAC}},
		{models.NRe, []string{colB, colAB}},
		{models.NReCFos, []string{colAB}},
		{models.Area, []string{colArea}},
	},
}

// MissingColumnError reports a raw column that the selected formula needs
// but the slice file does not contain.
type MissingColumnError struct {
	Path   string
	Column string
	Mode   models.AcquisitionMode
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column %q required for %s acquisition is missing", e.Path, e.Column, e.Mode)
}

// Normalize converts a raw slice table into the measurement schema of mode.
// Regions without any detected nucleus (DAPI <= 0) are dropped.
func Normalize(raw *counts.Table, mode models.AcquisitionMode) (models.Table, error) {
	terms, ok := formulas[mode]
	if !ok {
		return models.Table{}, fmt.Errorf("no formula for acquisition mode %v", mode)
	}

	if err := requireColumns(raw, terms, mode); err != nil {
		return models.Table{}, err
	}

	var out models.Table
	for _, row := range raw.Rows {
		values := rawValues(row)

		var m models.Measurement
		for _, tm := range terms {
			var sum float64
			for _, src := range tm.sources {
				v := values[src]
				if v == nil {
					return models.Table{}, &MissingColumnError{Path: raw.Path, Column: src, Mode: mode}
				}
				sum += *v
			}
			m.Set(tm.column, sum)
		}
		m.Set(models.Area, m.Get(models.Area)/squareMicronsPerMM2)

		// Also drops NaN counts
		if !(m.Get(models.DAPI) > 0) {
			continue
		}
		out.Append(row.Name, m)
	}

	return out, nil
}

// requireColumns checks the header so that files without regions fail the same way
func requireColumns(raw *counts.Table, terms []term, mode models.AcquisitionMode) error {
	for _, tm := range terms {
		for _, src := range tm.sources {
			if raw.HasColumn(src) {
				continue
			}
			if src == colArea && raw.HasColumn(counts.AreaMicroColumn) {
				continue
			}
			return &MissingColumnError{Path: raw.Path, Column: src, Mode: mode}
		}
	}
	return nil
}

func rawValues(r *counts.Row) map[string]*float64 {
	return map[string]*float64{
		colDetections: r.NumDetections,
		colA:          r.NumA,
		colB:          r.NumB,
		colC:          r.NumC,
		colAB:         r.NumAB,
		colAC:         r.NumAC,
		colArea:       r.Area(),
	}
}
