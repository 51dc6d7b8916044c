package models

import (
	"math"
)

// Matrix is a region x animal table of ratio values.
// Cells without data hold NaN and are reported as undefined.
type Matrix struct {
	// Rows are the composite region names
	Rows []string

	// Cols are the animal identifiers
	Cols []string

	data   []float64
	rowIdx map[string]int
	colIdx map[string]int
}

// NewMatrix creates a matrix with every cell undefined
func NewMatrix(rows, cols []string) *Matrix {
	m := &Matrix{
		Rows:   append([]string(nil), rows...),
		Cols:   append([]string(nil), cols...),
		data:   make([]float64, len(rows)*len(cols)),
		rowIdx: make(map[string]int, len(rows)),
		colIdx: make(map[string]int, len(cols)),
	}
	for i := range m.data {
		m.data[i] = math.NaN()
	}
	for i, r := range m.Rows {
		m.rowIdx[r] = i
	}
	for j, c := range m.Cols {
		m.colIdx[c] = j
	}
	return m
}

// Set stores v at (row, col). It returns false when either key is unknown.
func (m *Matrix) Set(row, col string, v float64) bool {
	i, ok := m.rowIdx[row]
	if !ok {
		return false
	}
	j, ok := m.colIdx[col]
	if !ok {
		return false
	}
	m.data[i*len(m.Cols)+j] = v
	return true
}

// Get returns the value at (row, col) and whether it is defined
func (m *Matrix) Get(row, col string) (float64, bool) {
	i, ok := m.rowIdx[row]
	if !ok {
		return math.NaN(), false
	}
	j, ok := m.colIdx[col]
	if !ok {
		return math.NaN(), false
	}
	v := m.data[i*len(m.Cols)+j]
	return v, !math.IsNaN(v)
}

// Column returns the defined values of one animal keyed by region
func (m *Matrix) Column(col string) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range m.Rows {
		if v, ok := m.Get(r, col); ok {
			out[r] = v
		}
	}
	return out
}
