package models

import (
	"math"
	"reflect"
	"testing"
)

func TestParseColumn(t *testing.T) {
	for c := DAPI; c < numColumns; c++ {
		got, err := ParseColumn(c.String())
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", c, err)
		}
		if got != c {
			t.Errorf("Expected %v, got %v", c, got)
		}
	}

	if _, err := ParseColumn("Num A"); err == nil {
		t.Error("Expected error for raw QuPath column name")
	}
}

func TestTracerColumns(t *testing.T) {
	if TracerBLA.Column() != BLA || TracerBLA.DoublePositive() != BLACFos {
		t.Errorf("Unexpected BLA columns %v, %v", TracerBLA.Column(), TracerBLA.DoublePositive())
	}
	if TracerNRe.Column() != NRe || TracerNRe.DoublePositive() != NReCFos {
		t.Errorf("Unexpected NRe columns %v, %v", TracerNRe.Column(), TracerNRe.DoublePositive())
	}
	if _, err := ParseTracer("VTA"); err == nil {
		t.Error("Expected error for unsupported tracer")
	}
}

func TestModeColumns(t *testing.T) {
	tests := []struct {
		mode AcquisitionMode
		want []string
	}{
		{Single, []string{"DAPI", "cFos", "area"}},
		{DualB, []string{"DAPI", "cFos", "NRe", "area", "NRe_cFos"}},
		{DualC, []string{"DAPI", "cFos", "BLA", "area", "BLA_cFos"}},
		{Triple, []string{"DAPI", "cFos", "BLA", "NRe", "area", "BLA_cFos", "NRe_cFos"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var got []string
			for _, c := range tt.mode.Columns() {
				got = append(got, c.String())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if Single.Has(BLA) {
		t.Error("Single acquisition must not produce a tracer column")
	}
	if ModeFor([]Tracer{TracerNRe, TracerBLA}) != Triple {
		t.Error("Expected triple mode for both tracers")
	}
}

func TestTableSumsDuplicates(t *testing.T) {
	var a, b Measurement
	a.Set(DAPI, 10)
	b.Set(DAPI, 5)
	b.Set(CFos, 2)

	var table Table
	table.Append("Re left", a)
	table.Append("Re left", b)
	table.Append("Xi", b)

	got, ok := table.Get("Re left")
	if !ok {
		t.Fatal("Expected Re left to be present")
	}
	if got.Get(DAPI) != 15 || got.Get(CFos) != 2 {
		t.Errorf("Expected DAPI 15 and cFos 2, got %v", got)
	}

	sum := table.Sum("Re left", "Xi", "PaXi")
	if sum.Get(DAPI) != 20 {
		t.Errorf("Expected DAPI 20, got %f", sum.Get(DAPI))
	}

	if table.Has("PaXi") {
		t.Error("Expected PaXi to be absent")
	}
}

func TestMatrix(t *testing.T) {
	m := NewMatrix([]string{"NRe", "PVT"}, []string{"M1", "M2"})

	if _, ok := m.Get("NRe", "M1"); ok {
		t.Error("Expected new cells to be undefined")
	}
	if !m.Set("PVT", "M2", 0.5) {
		t.Fatal("Failed to set known cell")
	}
	if m.Set("MD", "M2", 1) {
		t.Error("Expected Set to reject unknown region")
	}

	v, ok := m.Get("PVT", "M2")
	if !ok || v != 0.5 {
		t.Errorf("Expected 0.5, got %v (defined %v)", v, ok)
	}

	if v, _ := m.Get("NRe", "M3"); !math.IsNaN(v) {
		t.Errorf("Expected NaN for unknown animal, got %v", v)
	}

	col := m.Column("M2")
	if len(col) != 1 || col["PVT"] != 0.5 {
		t.Errorf("Expected only PVT in column, got %v", col)
	}
}
