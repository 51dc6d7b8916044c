package models

// Row is one labelled measurement of a slice table
type Row struct {
	// Label is the region name, possibly with a hemisphere suffix
	Label string

	// Values holds the normalized counts of the region
	Values Measurement
}

// Table holds the region rows of a single slice in insertion order.
// The same label may occur more than once; lookups sum all matching rows.
type Table struct {
	Rows []Row
}

// Append adds a row to the table
func (t *Table) Append(label string, values Measurement) {
	t.Rows = append(t.Rows, Row{Label: label, Values: values})
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Has reports whether at least one row carries label
func (t Table) Has(label string) bool {
	for _, r := range t.Rows {
		if r.Label == label {
			return true
		}
	}
	return false
}

// Get returns the sum of all rows carrying label
func (t Table) Get(label string) (Measurement, bool) {
	var sum Measurement
	found := false
	for _, r := range t.Rows {
		if r.Label == label {
			sum.Add(r.Values)
			found = true
		}
	}
	return sum, found
}

// Sum adds up the rows of every label given; absent labels contribute nothing
func (t Table) Sum(labels ...string) Measurement {
	var sum Measurement
	for _, l := range labels {
		if m, ok := t.Get(l); ok {
			sum.Add(m)
		}
	}
	return sum
}

// Labels returns the row labels in order, including duplicates
func (t Table) Labels() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Label
	}
	return out
}
