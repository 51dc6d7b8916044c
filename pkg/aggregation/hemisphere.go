package aggregation

import (
	"strings"

	"cellratios/internal/models"
)

const (
	leftSuffix  = " left"
	rightSuffix = " right"
)

// BaseRegion strips the hemisphere suffix from a region label
func BaseRegion(label string) string {
	label = strings.TrimSpace(label)
	switch {
	case strings.HasSuffix(label, leftSuffix):
		return strings.TrimSpace(strings.TrimSuffix(label, leftSuffix))
	case strings.HasSuffix(label, rightSuffix):
		return strings.TrimSpace(strings.TrimSuffix(label, rightSuffix))
	}
	return label
}

// BaseRegions lists the hemisphere-stripped regions of a slice, first-seen order
func BaseRegions(t models.Table) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		base := BaseRegion(r.Label)
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out
}

// MergeHemispheres sums the left and right rows of every region of a slice.
// When only one hemisphere is present its row is taken as is, and a region
// annotated without a hemisphere keeps its single row.
func MergeHemispheres(t models.Table) models.Table {
	var out models.Table
	for _, base := range BaseRegions(t) {
		left, right := base+leftSuffix, base+rightSuffix
		hasLeft, hasRight := t.Has(left), t.Has(right)

		var labels []string
		switch {
		case hasLeft && hasRight:
			labels = []string{left, right}
		case hasLeft:
			labels = []string{left}
		case hasRight:
			labels = []string{right}
		default:
			labels = []string{base}
		}

		out.Append(base, t.Sum(labels...))
	}
	return out
}
