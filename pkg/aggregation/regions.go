package aggregation

import (
	"cellratios/internal/models"
	"cellratios/pkg/config"
)

// AggregateRegions sums hemisphere-merged subregions into their composite
// regions. A composite without any subregion in the slice gets no row, so
// the returned table only lists composites that the slice actually shows.
func AggregateRegions(t models.Table, regions config.RegionMap) models.Table {
	var out models.Table
	for _, cr := range regions {
		var present []string
		for _, sub := range cr.Subregions {
			if t.Has(sub) {
				present = append(present, sub)
			}
		}
		if len(present) == 0 {
			continue
		}
		out.Append(cr.Name, t.Sum(present...))
	}
	return out
}

// InvalidRegions returns the labels whose base region is not a configured subregion
func InvalidRegions(t models.Table, regions config.RegionMap) []string {
	valid := make(map[string]bool)
	for _, s := range regions.Subregions() {
		valid[s] = true
	}

	var out []string
	for _, r := range t.Rows {
		if !valid[BaseRegion(r.Label)] {
			out = append(out, r.Label)
		}
	}
	return out
}
