package aggregation

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Group is a named set of animals that received the same treatment
type Group struct {
	Name    string
	Animals []string
}

// GroupSummary describes one region of one group for one ratio: the mean of
// the per-animal means and its standard error across animals.
type GroupSummary struct {
	Measure string   `csv:"measure"`
	Group   string   `csv:"group"`
	Region  string   `csv:"region"`
	N       int      `csv:"n"`
	Mean    float64  `csv:"mean"`
	SEM     *float64 `csv:"sem"`
}

// SummarizeGroups reduces the per-animal means of result to group level.
// Regions where no animal of a group has a value are left out; the SEM is
// omitted for groups with a single animal.
func SummarizeGroups(measure string, result RatioResult, groups []Group) []GroupSummary {
	var out []GroupSummary
	for _, g := range groups {
		for _, region := range result.Mean.Rows {
			var values stats.Float64Data
			for _, animal := range g.Animals {
				if v, ok := result.Mean.Get(region, animal); ok {
					values = append(values, v)
				}
			}
			if len(values) == 0 {
				continue
			}

			mean, err := stats.Mean(values)
			if err != nil {
				continue
			}

			summary := GroupSummary{
				Measure: measure,
				Group:   g.Name,
				Region:  region,
				N:       len(values),
				Mean:    mean,
			}
			if len(values) > 1 {
				if sd, err := stats.StandardDeviationSample(values); err == nil {
					sem := sd / math.Sqrt(float64(len(values)))
					summary.SEM = &sem
				}
			}
			out = append(out, summary)
		}
	}
	return out
}
