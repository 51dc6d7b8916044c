package aggregation

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"cellratios/internal/models"
)

// ThresholdFunc returns the minimum count a slice needs, per composite region,
// to enter a ratio average.
type ThresholdFunc func(region string) float64

// Fixed applies the same threshold to every region
func Fixed(t float64) ThresholdFunc {
	return func(string) float64 { return t }
}

// RatioResult holds per-animal means and SEMs, one matrix each, with regions
// as rows and animals as columns.
type RatioResult struct {
	Mean *models.Matrix
	SEM  *models.Matrix
}

// CalculateRatio averages num/den over the slices of every animal. Only rows
// whose den exceeds the region threshold count. The SEM is the population
// standard deviation of the ratios divided by the number of slices of the
// animal, whether or not they passed the threshold.
func CalculateRatio(store *Store, num, den models.Column, animals, regions []string, thres ThresholdFunc) RatioResult {
	return summarize(store, animals, regions, func(region string, m models.Measurement) (float64, bool) {
		if !(m.Get(den) > thres(region)) {
			return 0, false
		}
		return m.Get(num) / m.Get(den), true
	})
}

// ChanceRatio averages the double-positive rate relative to the rate expected
// if tracer and cFos labelling were independent:
//
//	(doublepos/DAPI) / ((cFos*tracer) / DAPI²)
//
// Rows need at least the region threshold of tracer-positive cells. The SEM
// is normalized like in CalculateRatio.
func ChanceRatio(store *Store, tracer models.Tracer, animals, regions []string, thres ThresholdFunc) RatioResult {
	tracerCol := tracer.Column()
	return summarize(store, animals, regions, func(region string, m models.Measurement) (float64, bool) {
		if !(m.Get(tracerCol) >= thres(region)) {
			return 0, false
		}
		return Chance(m, tracer), true
	})
}

// Chance returns the chance-corrected double-positive ratio of one row
func Chance(m models.Measurement, tracer models.Tracer) float64 {
	dapi := m.Get(models.DAPI)
	observed := m.Get(tracer.DoublePositive()) / dapi
	expected := (m.Get(models.CFos) * m.Get(tracer.Column())) / (dapi * dapi)
	return observed / expected
}

// summarize pools the composite rows of all slices of each animal, keeps the
// rows accepted by value, and reduces them per region to mean and SEM.
func summarize(store *Store, animals, regions []string, value func(region string, m models.Measurement) (float64, bool)) RatioResult {
	res := RatioResult{
		Mean: models.NewMatrix(regions, animals),
		SEM:  models.NewMatrix(regions, animals),
	}

	for _, animal := range animals {
		slices := store.Slices(animal)
		if len(slices) == 0 {
			continue
		}

		// Region order of first appearance keeps the loop deterministic
		var order []string
		byRegion := make(map[string][]float64)
		for _, t := range slices {
			for _, row := range t.Rows {
				v, ok := value(row.Label, row.Values)
				if !ok {
					continue
				}
				if _, seen := byRegion[row.Label]; !seen {
					order = append(order, row.Label)
				}
				byRegion[row.Label] = append(byRegion[row.Label], v)
			}
		}

		for _, region := range order {
			values := dropNaN(byRegion[region])
			if len(values) == 0 {
				continue
			}
			mean, std := stat.PopMeanStdDev(values, nil)
			res.Mean.Set(region, animal, mean)
			res.SEM.Set(region, animal, std/float64(len(slices)))
		}
	}

	return res
}

// dropNaN removes undefined ratios such as 0/0
func dropNaN(values []float64) []float64 {
	out := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
