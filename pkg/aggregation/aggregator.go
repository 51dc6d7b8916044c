// Package aggregation turns per-slice QuPath cell counts into per-animal,
// per-region ratios.
//
// The pipeline consists of several steps:
// 1. Importing every slice file: normalizing raw channel counts, merging
//    hemispheres and summing subregions into composite regions
// 2. Computing the cFos ratio (cFos / DAPI)
// 3. Computing the double-positive ratio (<tracer>_cFos / <tracer>)
// 4. Computing the chance-corrected double-positive ratio
// 5. Summarizing the per-animal ratios per experimental group
package aggregation

import (
	"fmt"
	"log"

	"cellratios/internal/models"
	"cellratios/pkg/config"
)

// Measure names used in reports
const (
	MeasureChance         = "chance"
	MeasureCFos           = "cFos"
	MeasureDoublePositive = "doublepos"
)

// Params holds the analysis parameters of one run. It is built once from the
// configuration and not modified afterwards.
type Params struct {
	// InputDir is the directory containing one count file per slice.
	// The animal is the filename text before the first underscore.
	InputDir string

	// Tracer is the tracer the double-positive and chance ratios refer to.
	// NoTracer restricts the analysis to the cFos ratio.
	Tracer models.Tracer

	// Mode selects the formula converting raw channel counts
	Mode models.AcquisitionMode

	// Regions maps composite regions to their subregions, in report order
	Regions config.RegionMap

	// Groups lists the experimental groups in report order
	Groups []Group

	// Threshold gives the minimum count per region for a slice to be averaged
	Threshold ThresholdFunc

	// Logger receives progress and warnings. Defaults to log.Default().
	Logger *log.Logger
}

// ParamsFromConfig derives the analysis parameters from a validated configuration
func ParamsFromConfig(cfg *config.Config) (*Params, error) {
	tracer, err := cfg.AnalysisTracer()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	groups := make([]Group, 0, len(cfg.GroupNames()))
	for _, name := range cfg.GroupNames() {
		groups = append(groups, Group{Name: name, Animals: cfg.GroupMembers(name)})
	}

	return &Params{
		InputDir:  cfg.Input,
		Tracer:    tracer,
		Mode:      mode,
		Regions:   cfg.Regions,
		Groups:    groups,
		Threshold: cfg.ThresholdFor,
	}, nil
}

// Animals returns the configured animals in group order
func (p *Params) Animals() []string {
	var out []string
	for _, g := range p.Groups {
		out = append(out, g.Animals...)
	}
	return out
}

// Results holds the ratio tables of a run
type Results struct {
	// Regions and Animals are the row and column keys of every matrix
	Regions []string
	Animals []string

	CFos           RatioResult
	DoublePositive RatioResult
	Chance         RatioResult

	// HasTracer is false for cFos-only runs, where DoublePositive and
	// Chance are left empty.
	HasTracer bool

	// Groups holds the group level summaries of every computed ratio
	Groups []GroupSummary
}

// Aggregator runs the import and ratio computations
type Aggregator struct {
	// params stores the analysis configuration
	params *Params

	// store holds the imported composite-region tables per animal
	store *Store

	// results is nil until Process succeeds
	results *Results

	// warnings collects every non-fatal problem reported during the run
	warnings []string
}

// NewAggregator creates a new aggregator with the provided parameters
func NewAggregator(params *Params) *Aggregator {
	if params.Logger == nil {
		params.Logger = log.Default()
	}
	if params.Threshold == nil {
		params.Threshold = Fixed(0)
	}
	return &Aggregator{params: params}
}

// Process runs the complete pipeline
func (a *Aggregator) Process() error {
	p := a.params

	if p.Mode == models.Single && p.Tracer != models.NoTracer {
		return fmt.Errorf("tracer %s configured but the acquisition mode is %v", p.Tracer, p.Mode)
	}
	if p.Tracer != models.NoTracer && !p.Mode.Has(p.Tracer.Column()) {
		return fmt.Errorf("tracer %s is not scored in %v acquisitions", p.Tracer, p.Mode)
	}

	// Step 1: Import slice files
	p.Logger.Printf("Step 1: Importing slice files from %s (%v acquisition)...", p.InputDir, p.Mode)
	store, err := ImportFiles(p.InputDir, p.Regions, p.Mode, a.warnf)
	if err != nil {
		return fmt.Errorf("failed to import slice files: %w", err)
	}
	a.store = store
	p.Logger.Printf("Imported %d slices of %d animals", store.NumSlices(), len(store.Animals()))

	animals, extra := AnimalUniverse(p.Animals(), store)
	for _, animal := range extra {
		a.warnf("WARNING: animal %s has slice files but is not assigned to a group", animal)
	}
	for _, animal := range p.Animals() {
		if len(store.Slices(animal)) == 0 {
			p.Logger.Printf("No slice files for animal %s", animal)
		}
	}

	res := &Results{
		Regions:   p.Regions.Names(),
		Animals:   animals,
		HasTracer: p.Tracer != models.NoTracer,
	}

	// Step 2: cFos ratio
	p.Logger.Println("Step 2: Calculating cFos ratio...")
	res.CFos = CalculateRatio(store, models.CFos, models.DAPI, res.Animals, res.Regions, p.Threshold)

	if res.HasTracer {
		// Step 3: double-positive ratio
		p.Logger.Printf("Step 3: Calculating %s/%s ratio...", p.Tracer.DoublePositive(), p.Tracer.Column())
		res.DoublePositive = CalculateRatio(store, p.Tracer.DoublePositive(), p.Tracer.Column(), res.Animals, res.Regions, p.Threshold)

		// Step 4: chance ratio
		p.Logger.Printf("Step 4: Calculating %s chance ratio...", p.Tracer)
		res.Chance = ChanceRatio(store, p.Tracer, res.Animals, res.Regions, p.Threshold)
	} else {
		p.Logger.Println("No tracer configured, skipping double-positive and chance ratios")
	}

	// Step 5: group summaries
	p.Logger.Println("Step 5: Summarizing groups...")
	res.Groups = SummarizeGroups(MeasureCFos, res.CFos, p.Groups)
	if res.HasTracer {
		res.Groups = append(res.Groups, SummarizeGroups(MeasureDoublePositive, res.DoublePositive, p.Groups)...)
		res.Groups = append(res.Groups, SummarizeGroups(MeasureChance, res.Chance, p.Groups)...)
	}

	a.results = res
	return nil
}

func (a *Aggregator) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	a.warnings = append(a.warnings, msg)
	a.params.Logger.Println(msg)
}

// Store returns the imported measurements
func (a *Aggregator) Store() *Store {
	return a.store
}

// Results returns the ratio tables, or nil before Process succeeded
func (a *Aggregator) Results() *Results {
	return a.results
}

// Warnings returns the non-fatal problems reported so far
func (a *Aggregator) Warnings() []string {
	return append([]string(nil), a.warnings...)
}

// Params returns the parameters the aggregator was created with
func (a *Aggregator) Params() *Params {
	return a.params
}
