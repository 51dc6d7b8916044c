// Package report writes the results of an aggregation run to disk.
//
// A run produces:
// 1. A summary file with the group lists and the ratio matrices
// 2. A raw numbers directory with the composite tables of every slice
// 3. A group summary file with one row per measure, group and region
// 4. Optionally a SQLite database holding ratios and slice tables
package report

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"cellratios/internal/models"
	"cellratios/pkg/aggregation"
)

// Report binds the results of one run to the names used in its output files
type Report struct {
	Experiment string
	RegionName string
	Tracer     models.Tracer
	Mode       models.AcquisitionMode
	Groups     []aggregation.Group
	Results    *aggregation.Results
	Store      *aggregation.Store

	// Logger receives overwrite warnings. Defaults to log.Default().
	Logger *log.Logger
}

// New creates a report for a processed aggregator
func New(experiment, regionName string, agg *aggregation.Aggregator) (*Report, error) {
	if agg.Results() == nil {
		return nil, fmt.Errorf("aggregation has not been processed")
	}
	p := agg.Params()
	return &Report{
		Experiment: experiment,
		RegionName: regionName,
		Tracer:     p.Tracer,
		Mode:       p.Mode,
		Groups:     p.Groups,
		Results:    agg.Results(),
		Store:      agg.Store(),
		Logger:     p.Logger,
	}, nil
}

// TracerLabel names the tracer in file names and titles; cFos-only runs use "cFos"
func (r *Report) TracerLabel() string {
	if r.Tracer == models.NoTracer {
		return models.CFos.String()
	}
	return string(r.Tracer)
}

// Title is the first line of the summary file
func (r *Report) Title() string {
	return fmt.Sprintf("%s %s->%s", r.Experiment, r.RegionName, r.TracerLabel())
}

// SummaryFileName returns the summary file name
func (r *Report) SummaryFileName() string {
	return fmt.Sprintf("%s_results_%s_%s.csv", r.Experiment, r.RegionName, r.TracerLabel())
}

// GroupsFileName returns the group summary file name
func (r *Report) GroupsFileName() string {
	return fmt.Sprintf("%s_groups_%s_%s.csv", r.Experiment, r.RegionName, r.TracerLabel())
}

// RawNumbersDirName returns the raw numbers directory name
func (r *Report) RawNumbersDirName() string {
	return fmt.Sprintf("Raw_numbers_%s_%s", r.RegionName, r.TracerLabel())
}

// WriteAll writes the summary, raw numbers and group summary into outputDir
func (r *Report) WriteAll(outputDir string) error {
	if _, err := r.WriteSummary(outputDir); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if _, err := r.WriteRawNumbers(outputDir); err != nil {
		return fmt.Errorf("failed to write raw numbers: %w", err)
	}
	if _, err := r.WriteGroups(outputDir); err != nil {
		return fmt.Errorf("failed to write group summary: %w", err)
	}
	return nil
}

func (r *Report) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// prepareFile creates outputDir and warns when name already exists in it
func (r *Report) prepareFile(outputDir, name string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, name)
	if _, err := os.Stat(path); err == nil {
		r.logger().Printf("WARNING: Output file %q already existed and is overwritten.", path)
	}
	return path, nil
}

// formatValue writes undefined cells as empty fields
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
