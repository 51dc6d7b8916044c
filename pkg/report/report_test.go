package report

import (
	"bytes"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"cellratios/internal/models"
	"cellratios/pkg/aggregation"
	"cellratios/pkg/config"
)

const dualCHeader = "Name,Num Detections,Num A,Num C,Num AC,Area um^2\n"

// processTestRun runs the aggregation on two animals and returns its report
func processTestRun(t *testing.T, tracer models.Tracer, mode models.AcquisitionMode, logs *bytes.Buffer) *Report {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"M1_slice1.csv": dualCHeader + "Re left,100,15,5,5,500000\nRe right,100,15,5,5,500000\n",
		"M1_slice2.csv": dualCHeader + "Re,50,10,10,0,1000000\n",
		"M2_slice1.csv": dualCHeader + "MD,80,8,8,2,2000000\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	agg := aggregation.NewAggregator(&aggregation.Params{
		InputDir: dir,
		Tracer:   tracer,
		Mode:     mode,
		Regions: config.RegionMap{
			{Name: "NRe", Subregions: []string{"Re"}},
			{Name: "MD", Subregions: []string{"MD"}},
		},
		Groups: []aggregation.Group{
			{Name: "Recall", Animals: []string{}},
			{Name: "Extinction", Animals: []string{"M1"}},
			{Name: "Control", Animals: []string{"M2"}},
		},
		Threshold: aggregation.Fixed(4),
		Logger:    log.New(logs, "", 0),
	})
	if err := agg.Process(); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	r, err := New("WT48", "thalamus", agg)
	if err != nil {
		t.Fatalf("Failed to create report: %v", err)
	}
	return r
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestNewRequiresResults(t *testing.T) {
	agg := aggregation.NewAggregator(&aggregation.Params{})
	if _, err := New("WT48", "mPFC", agg); err == nil {
		t.Error("Expected error for unprocessed aggregation")
	}
}

func TestFileNames(t *testing.T) {
	r := &Report{Experiment: "WT48", RegionName: "mPFC", Tracer: models.TracerBLA}
	if got := r.SummaryFileName(); got != "WT48_results_mPFC_BLA.csv" {
		t.Errorf("Unexpected summary file name %s", got)
	}
	if got := r.RawNumbersDirName(); got != "Raw_numbers_mPFC_BLA" {
		t.Errorf("Unexpected raw numbers directory %s", got)
	}
	if got := r.Title(); got != "WT48 mPFC->BLA" {
		t.Errorf("Unexpected title %s", got)
	}

	r.Tracer = models.NoTracer
	if got := r.GroupsFileName(); got != "WT48_groups_mPFC_cFos.csv" {
		t.Errorf("Unexpected group file name %s", got)
	}
}

func TestWriteSummary(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.TracerBLA, models.DualC, &logs)
	outputDir := filepath.Join(t.TempDir(), "ratios")

	path, err := r.WriteSummary(outputDir)
	if err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}
	if filepath.Base(path) != "WT48_results_thalamus_BLA.csv" {
		t.Errorf("Unexpected summary path %s", path)
	}

	content := readFile(t, path)
	lines := strings.Split(content, "\n")
	if lines[0] != "WT48 thalamus->BLA" {
		t.Errorf("Expected title on first line, got %q", lines[0])
	}

	expected := []string{
		"Recall:\n",
		"Extinction:,M1\n",
		"Control:,M2\n",
		"BLA chance ratio\n,M1,M2\n",
		"BLA chance ratio SEM\n",
		"cFos ratio\n,M1,M2\n",
		"cFos ratio SEM\n",
		"BLA_cFos/BLA (doublepos) ratio\n",
		"BLA_cFos/BLA (doublepos) SEM\n",
		// M1 pools 40/200 and 10/50; M2 has no NRe
		"NRe,0.2,\n",
		"MD,,0.125\n",
	}
	for _, want := range expected {
		if !strings.Contains(content, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, content)
		}
	}

	if strings.Contains(logs.String(), "overwritten") {
		t.Error("Did not expect overwrite warning on first write")
	}
	if _, err := r.WriteSummary(outputDir); err != nil {
		t.Fatalf("Failed to overwrite summary: %v", err)
	}
	if !strings.Contains(logs.String(), "WARNING: Output file") {
		t.Errorf("Expected overwrite warning, got %q", logs.String())
	}
}

func TestWriteSummaryCFosOnly(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.NoTracer, models.DualC, &logs)

	path, err := r.WriteSummary(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}

	content := readFile(t, path)
	if !strings.Contains(content, "cFos ratio SEM") {
		t.Errorf("Expected cFos matrices, got:\n%s", content)
	}
	if strings.Contains(content, "chance") || strings.Contains(content, "doublepos") {
		t.Errorf("Expected no tracer matrices, got:\n%s", content)
	}
}

func TestWriteRawNumbers(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.TracerBLA, models.DualC, &logs)
	outputDir := t.TempDir()

	stale := filepath.Join(outputDir, "Raw_numbers_thalamus_BLA", "M0.csv")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatalf("Failed to create stale directory: %v", err)
	}
	if err := os.WriteFile(stale, nil, 0644); err != nil {
		t.Fatalf("Failed to write stale file: %v", err)
	}

	dir, err := r.WriteRawNumbers(outputDir)
	if err != nil {
		t.Fatalf("Failed to write raw numbers: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Expected stale raw numbers to be removed")
	}
	if !strings.Contains(logs.String(), "already existed and is overwritten") {
		t.Errorf("Expected overwrite warning, got %q", logs.String())
	}

	content := readFile(t, filepath.Join(dir, "M1.csv"))
	expected := []string{
		"M1\n",
		"slice 1\n,DAPI,cFos,BLA,BLA_cFos\nNRe,200,40,20,10\n",
		"slice 2\n,DAPI,cFos,BLA,BLA_cFos\nNRe,50,10,10,0\n",
	}
	for _, want := range expected {
		if !strings.Contains(content, want) {
			t.Errorf("Expected raw numbers to contain %q, got:\n%s", want, content)
		}
	}
	if strings.Contains(content, "area") {
		t.Error("Expected area column to be left out")
	}

	if _, err := os.Stat(filepath.Join(dir, "M2.csv")); err != nil {
		t.Errorf("Expected file for M2: %v", err)
	}
}

func TestWriteGroups(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.TracerBLA, models.DualC, &logs)

	path, err := r.WriteGroups(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to write group summary: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open group summary: %v", err)
	}
	defer f.Close()

	var rows []*aggregation.GroupSummary
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("Failed to parse group summary: %v", err)
	}
	if len(rows) != len(r.Results.Groups) {
		t.Fatalf("Expected %d rows, got %d", len(r.Results.Groups), len(rows))
	}

	first := rows[0]
	if first.Measure != aggregation.MeasureCFos || first.Group != "Extinction" || first.Region != "NRe" {
		t.Errorf("Unexpected first row %+v", first)
	}
	if first.N != 1 || first.Mean != 0.2 {
		t.Errorf("Expected single animal with mean 0.2, got %+v", first)
	}
}

func TestWriteSQLite(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.TracerBLA, models.DualC, &logs)
	path := filepath.Join(t.TempDir(), "db", "results.sqlite")

	// Written twice to check that the database is recreated
	for i := 0; i < 2; i++ {
		if err := r.WriteSQLite(path); err != nil {
			t.Fatalf("Failed to write sqlite: %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM slices`).Scan(&n); err != nil {
		t.Fatalf("Failed to count slices: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 slice rows, got %d", n)
	}

	var mean float64
	var grp string
	err = db.QueryRow(`SELECT mean, grp FROM ratios WHERE measure = ? AND region = ? AND animal = ?`,
		aggregation.MeasureCFos, "MD", "M2").Scan(&mean, &grp)
	if err != nil {
		t.Fatalf("Failed to query ratio: %v", err)
	}
	if mean != 0.125 || grp != "Control" {
		t.Errorf("Expected mean 0.125 in Control, got %v in %s", mean, grp)
	}
}

func TestWriteAll(t *testing.T) {
	var logs bytes.Buffer
	r := processTestRun(t, models.TracerBLA, models.DualC, &logs)
	outputDir := filepath.Join(t.TempDir(), "nested", "ratios")

	if err := r.WriteAll(outputDir); err != nil {
		t.Fatalf("Failed to write outputs: %v", err)
	}

	for _, name := range []string{r.SummaryFileName(), r.GroupsFileName(), r.RawNumbersDirName()} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("Expected %s in output directory: %v", name, err)
		}
	}
}
