package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"cellratios/internal/models"
)

// rawColumns returns the columns of the raw number tables: the parameter list
// of the acquisition mode without the area.
func (r *Report) rawColumns() []models.Column {
	var cols []models.Column
	for _, c := range r.Mode.Columns() {
		if c != models.Area {
			cols = append(cols, c)
		}
	}
	return cols
}

// WriteRawNumbers writes one file per animal with the composite-region table
// of every slice, in import order, and returns the directory path. An
// existing directory is replaced.
func (r *Report) WriteRawNumbers(outputDir string) (string, error) {
	dir := filepath.Join(outputDir, r.RawNumbersDirName())

	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
		r.logger().Printf("WARNING: directory %q already existed and is overwritten", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	cols := r.rawColumns()
	for _, animal := range r.Store.Animals() {
		if err := r.writeAnimal(filepath.Join(dir, animal+".csv"), animal, cols); err != nil {
			return "", fmt.Errorf("animal %s: %w", animal, err)
		}
	}

	return dir, nil
}

func (r *Report) writeAnimal(path, animal string, cols []models.Column) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := gocsv.DefaultCSVWriter(f)
	w.Write([]string{animal})

	header := []string{""}
	for _, c := range cols {
		header = append(header, c.String())
	}

	for i, table := range r.Store.Slices(animal) {
		w.Write([]string{""})
		w.Write([]string{fmt.Sprintf("slice %d", i+1)})
		w.Write(header)
		for _, row := range table.Rows {
			line := []string{row.Label}
			for _, c := range cols {
				line = append(line, formatValue(row.Values.Get(c)))
			}
			w.Write(line)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
