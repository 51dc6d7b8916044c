package report

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"cellratios/internal/models"
)

// section is one labelled matrix of the summary file
type section struct {
	label  string
	matrix *models.Matrix
}

// sections lists the matrices of the summary in output order. cFos-only runs
// only have the cFos ratio.
func (r *Report) sections() []section {
	res := r.Results
	if !res.HasTracer {
		return []section{
			{"cFos ratio", res.CFos.Mean},
			{"cFos ratio SEM", res.CFos.SEM},
		}
	}

	t := r.TracerLabel()
	return []section{
		{fmt.Sprintf("%s chance ratio", t), res.Chance.Mean},
		{fmt.Sprintf("%s chance ratio SEM", t), res.Chance.SEM},
		{"cFos ratio", res.CFos.Mean},
		{"cFos ratio SEM", res.CFos.SEM},
		{fmt.Sprintf("%s_cFos/%s (doublepos) ratio", t, t), res.DoublePositive.Mean},
		{fmt.Sprintf("%s_cFos/%s (doublepos) SEM", t, t), res.DoublePositive.SEM},
	}
}

// WriteSummary writes the summary file into outputDir and returns its path.
// The file starts with the title and the animals of every group, followed by
// the ratio matrices with regions as rows and animals as columns.
func (r *Report) WriteSummary(outputDir string) (string, error) {
	path, err := r.prepareFile(outputDir, r.SummaryFileName())
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := gocsv.DefaultCSVWriter(f)

	w.Write([]string{r.Title()})
	w.Write([]string{""})
	for _, g := range r.Groups {
		w.Write(append([]string{g.Name + ":"}, g.Animals...))
	}

	for _, s := range r.sections() {
		w.Write([]string{""})
		w.Write([]string{s.label})
		writeMatrix(w, s.matrix)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// writeMatrix writes a header of animals, then one line per region
func writeMatrix(w *gocsv.SafeCSVWriter, m *models.Matrix) {
	w.Write(append([]string{""}, m.Cols...))
	for _, region := range m.Rows {
		line := []string{region}
		for _, animal := range m.Cols {
			v, _ := m.Get(region, animal)
			line = append(line, formatValue(v))
		}
		w.Write(line)
	}
}
