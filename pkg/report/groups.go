package report

import (
	"os"

	"github.com/gocarina/gocsv"

	"cellratios/pkg/aggregation"
)

// WriteGroups writes the group level summaries into outputDir and returns the file path
func (r *Report) WriteGroups(outputDir string) (string, error) {
	path, err := r.prepareFile(outputDir, r.GroupsFileName())
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows := r.Results.Groups
	if rows == nil {
		rows = []aggregation.GroupSummary{}
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return "", err
	}
	return path, f.Close()
}
