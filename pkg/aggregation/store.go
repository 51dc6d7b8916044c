package aggregation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cellratios/internal/models"
	"cellratios/pkg/config"
	"cellratios/pkg/counts"
)

// Store keeps, per animal, the composite-region table of every imported slice
// in import order. It is filled once by ImportFiles and only read afterwards.
type Store struct {
	animals []string
	slices  map[string][]models.Table
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{slices: make(map[string][]models.Table)}
}

// Append adds the next slice of an animal
func (s *Store) Append(animal string, t models.Table) {
	if _, ok := s.slices[animal]; !ok {
		s.animals = append(s.animals, animal)
	}
	s.slices[animal] = append(s.slices[animal], t)
}

// Slices returns the slices of an animal; unknown animals have none
func (s *Store) Slices(animal string) []models.Table {
	return s.slices[animal]
}

// Animals returns the animals in the order their first slice was imported
func (s *Store) Animals() []string {
	return append([]string(nil), s.animals...)
}

// NumSlices returns the total number of imported slices
func (s *Store) NumSlices() int {
	n := 0
	for _, tables := range s.slices {
		n += len(tables)
	}
	return n
}

// SliceFile is one count file of the input directory
type SliceFile struct {
	Name   string
	Path   string
	Animal string
}

// AnimalFromFilename returns the animal identifier encoded before the first underscore
func AnimalFromFilename(name string) string {
	if i := strings.Index(name, "_"); i >= 0 {
		return name[:i]
	}
	return name
}

// extractNumber returns all digits of the filename, concatenated, without
// leading zeros. The slice order is the numeric order of this string.
func extractNumber(filename string) string {
	base := filepath.Base(filename)
	var sb strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}
	return strings.TrimLeft(sb.String(), "0")
}

// lessNumeric compares two digit strings as numbers of arbitrary size
func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// ListSliceFiles lists the count files of dir in slice order. Hidden files
// (such as .DS_Store) and directories are skipped.
func ListSliceFiles(dir string) ([]SliceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []SliceFile
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, SliceFile{
			Name:   e.Name(),
			Path:   filepath.Join(dir, e.Name()),
			Animal: AnimalFromFilename(e.Name()),
		})
	}

	// ReadDir sorts by name, so equal numbers keep lexical order
	sort.SliceStable(files, func(i, j int) bool {
		return lessNumeric(extractNumber(files[i].Name), extractNumber(files[j].Name))
	})

	return files, nil
}

// ImportFiles reads every count file of dir and stores its composite-region
// table under the animal named by the file. warnf receives non-fatal
// problems such as unknown region labels; it may be nil.
func ImportFiles(dir string, regions config.RegionMap, mode models.AcquisitionMode, warnf func(format string, args ...interface{})) (*Store, error) {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}

	files, err := ListSliceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no count files found in %s", dir)
	}

	store := NewStore()
	for _, f := range files {
		table, err := ImportFile(f.Path, regions, mode, warnf)
		if err != nil {
			return nil, err
		}
		store.Append(f.Animal, table)
	}

	return store, nil
}

// ImportFile runs one slice file through normalization, hemisphere merging
// and region aggregation.
func ImportFile(path string, regions config.RegionMap, mode models.AcquisitionMode, warnf func(format string, args ...interface{})) (models.Table, error) {
	if warnf == nil {
		warnf = func(string, ...interface{}) {}
	}

	raw, err := counts.ReadFile(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	normalized, err := Normalize(raw, mode)
	if err != nil {
		return models.Table{}, err
	}

	for _, label := range InvalidRegions(normalized, regions) {
		warnf("WARNING: %s contains invalid region %s!", filepath.Base(path), label)
	}

	return AggregateRegions(MergeHemispheres(normalized), regions), nil
}

// AnimalUniverse returns the configured animals followed by any animal that
// only appears in the store. The second result lists those extra animals.
func AnimalUniverse(configured []string, store *Store) (all []string, extra []string) {
	known := make(map[string]bool)
	for _, a := range configured {
		if !known[a] {
			known[a] = true
			all = append(all, a)
		}
	}
	for _, a := range store.Animals() {
		if !known[a] {
			known[a] = true
			all = append(all, a)
			extra = append(extra, a)
		}
	}
	return all, extra
}
