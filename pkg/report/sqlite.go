package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cellratios/internal/models"
	"cellratios/pkg/aggregation"
)

const schema = `
CREATE TABLE ratios (
	experiment TEXT NOT NULL,
	measure TEXT NOT NULL,
	region TEXT NOT NULL,
	animal TEXT NOT NULL,
	grp TEXT NOT NULL DEFAULT '',
	mean REAL NOT NULL,
	sem REAL,
	PRIMARY KEY (experiment, measure, region, animal)
);

CREATE TABLE slices (
	experiment TEXT NOT NULL,
	animal TEXT NOT NULL,
	slice INTEGER NOT NULL,
	region TEXT NOT NULL,
	dapi REAL NOT NULL,
	cfos REAL NOT NULL,
	tracer REAL,
	doublepos REAL,
	area REAL NOT NULL
);

CREATE INDEX idx_slices_animal ON slices(experiment, animal);
`

type measure struct {
	name   string
	result aggregation.RatioResult
}

// WriteSQLite stores the per-animal ratios and the composite slice tables in
// a SQLite database at path. An existing database file is replaced.
func (r *Report) WriteSQLite(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for sqlite: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		r.logger().Printf("WARNING: database %q already existed and is overwritten", path)
		if err := os.Remove(path); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.insertRatios(tx); err != nil {
		return fmt.Errorf("failed to insert ratios: %w", err)
	}
	if err := r.insertSlices(tx); err != nil {
		return fmt.Errorf("failed to insert slices: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return db.Close()
}

func (r *Report) insertRatios(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`
		INSERT INTO ratios (experiment, measure, region, animal, grp, mean, sem)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	groupOf := make(map[string]string)
	for _, g := range r.Groups {
		for _, a := range g.Animals {
			groupOf[a] = g.Name
		}
	}

	measures := []measure{{aggregation.MeasureCFos, r.Results.CFos}}
	if r.Results.HasTracer {
		measures = append(measures,
			measure{aggregation.MeasureDoublePositive, r.Results.DoublePositive},
			measure{aggregation.MeasureChance, r.Results.Chance},
		)
	}

	for _, m := range measures {
		for _, region := range m.result.Mean.Rows {
			for _, animal := range m.result.Mean.Cols {
				mean, ok := m.result.Mean.Get(region, animal)
				if !ok {
					continue
				}
				var sem sql.NullFloat64
				if v, ok := m.result.SEM.Get(region, animal); ok {
					sem = sql.NullFloat64{Float64: v, Valid: true}
				}
				if _, err := stmt.Exec(r.Experiment, m.name, region, animal, groupOf[animal], mean, sem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Report) insertSlices(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`
		INSERT INTO slices (experiment, animal, slice, region, dapi, cfos, tracer, doublepos, area)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, animal := range r.Store.Animals() {
		for i, table := range r.Store.Slices(animal) {
			for _, row := range table.Rows {
				var tracer, doublepos sql.NullFloat64
				if r.Tracer != models.NoTracer {
					tracer = sql.NullFloat64{Float64: row.Values.Get(r.Tracer.Column()), Valid: true}
					doublepos = sql.NullFloat64{Float64: row.Values.Get(r.Tracer.DoublePositive()), Valid: true}
				}
				if _, err := stmt.Exec(r.Experiment, animal, i+1, row.Label,
					row.Values.Get(models.DAPI), row.Values.Get(models.CFos),
					tracer, doublepos, row.Values.Get(models.Area)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
