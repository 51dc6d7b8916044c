// Package counts reads the per-slice cell-count tables exported by QuPath.
//
// One file describes one slice: a header row, then one row per annotated
// region. Column names follow the QuPath positive cell detection
// conventions ("Num Detections", "Num A", "Num AB", ...). Files may be comma,
// tab or semicolon separated; files that are not valid UTF-8 are decoded
// as latin1.
package counts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/carbocation/pfx"
	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"
	"golang.org/x/net/html/charset"
)

// Encoding is the charset used for exports that are not valid UTF-8
const Encoding = "latin1"

// AreaMicroColumn is the area header written by QuPath versions that use the micro sign
const AreaMicroColumn = "Area µm^2"

// Row is one region of a raw slice table. Count fields are nil when the
// column is absent from the file.
type Row struct {
	Name          string   `csv:"Name"`
	NumDetections *float64 `csv:"Num Detections"`
	NumA          *float64 `csv:"Num A"`
	NumB          *float64 `csv:"Num B"`
	NumC          *float64 `csv:"Num C"`
	NumAB         *float64 `csv:"Num AB"`
	NumAC         *float64 `csv:"Num AC"`
	AreaUm        *float64 `csv:"Area um^2"`
	AreaMicro     *float64 `csv:"Area µm^2"`
}

// Area returns the region area in µm², whichever spelling of the column was used
func (r *Row) Area() *float64 {
	if r.AreaUm != nil {
		return r.AreaUm
	}
	return r.AreaMicro
}

// Table is the content of one slice file
type Table struct {
	// Path is the file the table was read from
	Path string

	// Header lists the column names found in the file
	Header []string

	// Rows holds one entry per region, in file order
	Rows []*Row
}

// HasColumn reports whether the file carried the named column
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// ReadFile reads a slice file from disk
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	t.Path = path
	return t, nil
}

// Read parses a slice table from r
func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Older QuPath versions write the platform encoding; anything that is
	// not valid UTF-8 is taken to be latin1.
	if !utf8.Valid(data) {
		decoded, err := charset.NewReaderLabel(Encoding, bytes.NewReader(data))
		if err != nil {
			return nil, pfx.Err(err)
		}
		if data, err = io.ReadAll(decoded); err != nil {
			return nil, pfx.Err(err)
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, pfx.Err(fmt.Errorf("empty file"))
	}

	delim := DetermineDelimiter(bytes.NewReader(data))

	csvReader := csv.NewReader(bytes.NewReader(data))
	csvReader.Comma = delim

	header, err := csvReader.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("header parsing error: %w", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !contains(header, "Name") {
		return nil, pfx.Err(fmt.Errorf("no \"Name\" column in header %v", header))
	}

	// gocsv needs the header again, so parse from the start with a fresh reader
	rowReader := csv.NewReader(bytes.NewReader(data))
	rowReader.Comma = delim
	rowReader.TrimLeadingSpace = true

	rows := []*Row{}
	if err := gocsv.UnmarshalCSV(rowReader, &rows); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, pfx.Err(err)
	}

	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
	}

	return &Table{Header: header, Rows: rows}, nil
}

// DetermineDelimiter returns the most likely field separator of a CSV-like
// stream. Only comma, tab and semicolon are accepted; comma is the fallback.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, candidate := range delimiters {
		if len(candidate) == 0 {
			continue
		}
		switch rune(candidate[0]) {
		case ',', '\t', ';':
			return rune(candidate[0])
		}
	}

	return ','
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
