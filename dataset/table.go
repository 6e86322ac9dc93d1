package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmpty         = errors.New("dataset has no rows")
)

// ParseError reports a cell that could not be converted.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Table is the loaded crime dataset. It is never modified after Parse
// returns; callers must treat the slice returned by Records as read-only.
type Table struct {
	records  []Record
	minYear  int
	maxYear  int
	cantons  []string
	offences []string
	levels   []string
}

// Load reads a delimited crime table from path. Gzip-compressed files are
// detected by their magic bytes, so both "x.csv.gz" and "x.csv" work.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	t, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Parse reads a ';'-separated, '.'-decimal, UTF-8 table with a header row.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		// A UTF-8 BOM sometimes survives on the first header cell.
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		idx[h] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, c)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return newTable(records), nil
}

func parseRow(row []string, idx map[string]int, line int) (Record, error) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec Record
	year, err := strconv.ParseFloat(cell(colYear), 64)
	if err != nil || year != math.Trunc(year) {
		if err == nil {
			err = fmt.Errorf("year %q is not an integer", cell(colYear))
		}
		return rec, &ParseError{Line: line, Column: colYear, Err: err}
	}
	rec.Year = int(year)
	rec.Canton = cell(colCanton)
	rec.Offence = cell(colOffence)
	rec.Level = cell(colLevel)

	numeric := []struct {
		col string
		dst *float64
	}{
		{colCount, &rec.Count},
		{colRate, &rec.Rate},
		{colResolved, &rec.Resolved},
		{colGDP, &rec.GDP},
		{colForeign, &rec.Foreign},
		{colPopulation, &rec.Population},
	}
	for _, n := range numeric {
		v, err := parseNumber(cell(n.col))
		if err != nil {
			return rec, &ParseError{Line: line, Column: n.col, Err: err}
		}
		*n.dst = v
	}
	return rec, nil
}

// parseNumber treats blank and "nan" cells as missing.
func parseNumber(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func newTable(records []Record) *Table {
	t := &Table{records: records, minYear: records[0].Year, maxYear: records[0].Year}
	cantons := make(map[string]bool)
	offences := make(map[string]bool)
	levels := make(map[string]bool)
	for _, r := range records {
		if r.Year < t.minYear {
			t.minYear = r.Year
		}
		if r.Year > t.maxYear {
			t.maxYear = r.Year
		}
		if !cantons[r.Canton] {
			cantons[r.Canton] = true
			t.cantons = append(t.cantons, r.Canton)
		}
		if !offences[r.Offence] {
			offences[r.Offence] = true
			t.offences = append(t.offences, r.Offence)
		}
		if !levels[r.Level] {
			levels[r.Level] = true
			t.levels = append(t.levels, r.Level)
		}
	}
	sort.Strings(t.cantons)
	return t
}

// Records returns every row in file order.
func (t *Table) Records() []Record { return t.records }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.records) }

// YearBounds returns the smallest and largest year in the table.
func (t *Table) YearBounds() (min, max int) { return t.minYear, t.maxYear }

// Cantons returns the distinct canton names, sorted.
func (t *Table) Cantons() []string { return append([]string(nil), t.cantons...) }

// HasCanton reports whether name occurs in the canton column.
func (t *Table) HasCanton(name string) bool {
	i := sort.SearchStrings(t.cantons, name)
	return i < len(t.cantons) && t.cantons[i] == name
}

// Offences returns the distinct offence types in order of first appearance.
func (t *Table) Offences() []string { return append([]string(nil), t.offences...) }

// Levels returns the distinct resolution levels in order of first appearance.
func (t *Table) Levels() []string { return append([]string(nil), t.levels...) }
