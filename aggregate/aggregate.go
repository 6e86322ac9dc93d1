// Package aggregate groups crime records by one or more dimensions and
// reduces their numeric columns.
package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/stats"

	"github.com/zalepa/crimedash/category"
	"github.com/zalepa/crimedash/dataset"
)

// Key extracts a grouping dimension from a record. Numeric keys sort by value
// rather than lexically.
type Key struct {
	Name    string
	Numeric bool
	Of      func(dataset.Record) string
}

var (
	Canton  = Key{Name: "canton", Of: func(r dataset.Record) string { return r.Canton }}
	Year    = Key{Name: "year", Numeric: true, Of: func(r dataset.Record) string { return strconv.Itoa(r.Year) }}
	Offence = Key{Name: "offence", Of: func(r dataset.Record) string { return r.Offence }}
	Level   = Key{Name: "level", Of: func(r dataset.Record) string { return r.Level }}

	// Category derives the coarse offence group on every call.
	Category = Key{Name: "category", Of: func(r dataset.Record) string { return category.Of(r.Offence).String() }}
)

// Field extracts a numeric column from a record.
type Field struct {
	Name string
	Of   func(dataset.Record) float64
}

var (
	Count      = Field{"count", func(r dataset.Record) float64 { return r.Count }}
	Rate       = Field{"rate", func(r dataset.Record) float64 { return r.Rate }}
	Resolved   = Field{"resolved", func(r dataset.Record) float64 { return r.Resolved }}
	GDP        = Field{"gdp", func(r dataset.Record) float64 { return r.GDP }}
	Foreign    = Field{"foreign", func(r dataset.Record) float64 { return r.Foreign }}
	Population = Field{"population", func(r dataset.Record) float64 { return r.Population }}
)

// Op is a per-column reduction.
type Op int

const (
	// Sum adds the non-NaN values; an empty group sums to 0.
	Sum Op = iota
	// Mean averages the non-NaN values; an empty group is NaN.
	Mean
	// First takes the first non-NaN value in row order. It assumes the value
	// is constant within the group, which holds when the group key includes
	// the entity the attribute belongs to.
	First
)

func (o Op) String() string {
	switch o {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case First:
		return "first"
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// Column names an output column and how it is produced.
type Column struct {
	Name  string
	Field Field
	Op    Op
}

// Col returns a column named after its field.
func Col(f Field, op Op) Column {
	return Column{Name: f.Name, Field: f, Op: op}
}

// Row is one group: its key values and reduced column values.
type Row struct {
	Keys   []string
	Values []float64
}

// Table is the result of a group-by. Rows are ordered by their key tuple.
type Table struct {
	KeyNames []string
	Columns  []string
	Rows     []Row

	numeric []bool
}

type accumulator struct {
	keys  []string
	sums  []float64
	vals  [][]float64
	first []float64
	seen  []bool
}

// GroupBy groups rows by keys and reduces each column. With no rows it
// returns an empty table carrying the key and column names.
func GroupBy(rows []dataset.Record, keys []Key, cols ...Column) Table {
	t := Table{
		KeyNames: make([]string, len(keys)),
		Columns:  make([]string, len(cols)),
		numeric:  make([]bool, len(keys)),
	}
	for i, k := range keys {
		t.KeyNames[i] = k.Name
		t.numeric[i] = k.Numeric
	}
	for i, c := range cols {
		t.Columns[i] = c.Name
	}

	groups := make(map[string]*accumulator)
	var order []*accumulator
	for _, r := range rows {
		kv := make([]string, len(keys))
		for i, k := range keys {
			kv[i] = k.Of(r)
		}
		id := strings.Join(kv, "\x00")
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{
				keys:  kv,
				sums:  make([]float64, len(cols)),
				vals:  make([][]float64, len(cols)),
				first: make([]float64, len(cols)),
				seen:  make([]bool, len(cols)),
			}
			groups[id] = acc
			order = append(order, acc)
		}
		for i, c := range cols {
			v := c.Field.Of(r)
			if math.IsNaN(v) {
				continue
			}
			switch c.Op {
			case Sum:
				acc.sums[i] += v
			case Mean:
				acc.vals[i] = append(acc.vals[i], v)
			case First:
				if !acc.seen[i] {
					acc.first[i] = v
					acc.seen[i] = true
				}
			}
		}
	}

	t.Rows = make([]Row, 0, len(order))
	for _, acc := range order {
		row := Row{Keys: acc.keys, Values: make([]float64, len(cols))}
		for i, c := range cols {
			switch c.Op {
			case Sum:
				row.Values[i] = acc.sums[i]
			case Mean:
				row.Values[i] = mean(acc.vals[i])
			case First:
				if acc.seen[i] {
					row.Values[i] = acc.first[i]
				} else {
					row.Values[i] = math.NaN()
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.sortRows()
	return t
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stats.Mean(xs)
}

func (t *Table) sortRows() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i].Keys, t.Rows[j].Keys
		for k := range a {
			if a[k] == b[k] {
				continue
			}
			if k < len(t.numeric) && t.numeric[k] {
				x, errX := strconv.ParseFloat(a[k], 64)
				y, errY := strconv.ParseFloat(b[k], 64)
				if errX == nil && errY == nil {
					return x < y
				}
			}
			return a[k] < b[k]
		}
		return false
	})
}

// Len returns the number of groups.
func (t Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a value column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// KeyIndex returns the position of a key, or -1.
func (t Table) KeyIndex(name string) int {
	for i, k := range t.KeyNames {
		if k == name {
			return i
		}
	}
	return -1
}

// Value returns column col of row i, or NaN if the column does not exist.
func (t Table) Value(i int, col string) float64 {
	c := t.ColumnIndex(col)
	if c < 0 {
		return math.NaN()
	}
	return t.Rows[i].Values[c]
}

// Key returns key name of row i, or "" if the key does not exist.
func (t Table) Key(i int, name string) string {
	k := t.KeyIndex(name)
	if k < 0 {
		return ""
	}
	return t.Rows[i].Keys[k]
}

// Values returns a copy of one column.
func (t Table) Values(col string) []float64 {
	c := t.ColumnIndex(col)
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		if c < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = r.Values[c]
	}
	return out
}

// Distinct returns the distinct values of a key in row order.
func (t Table) Distinct(name string) []string {
	k := t.KeyIndex(name)
	if k < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		if !seen[r.Keys[k]] {
			seen[r.Keys[k]] = true
			out = append(out, r.Keys[k])
		}
	}
	return out
}

// Where returns the rows for which keep is true.
func (t Table) Where(keep func(Row) bool) Table {
	out := t.withRows(nil)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// KeyEquals is a Where predicate matching one key value.
func (t Table) KeyEquals(name, value string) func(Row) bool {
	k := t.KeyIndex(name)
	return func(r Row) bool { return k >= 0 && r.Keys[k] == value }
}

// Top returns the n rows with the largest col, largest first. Ties keep key
// order.
func (t Table) Top(col string, n int) Table {
	c := t.ColumnIndex(col)
	out := t.withRows(append([]Row(nil), t.Rows...))
	if c < 0 {
		return out
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].Values[c] > out.Rows[j].Values[c]
	})
	if n >= 0 && len(out.Rows) > n {
		out.Rows = out.Rows[:n]
	}
	return out
}

// WithShare appends a column holding each row's col value as a percentage of
// the total over rows that share the first outer keys. A zero total yields 0
// for every row in that group.
func (t Table) WithShare(col, name string, outer int) Table {
	c := t.ColumnIndex(col)
	if outer > len(t.KeyNames) {
		outer = len(t.KeyNames)
	}
	totals := make(map[string]float64)
	groupOf := func(r Row) string { return strings.Join(r.Keys[:outer], "\x00") }
	if c >= 0 {
		for _, r := range t.Rows {
			if v := r.Values[c]; !math.IsNaN(v) {
				totals[groupOf(r)] += v
			}
		}
	}

	out := t.withRows(make([]Row, len(t.Rows)))
	out.Columns = append(append([]string(nil), t.Columns...), name)
	for i, r := range t.Rows {
		share := 0.0
		if c >= 0 {
			if total := totals[groupOf(r)]; total != 0 && !math.IsNaN(r.Values[c]) {
				share = 100 * r.Values[c] / total
			}
		}
		vals := append(append([]float64(nil), r.Values...), share)
		out.Rows[i] = Row{Keys: r.Keys, Values: vals}
	}
	return out
}

func (t Table) withRows(rows []Row) Table {
	return Table{KeyNames: t.KeyNames, Columns: t.Columns, Rows: rows, numeric: t.numeric}
}
