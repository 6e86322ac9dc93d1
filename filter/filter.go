// Package filter narrows the crime table to a user selection.
package filter

import (
	"errors"
	"fmt"

	"github.com/zalepa/crimedash/dataset"
)

// All is the canton selector value that disables canton filtering.
const All = "all"

var (
	ErrYearRange     = errors.New("year range is inverted")
	ErrUnknownCanton = errors.New("unknown canton")
)

// Selection is the set of active filters. Year bounds are inclusive. An empty
// Offences slice selects nothing; use Default to select every offence type.
type Selection struct {
	YearFrom int      `json:"yearFrom"`
	YearTo   int      `json:"yearTo"`
	Canton   string   `json:"canton"`
	Offences []string `json:"offences"`
}

// Default returns the page-load selection: the whole year range, every canton
// and every offence type.
func Default(t *dataset.Table) Selection {
	min, max := t.YearBounds()
	return Selection{
		YearFrom: min,
		YearTo:   max,
		Canton:   All,
		Offences: t.Offences(),
	}
}

// Validate clamps the year range into the table's observed bounds and checks
// the canton selector. It returns the normalized selection.
func Validate(t *dataset.Table, sel Selection) (Selection, error) {
	if sel.YearFrom > sel.YearTo {
		return sel, fmt.Errorf("%w: %d > %d", ErrYearRange, sel.YearFrom, sel.YearTo)
	}
	min, max := t.YearBounds()
	sel.YearFrom = clamp(sel.YearFrom, min, max)
	sel.YearTo = clamp(sel.YearTo, min, max)

	if sel.Canton == "" {
		sel.Canton = All
	}
	if sel.Canton != All && !t.HasCanton(sel.Canton) {
		return sel, fmt.Errorf("%w %q", ErrUnknownCanton, sel.Canton)
	}
	return sel, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Apply returns a copy of the rows matching sel. The table is not modified.
func Apply(t *dataset.Table, sel Selection) []dataset.Record {
	if len(sel.Offences) == 0 {
		return []dataset.Record{}
	}
	offences := make(map[string]bool, len(sel.Offences))
	for _, o := range sel.Offences {
		offences[o] = true
	}

	out := []dataset.Record{}
	for _, r := range t.Records() {
		if r.Year < sel.YearFrom || r.Year > sel.YearTo {
			continue
		}
		if sel.Canton != All && r.Canton != sel.Canton {
			continue
		}
		if !offences[r.Offence] {
			continue
		}
		out = append(out, r)
	}
	return out
}
