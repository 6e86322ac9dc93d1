package geo

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/zalepa/crimedash/dataset"
)

// Suggestion pairs a data canton with a boundary feature whose name differs
// only in case, accents or punctuation.
type Suggestion struct {
	Canton  string `json:"canton"`
	Feature string `json:"feature"`
}

// Report describes how the canton names of the crime table join against the
// boundary features. Cantons without a boundary are left off the map.
type Report struct {
	Matched         []string     `json:"matched"`
	MissingBoundary []string     `json:"missingBoundary"`
	UnusedFeatures  []string     `json:"unusedFeatures"`
	Suggestions     []Suggestion `json:"suggestions"`
}

// OK reports whether every canton has a boundary.
func (r Report) OK() bool { return len(r.MissingBoundary) == 0 }

// Reconcile joins cantons against c. The national aggregate is never drawn on
// the map and is ignored.
func Reconcile(cantons []string, c *Collection) Report {
	var rep Report
	used := make(map[string]bool)
	for _, name := range cantons {
		if name == dataset.National {
			continue
		}
		if _, ok := c.Lookup(name); ok {
			rep.Matched = append(rep.Matched, name)
			used[name] = true
			continue
		}
		rep.MissingBoundary = append(rep.MissingBoundary, name)
	}
	for _, f := range c.features {
		if !used[f.Name] {
			rep.UnusedFeatures = append(rep.UnusedFeatures, f.Name)
		}
	}
	sort.Strings(rep.Matched)
	sort.Strings(rep.MissingBoundary)
	sort.Strings(rep.UnusedFeatures)

	folded := make(map[string][]string)
	for _, name := range rep.UnusedFeatures {
		k := fold(name)
		folded[k] = append(folded[k], name)
	}
	for _, name := range rep.MissingBoundary {
		for _, feat := range folded[fold(name)] {
			rep.Suggestions = append(rep.Suggestions, Suggestion{Canton: name, Feature: feat})
		}
	}
	return rep
}

// fold lowercases s and strips accents, spaces and punctuation, so that
// "Genève" and "GENEVE" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(out) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
