// Package category folds free-text offence labels into five coarse groups.
package category

import "strings"

// Category is one of the five coarse offence groups.
type Category string

const (
	Robbery  Category = "Robberies / Embezzlement / Damage"
	Violence Category = "Violence / Homicide"
	Fraud    Category = "Fraud / Corruption"
	Sexual   Category = "Sexual offences"
	Other    Category = "Other"
)

// rules are tested in order and the first hit wins, so a label that mentions
// both "vol" and "violence" is a robbery.
var rules = []struct {
	cat      Category
	keywords []string
}{
	{Robbery, []string{"vol", "détournement", "dommages"}},
	{Violence, []string{"violence", "lésions", "meurtre"}},
	{Fraud, []string{"fraude", "escroquerie", "corruption"}},
	{Sexual, []string{"sexuel", "inceste", "prostitution"}},
}

// Of returns the category of an offence-type label.
func Of(label string) Category {
	lower := strings.ToLower(label)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.cat
			}
		}
	}
	return Other
}

// All returns every category in display order.
func All() []Category {
	return []Category{Robbery, Violence, Fraud, Sexual, Other}
}

func (c Category) String() string { return string(c) }
