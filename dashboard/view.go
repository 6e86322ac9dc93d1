package dashboard

import (
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/filter"
)

// View is everything a page depends on: the filters plus the metric chosen
// for the map and for the canton trend.
type View struct {
	filter.Selection
	MapMetric   chart.Metric `json:"mapMetric"`
	TrendMetric chart.Metric `json:"trendMetric"`
}

// DefaultView selects everything and shows rates.
func DefaultView(t *dataset.Table) View {
	return View{
		Selection:   filter.Default(t),
		MapMetric:   chart.Rate,
		TrendMetric: chart.Rate,
	}
}

// Validate normalizes the selection against t and replaces unknown metrics
// with the default.
func (v View) Validate(t *dataset.Table) (View, error) {
	sel, err := filter.Validate(t, v.Selection)
	if err != nil {
		return v, err
	}
	v.Selection = sel
	v.MapMetric = chart.ParseMetric(string(v.MapMetric), chart.Rate)
	v.TrendMetric = chart.ParseMetric(string(v.TrendMetric), chart.Rate)
	return v, nil
}

// key hashes a validated view together with the load generation. Offence
// order does not matter.
func (v View) key(gen int) uint64 {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	write(strconv.Itoa(gen))
	write(strconv.Itoa(v.YearFrom))
	write(strconv.Itoa(v.YearTo))
	write(v.Canton)
	write(string(v.MapMetric))
	write(string(v.TrendMetric))
	offences := slices.Clone(v.Offences)
	slices.Sort(offences)
	offences = slices.Compact(offences)
	write(strconv.Itoa(len(offences)))
	for _, o := range offences {
		write(o)
	}
	return d.Sum64()
}
