package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zalepa/crimedash/aggregate"
	"github.com/zalepa/crimedash/category"
	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/filter"
	"github.com/zalepa/crimedash/geo"
)

// Section ids, in page order.
const (
	SectionMap            = "map"
	SectionCantonTrend    = "canton-trend"
	SectionSocioeconomic  = "socioeconomic"
	SectionResolution     = "resolution-by-category"
	SectionCategoryTrend  = "category-trend"
	SectionResolutionRate = "resolution-rate"
	SectionCantonCategory = "canton-category"
	SectionCorrelation    = "correlation"
	SectionBubbles        = "category-bubbles"
	SectionTopOffences    = "top-offences"
)

// SectionIDs lists every section in page order.
var SectionIDs = []string{
	SectionMap, SectionCantonTrend, SectionSocioeconomic, SectionResolution, SectionCategoryTrend,
	SectionResolutionRate, SectionCantonCategory, SectionCorrelation, SectionBubbles, SectionTopOffences,
}

const topOffences = 20

// KPI holds the headline numbers. They are computed over "Total de casos"
// rows only, so no case is counted twice. Means are nil when there is
// nothing to average.
type KPI struct {
	TotalCrimes  float64  `json:"totalCrimes"`
	MeanRate     *float64 `json:"meanRate"`
	MeanResolved *float64 `json:"meanResolved"`
	// Rows counts every row behind the figures, itemized levels included.
	// With all cantons selected the national rows are not among them.
	Rows int `json:"rows"`
}

// Section is one chart of the page with its heading and narrative.
type Section struct {
	ID        string     `json:"id"`
	Heading   string     `json:"heading"`
	Narrative string     `json:"narrative"`
	Chart     chart.Spec `json:"chart"`
}

// Page is everything the dashboard shows for one view.
type Page struct {
	Title       string              `json:"title"`
	Author      string              `json:"author"`
	Intro       string              `json:"intro"`
	View        View                `json:"view"`
	KPI         KPI                 `json:"kpi"`
	Sections    []Section           `json:"sections"`
	Conclusions []Conclusion        `json:"conclusions"`
	Categories  []category.Category `json:"categories"`
}

// Section returns the section with the given id.
func (p *Page) Section(id string) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

var columnLabels = map[string]string{
	"count":      "Crimes",
	"rate":       "Crimes per 1,000 inhabitants",
	"gdp":        "GDP per capita (CHF)",
	"foreign":    "Foreign population (%)",
	"population": "Population",
	"share":      "Share of cases (%)",
}

// Build runs the whole pipeline for a validated view: filter, categorize,
// aggregate and chart. g may be nil; when set, cantons without a boundary
// are left off the map.
func Build(t *dataset.Table, g *geo.Collection, v View) Page {
	rows := filter.Apply(t, v.Selection)
	// The canton trend draws the national series next to the cantons.
	trendTotals, _ := split(rows)
	if v.Canton == filter.All {
		rows = withoutNational(rows)
	}
	totals, itemized := split(rows)

	min, max := t.YearBounds()
	p := Page{
		Title:       fmt.Sprintf("Crime in Switzerland (%d-%d)", min, max),
		Author:      author,
		Intro:       intro,
		View:        v,
		KPI:         kpis(totals, len(rows)),
		Conclusions: conclusions,
		Categories:  category.All(),
	}

	// Shared by the map, the canton trend and the socio-economic scatter.
	cantonYear := aggregate.GroupBy(trendTotals,
		[]aggregate.Key{aggregate.Canton, aggregate.Year},
		aggregate.Col(aggregate.Count, aggregate.Sum),
		aggregate.Col(aggregate.Rate, aggregate.Mean),
		aggregate.Col(aggregate.GDP, aggregate.First),
		aggregate.Col(aggregate.Foreign, aggregate.First),
		aggregate.Col(aggregate.Population, aggregate.First),
	)
	cantonsOnly := cantonYear
	if v.Canton == filter.All {
		cantonsOnly = cantonYear.Where(func(r aggregate.Row) bool { return r.Keys[0] != dataset.National })
	}

	charts := []chart.Spec{
		mapChart(cantonsOnly, g, v),
		chart.Lines(SectionCantonTrend, "", cantonYear, "canton", "year", string(v.TrendMetric), "Year", v.TrendMetric.Label()),
		socioChart(cantonsOnly),
		resolutionChart(itemized),
		categoryTrendChart(totals),
		resolutionRateChart(itemized),
		cantonCategoryChart(totals),
		correlationChart(totals),
		bubbleChart(totals),
		topOffencesChart(totals),
	}
	for _, c := range charts {
		n := sectionText[c.ID]
		c.Title = n.heading
		p.Sections = append(p.Sections, Section{ID: c.ID, Heading: n.heading, Narrative: n.text, Chart: c})
	}
	return p
}

// withoutNational drops the country-wide rows, which would otherwise be
// counted a second time next to the cantons.
func withoutNational(rows []dataset.Record) []dataset.Record {
	out := make([]dataset.Record, 0, len(rows))
	for _, r := range rows {
		if r.Canton != dataset.National {
			out = append(out, r)
		}
	}
	return out
}

func split(rows []dataset.Record) (totals, itemized []dataset.Record) {
	for _, r := range rows {
		if r.IsTotal() {
			totals = append(totals, r)
		} else {
			itemized = append(itemized, r)
		}
	}
	return totals, itemized
}

func kpis(totals []dataset.Record, rows int) KPI {
	k := KPI{Rows: rows}
	all := aggregate.GroupBy(totals, nil,
		aggregate.Col(aggregate.Count, aggregate.Sum),
		aggregate.Col(aggregate.Rate, aggregate.Mean),
		aggregate.Col(aggregate.Resolved, aggregate.Mean),
	)
	if all.Len() == 0 {
		return k
	}
	k.TotalCrimes = all.Value(0, "count")
	k.MeanRate = chart.Num(all.Value(0, "rate"))
	k.MeanResolved = chart.Num(all.Value(0, "resolved"))
	return k
}

func mapChart(cantonYear aggregate.Table, g *geo.Collection, v View) chart.Spec {
	regions := cantonYear.Where(func(r aggregate.Row) bool {
		name := r.Keys[0]
		if name == dataset.National {
			return false
		}
		if g != nil {
			_, ok := g.Lookup(name)
			return ok
		}
		return true
	})
	metric := string(v.MapMetric)
	return chart.Map(SectionMap, "", regions, "canton", "year", strconv.Itoa(v.YearTo), metric, v.MapMetric.Label())
}

func socioChart(cantonYear aggregate.Table) chart.Spec {
	return chart.Bubbles(SectionSocioeconomic, "", cantonYear, "year", "canton", "", chart.BubbleAxes{
		X: "gdp", Y: "rate", Size: "population", Color: "foreign",
		XLabel: columnLabels["gdp"], YLabel: columnLabels["rate"],
		SizeLabel: columnLabels["population"], ColorLabel: columnLabels["foreign"],
	})
}

func resolutionChart(itemized []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(itemized,
		[]aggregate.Key{aggregate.Category, aggregate.Level},
		aggregate.Col(aggregate.Count, aggregate.Sum),
	).WithShare("count", "share", 1)
	return chart.Stacked(SectionResolution, "", t, "category", "level", "share", true, "Category", columnLabels["share"])
}

func categoryTrendChart(totals []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(totals,
		[]aggregate.Key{aggregate.Year, aggregate.Category},
		aggregate.Col(aggregate.Count, aggregate.Sum),
	)
	return chart.Lines(SectionCategoryTrend, "", t, "category", "year", "count", "Year", "Number of offences")
}

func resolutionRateChart(itemized []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(itemized,
		[]aggregate.Key{aggregate.Year, aggregate.Category, aggregate.Level},
		aggregate.Col(aggregate.Count, aggregate.Sum),
	).WithShare("count", "share", 2)
	t = t.Where(t.KeyEquals("level", dataset.LevelResolved))
	s := chart.Lines(SectionResolutionRate, "", t, "category", "year", "share", "Year", "Cases resolved (%)")
	s.Percent = true
	return s
}

func cantonCategoryChart(totals []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(totals,
		[]aggregate.Key{aggregate.Canton, aggregate.Category},
		aggregate.Col(aggregate.Count, aggregate.Sum),
	)
	return chart.Stacked(SectionCantonCategory, "", t, "canton", "category", "count", false, "Canton", columnLabels["count"])
}

var correlationColumns = []string{"count", "gdp", "foreign", "population"}

func correlationChart(totals []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(totals,
		[]aggregate.Key{aggregate.Canton},
		aggregate.Col(aggregate.Count, aggregate.Sum),
		aggregate.Col(aggregate.GDP, aggregate.Mean),
		aggregate.Col(aggregate.Foreign, aggregate.Mean),
		aggregate.Col(aggregate.Population, aggregate.Mean),
	)
	return chart.CorrelationHeatmap(SectionCorrelation, "", aggregate.Correlation(t, correlationColumns), columnLabels)
}

func bubbleChart(totals []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(totals,
		[]aggregate.Key{aggregate.Year, aggregate.Category, aggregate.Canton},
		aggregate.Col(aggregate.Count, aggregate.Sum),
		aggregate.Col(aggregate.GDP, aggregate.First),
		aggregate.Col(aggregate.Foreign, aggregate.First),
		aggregate.Col(aggregate.Population, aggregate.First),
	)
	return chart.Bubbles(SectionBubbles, "", t, "year", "canton", "category", chart.BubbleAxes{
		X: "gdp", Y: "count", Size: "population",
		XLabel: columnLabels["gdp"], YLabel: columnLabels["count"], SizeLabel: columnLabels["population"],
	})
}

func topOffencesChart(totals []dataset.Record) chart.Spec {
	t := aggregate.GroupBy(totals,
		[]aggregate.Key{aggregate.Offence},
		aggregate.Col(aggregate.Count, aggregate.Sum),
	).Top("count", topOffences)
	return chart.Bars(SectionTopOffences, "", t, "offence", "count", "Offence type", columnLabels["count"])
}

// FormatKPI renders the headline numbers the way the page shows them.
func FormatKPI(k KPI) (total, rate, resolved string) {
	total = chart.FormatCount(k.TotalCrimes)
	rate = chart.FormatFixed(chart.Val(k.MeanRate), 2)
	resolved = chart.Missing
	if v := chart.Val(k.MeanResolved); !math.IsNaN(v) {
		resolved = chart.FormatFixed(v, 2) + "%"
	}
	return total, rate, resolved
}
