// Package chart turns aggregated tables into chart specifications. A Spec
// describes what to draw, not how; the browser page and the render package
// both consume it.
package chart

import (
	"math"
)

// Kind selects the chart type.
type Kind string

const (
	Choropleth Kind = "choropleth"
	Line       Kind = "line"
	Scatter    Kind = "scatter"
	StackedBar Kind = "stacked_bar"
	Bar        Kind = "bar"
	Heatmap    Kind = "heatmap"
)

// Series is one named line or bar stack. For line charts X holds the x
// values; for bar charts Y is aligned with Spec.Categories. Missing values
// are nil.
type Series struct {
	Name   string     `json:"name"`
	X      []float64  `json:"x,omitempty"`
	Y      []*float64 `json:"y"`
	Labels []string   `json:"labels,omitempty"`
}

// Region is the value of one canton on a choropleth.
type Region struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// Bubble is one point of a scatter chart.
type Bubble struct {
	Name  string   `json:"name"`
	Group string   `json:"group,omitempty"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Size  *float64 `json:"size"`
	Color *float64 `json:"color,omitempty"`
}

// Frame is one animation step of a scatter chart.
type Frame struct {
	Label  string   `json:"label"`
	Points []Bubble `json:"points"`
}

// Matrix is a labelled square matrix for heatmaps.
type Matrix struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
}

// Spec is a complete chart description.
type Spec struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	XLabel     string   `json:"xLabel,omitempty"`
	YLabel     string   `json:"yLabel,omitempty"`
	ValueLabel string   `json:"valueLabel,omitempty"`
	SizeLabel  string   `json:"sizeLabel,omitempty"`
	ColorLabel string   `json:"colorLabel,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`
	Regions    []Region `json:"regions,omitempty"`
	Frames     []Frame  `json:"frames,omitempty"`
	Facets     []string `json:"facets,omitempty"`
	Matrix     *Matrix  `json:"matrix,omitempty"`
	Percent    bool     `json:"percent,omitempty"`
	// Empty is set when the selection left nothing to draw.
	Empty bool `json:"empty"`
}

// Num converts v for JSON output: NaN and infinities become nil.
func Num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Val dereferences p, mapping nil to NaN.
func Val(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Metric is the per-section choice between absolute counts and rates.
type Metric string

const (
	Count Metric = "count"
	Rate  Metric = "rate"
)

// Metrics lists the selectable metrics.
var Metrics = []Metric{Count, Rate}

// ParseMetric accepts "count" or "rate"; anything else falls back to def.
func ParseMetric(s string, def Metric) Metric {
	switch Metric(s) {
	case Count, Rate:
		return Metric(s)
	}
	return def
}

// Label returns the axis label for m.
func (m Metric) Label() string {
	if m == Rate {
		return "Crimes per 1,000 inhabitants"
	}
	return "Crimes"
}
