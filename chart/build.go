package chart

import (
	"sort"
	"strconv"

	"github.com/zalepa/crimedash/aggregate"
)

// Map builds a choropleth with one region per distinct key value of
// regionKey, taking col from the rows whose yearKey equals year.
func Map(id, title string, t aggregate.Table, regionKey, yearKey, year, col string, label string) Spec {
	s := Spec{ID: id, Kind: Choropleth, Title: title, ValueLabel: label}
	rows := t.Where(t.KeyEquals(yearKey, year))
	for i := range rows.Rows {
		s.Regions = append(s.Regions, Region{
			Name:  rows.Key(i, regionKey),
			Value: Num(rows.Value(i, col)),
		})
	}
	s.Empty = len(s.Regions) == 0
	return s
}

// Lines builds one series per distinct seriesKey value, plotting col against
// the numeric xKey. Series share the same x values; gaps are nil.
func Lines(id, title string, t aggregate.Table, seriesKey, xKey, col string, xLabel, yLabel string) Spec {
	s := Spec{ID: id, Kind: Line, Title: title, XLabel: xLabel, YLabel: yLabel}

	xs := numericKeys(t, xKey)
	byName := make(map[string]map[float64]float64)
	var names []string
	for i := range t.Rows {
		name := t.Key(i, seriesKey)
		x, err := strconv.ParseFloat(t.Key(i, xKey), 64)
		if err != nil {
			continue
		}
		if _, ok := byName[name]; !ok {
			byName[name] = make(map[float64]float64)
			names = append(names, name)
		}
		byName[name][x] = t.Value(i, col)
	}
	sort.Strings(names)

	for _, name := range names {
		s.Series = append(s.Series, Series{
			Name: name,
			X:    xs,
			Y:    alignValues(byName[name], xs),
		})
	}
	s.Empty = len(s.Series) == 0
	return s
}

// Stacked builds a stacked bar chart: one bar per distinct xKey value, one
// stack segment per distinct stackKey value. With percent set the values are
// labelled as percentages.
func Stacked(id, title string, t aggregate.Table, xKey, stackKey, col string, percent bool, xLabel, yLabel string) Spec {
	s := Spec{ID: id, Kind: StackedBar, Title: title, XLabel: xLabel, YLabel: yLabel, Percent: percent}
	s.Categories = t.Distinct(xKey)
	stacks := t.Distinct(stackKey)
	sort.Strings(stacks)

	pos := make(map[string]int, len(s.Categories))
	for i, c := range s.Categories {
		pos[c] = i
	}
	for _, stack := range stacks {
		ser := Series{
			Name:   stack,
			Y:      make([]*float64, len(s.Categories)),
			Labels: make([]string, len(s.Categories)),
		}
		rows := t.Where(t.KeyEquals(stackKey, stack))
		for i := range rows.Rows {
			j := pos[rows.Key(i, xKey)]
			v := rows.Value(i, col)
			ser.Y[j] = Num(v)
			if percent {
				ser.Labels[j] = FormatPercent(v)
			} else {
				ser.Labels[j] = FormatCount(v)
			}
		}
		s.Series = append(s.Series, ser)
	}
	s.Empty = len(s.Categories) == 0
	return s
}

// Bars builds a single-series bar chart in row order.
func Bars(id, title string, t aggregate.Table, xKey, col string, xLabel, yLabel string) Spec {
	s := Spec{ID: id, Kind: Bar, Title: title, XLabel: xLabel, YLabel: yLabel}
	ser := Series{Name: yLabel}
	for i := range t.Rows {
		v := t.Value(i, col)
		s.Categories = append(s.Categories, t.Key(i, xKey))
		ser.Y = append(ser.Y, Num(v))
		ser.Labels = append(ser.Labels, FormatCount(v))
	}
	if len(s.Categories) > 0 {
		s.Series = []Series{ser}
	}
	s.Empty = len(s.Categories) == 0
	return s
}

// BubbleAxes names the table columns a bubble chart draws from. Color may be
// empty when bubbles are colored by group instead.
type BubbleAxes struct {
	X, Y, Size, Color                     string
	XLabel, YLabel, SizeLabel, ColorLabel string
}

// Bubbles builds an animated scatter chart with one frame per distinct
// frameKey value and one bubble per row. A non-empty groupKey facets the
// chart by that key.
func Bubbles(id, title string, t aggregate.Table, frameKey, nameKey, groupKey string, ax BubbleAxes) Spec {
	s := Spec{
		ID: id, Kind: Scatter, Title: title,
		XLabel: ax.XLabel, YLabel: ax.YLabel, SizeLabel: ax.SizeLabel, ColorLabel: ax.ColorLabel,
	}
	if groupKey != "" {
		s.Facets = t.Distinct(groupKey)
		sort.Strings(s.Facets)
	}
	frames := make(map[string]int)
	for i := range t.Rows {
		label := t.Key(i, frameKey)
		fi, ok := frames[label]
		if !ok {
			fi = len(s.Frames)
			frames[label] = fi
			s.Frames = append(s.Frames, Frame{Label: label})
		}
		b := Bubble{
			Name: t.Key(i, nameKey),
			X:    Num(t.Value(i, ax.X)),
			Y:    Num(t.Value(i, ax.Y)),
			Size: Num(t.Value(i, ax.Size)),
		}
		if groupKey != "" {
			b.Group = t.Key(i, groupKey)
		}
		if ax.Color != "" {
			b.Color = Num(t.Value(i, ax.Color))
		}
		s.Frames[fi].Points = append(s.Frames[fi].Points, b)
	}
	sort.SliceStable(s.Frames, func(i, j int) bool {
		a, errA := strconv.ParseFloat(s.Frames[i].Label, 64)
		b, errB := strconv.ParseFloat(s.Frames[j].Label, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return s.Frames[i].Label < s.Frames[j].Label
	})
	s.Empty = len(s.Frames) == 0
	return s
}

// CorrelationHeatmap builds a heatmap from a correlation matrix. labels maps
// column names to display names; unknown names are shown as is.
func CorrelationHeatmap(id, title string, m aggregate.Matrix, labels map[string]string) Spec {
	s := Spec{ID: id, Kind: Heatmap, Title: title, ValueLabel: "Correlation"}
	mx := &Matrix{Labels: make([]string, len(m.Labels)), Values: make([][]*float64, len(m.Values))}
	anyValue := false
	for i, l := range m.Labels {
		if d, ok := labels[l]; ok {
			l = d
		}
		mx.Labels[i] = l
	}
	for i, row := range m.Values {
		mx.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			mx.Values[i][j] = Num(v)
			anyValue = anyValue || mx.Values[i][j] != nil
		}
	}
	s.Matrix = mx
	s.Empty = !anyValue
	return s
}

func numericKeys(t aggregate.Table, key string) []float64 {
	seen := make(map[float64]bool)
	var xs []float64
	for _, k := range t.Distinct(key) {
		x, err := strconv.ParseFloat(k, 64)
		if err != nil || seen[x] {
			continue
		}
		seen[x] = true
		xs = append(xs, x)
	}
	sort.Float64s(xs)
	return xs
}

// alignValues maps points onto xs, leaving gaps nil.
func alignValues(points map[float64]float64, xs []float64) []*float64 {
	vals := make([]*float64, len(xs))
	for i, x := range xs {
		if v, ok := points[x]; ok {
			vals[i] = Num(v)
		}
	}
	return vals
}
