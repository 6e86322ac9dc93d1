// Package render draws chart specifications with gonum/plot: single charts as
// PNG, SVG or PDF images, and the whole dashboard as a multi-page PDF report.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/geo"
)

var (
	ErrFormat = errors.New("unsupported image format")
	ErrKind   = errors.New("unsupported chart kind")
	ErrNoGeo  = errors.New("choropleth needs canton boundaries")
)

var (
	chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	noData    = color.Gray{Y: 225}
	outline   = color.Gray{Y: 110}

	// end points of the white to red map scale
	lowRed  = color.RGBA{R: 255, G: 245, B: 240, A: 255}
	highRed = color.RGBA{R: 165, G: 15, B: 21, A: 255}
)

const emptyText = "No data for the current selection"

// Formats lists the image formats WriteImage accepts.
var Formats = []string{"png", "svg", "pdf"}

// ContentType returns the MIME type of an image format.
func ContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

// WriteImage renders s to w in the given format.
func WriteImage(w io.Writer, s chart.Spec, g *geo.Collection, format string, width, height vg.Length) error {
	if ContentType(format) == "application/octet-stream" {
		return fmt.Errorf("%w %q", ErrFormat, format)
	}
	p, err := Plot(s, g)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Plot builds the plot for s. g supplies the canton outlines for
// choropleths; other kinds ignore it.
func Plot(s chart.Spec, g *geo.Collection) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = sanitize(s.Title)
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White
	p.X.Label.Text = sanitize(s.XLabel)
	p.Y.Label.Text = sanitize(s.YLabel)
	p.Legend.Top = true

	if s.Empty {
		return p, placeholder(p)
	}

	var err error
	switch s.Kind {
	case chart.Choropleth:
		err = drawMap(p, s, g)
	case chart.Line:
		err = drawLines(p, s)
	case chart.Bar, chart.StackedBar:
		err = drawBars(p, s)
	case chart.Scatter:
		err = drawBubbles(p, s)
	case chart.Heatmap:
		err = drawHeatmap(p, s)
	default:
		return nil, fmt.Errorf("%w %q", ErrKind, s.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.ID, err)
	}
	return p, nil
}

// The PDF font has no glyphs for long dashes.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\u2014", "-")
	return strings.ReplaceAll(s, "\u2013", "-")
}

func placeholder(p *plot.Plot) error {
	p.HideAxes()
	l, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0, Y: 0}},
		Labels: []string{emptyText},
	})
	if err != nil {
		return err
	}
	l.TextStyle[0].XAlign = draw.XCenter
	l.TextStyle[0].Color = color.Gray{Y: 100}
	p.Add(l)
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1
	return nil
}

func drawMap(p *plot.Plot, s chart.Spec, g *geo.Collection) error {
	if g == nil {
		return ErrNoGeo
	}
	p.HideAxes()

	values := make(map[string]float64)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range s.Regions {
		if r.Value == nil {
			continue
		}
		if _, ok := g.Lookup(r.Name); !ok {
			continue
		}
		values[r.Name] = *r.Value
		lo = math.Min(lo, *r.Value)
		hi = math.Max(hi, *r.Value)
	}

	for _, f := range g.Features() {
		fill := color.Color(noData)
		if v, ok := values[f.Name]; ok {
			fill = shade(v, lo, hi)
		}
		for _, poly := range f.Polygons() {
			rings := make([]plotter.XYer, 0, len(poly))
			for _, ring := range poly {
				xys := make(plotter.XYs, len(ring))
				for i, c := range ring {
					xys[i] = plotter.XY{X: c.X(), Y: c.Y()}
				}
				rings = append(rings, xys)
			}
			pg, err := plotter.NewPolygon(rings...)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			pg.Color = fill
			pg.LineStyle.Color = outline
			pg.LineStyle.Width = vg.Points(0.5)
			p.Add(pg)
		}
	}

	if len(values) > 0 {
		p.Legend.Add(sanitize(s.ValueLabel)+" "+formatTick(lo, false), swatch{shade(lo, lo, hi)})
		if hi > lo {
			p.Legend.Add(sanitize(s.ValueLabel)+" "+formatTick(hi, false), swatch{shade(hi, lo, hi)})
		}
	}
	return nil
}

// shade interpolates between lowRed and highRed.
func shade(v, lo, hi float64) color.Color {
	t := 1.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	mix := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + t*(float64(b)-float64(a)))) }
	return color.RGBA{
		R: mix(lowRed.R, highRed.R),
		G: mix(lowRed.G, highRed.G),
		B: mix(lowRed.B, highRed.B),
		A: 255,
	}
}

// swatch is a legend thumbnail filled with one color.
type swatch struct{ color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.Color, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}

func drawLines(p *plot.Plot, s chart.Spec) error {
	for i, ser := range s.Series {
		var pts plotter.XYs
		for j, y := range ser.Y {
			if y == nil || j >= len(ser.X) {
				continue
			}
			pts = append(pts, plotter.XY{X: ser.X[j], Y: *y})
		}
		if len(pts) == 0 {
			continue
		}
		clr := plotutil.Color(i)

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = clr
		line.Width = vg.Points(1.5)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.Color = clr
		scatter.Radius = vg.Points(2.5)
		scatter.Shape = draw.CircleGlyph{}

		p.Add(line, scatter)
		p.Legend.Add(sanitize(ser.Name), line, scatter)
	}
	p.Add(plotter.NewGrid())
	p.X.Tick.Marker = yearTicks{}
	p.Y.Tick.Marker = numTicks{percent: s.Percent}
	return nil
}

func drawBars(p *plot.Plot, s chart.Spec) error {
	n := len(s.Categories)
	width := vg.Points(math.Max(4, math.Min(36, 360/float64(n))))

	var below *plotter.BarChart
	for i, ser := range s.Series {
		vals := make(plotter.Values, n)
		for j := 0; j < n && j < len(ser.Y); j++ {
			if ser.Y[j] != nil {
				vals[j] = *ser.Y[j]
			}
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = 0
		bars.Color = chartBlue
		if len(s.Series) > 1 {
			bars.Color = plotutil.Color(i)
			p.Legend.Add(sanitize(ser.Name), bars)
		}
		if s.Kind == chart.StackedBar && below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		below = bars
	}

	labels := make([]string, n)
	for i, c := range s.Categories {
		labels[i] = shorten(sanitize(c), 28)
	}
	p.NominalX(labels...)
	if n > 5 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Y.Min = 0
	p.Y.Tick.Marker = numTicks{percent: s.Percent}
	return nil
}

// drawBubbles draws the last frame of an animated scatter chart.
func drawBubbles(p *plot.Plot, s chart.Spec) error {
	f := s.Frames[len(s.Frames)-1]
	p.Title.Text += " (" + f.Label + ")"

	maxSize := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range f.Points {
		if v := chart.Val(b.Size); v > maxSize {
			maxSize = v
		}
		if b.Color != nil {
			lo = math.Min(lo, *b.Color)
			hi = math.Max(hi, *b.Color)
		}
	}
	var cm palette.ColorMap
	if !math.IsInf(lo, 1) {
		if hi <= lo {
			hi = lo + 1
		}
		cm = moreland.SmoothBlueRed()
		cm.SetMax(hi)
		cm.SetMin(lo)
	}

	groups := s.Facets
	if len(groups) == 0 {
		groups = []string{""}
	}
	drawn := 0
	for gi, group := range groups {
		var (
			pts    plotter.XYs
			styles []draw.GlyphStyle
		)
		for _, b := range f.Points {
			if b.Group != group || b.X == nil || b.Y == nil {
				continue
			}
			clr := color.Color(chartBlue)
			if group != "" {
				clr = plotutil.Color(gi)
			} else if cm != nil && b.Color != nil {
				if c, err := cm.At(*b.Color); err == nil {
					clr = c
				}
			}
			radius := vg.Points(4)
			if size := chart.Val(b.Size); maxSize > 0 && size > 0 {
				radius = vg.Points(3 + 15*math.Sqrt(size/maxSize))
			}
			pts = append(pts, plotter.XY{X: *b.X, Y: *b.Y})
			styles = append(styles, draw.GlyphStyle{Color: clr, Radius: radius, Shape: draw.CircleGlyph{}})
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle { return styles[i] }
		sc.GlyphStyle = draw.GlyphStyle{Color: styles[0].Color, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
		p.Add(sc)
		if group != "" {
			p.Legend.Add(sanitize(group), sc)
		}
		drawn++
	}
	if drawn == 0 {
		return placeholder(p)
	}
	if cm != nil && len(s.Facets) == 0 {
		if c, err := cm.At(lo); err == nil {
			p.Legend.Add(sanitize(s.ColorLabel)+" "+formatTick(lo, false), swatch{c})
		}
		if c, err := cm.At(hi); err == nil {
			p.Legend.Add(sanitize(s.ColorLabel)+" "+formatTick(hi, false), swatch{c})
		}
	}
	p.Add(plotter.NewGrid())
	p.X.Tick.Marker = numTicks{}
	p.Y.Tick.Marker = numTicks{}
	return nil
}

// matrixGrid adapts a square chart matrix to plotter.GridXYZ.
type matrixGrid struct{ m *chart.Matrix }

func (g matrixGrid) Dims() (c, r int)   { return len(g.m.Labels), len(g.m.Labels) }
func (g matrixGrid) Z(c, r int) float64 { return chart.Val(g.m.Values[r][c]) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

func drawHeatmap(p *plot.Plot, s chart.Spec) error {
	cm := moreland.SmoothBlueRed()
	cm.SetMax(1)
	cm.SetMin(-1)
	h := plotter.NewHeatMap(matrixGrid{s.Matrix}, cm.Palette(255))
	h.Min, h.Max = -1, 1
	h.NaN = noData
	p.Add(h)

	var (
		xys    plotter.XYs
		labels []string
	)
	for r, row := range s.Matrix.Values {
		for c, v := range row {
			if v == nil {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, chart.FormatFixed(*v, 2))
		}
	}
	if len(xys) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return err
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}

	names := make([]string, len(s.Matrix.Labels))
	for i, n := range s.Matrix.Labels {
		names[i] = shorten(sanitize(n), 20)
	}
	p.NominalX(names...)
	p.NominalY(names...)
	return nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
