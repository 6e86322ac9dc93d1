package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/filter"
	"github.com/zalepa/crimedash/geo"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch
)

// Report writes page to path as a PDF: a summary page with the KPIs and a
// per-canton trend table, one page per section, and a closing page with the
// conclusions.
func Report(path string, page *dashboard.Page, g *geo.Collection) error {
	c := vgpdf.New(pageWidth, pageHeight)

	drawSummaryPages(c, page)

	for _, s := range page.Sections {
		c.NextPage()
		if err := drawSectionPage(c, s, g); err != nil {
			return err
		}
	}

	c.NextPage()
	drawConclusions(c, page)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// PageCount reads a PDF back and returns its number of pages.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return ctx.PageCount, nil
}

const (
	summaryRowHeight = 0.30 * vg.Inch
	nameColWidth     = 2.2 * vg.Inch
	valueColWidth    = 0.9 * vg.Inch
	lineHeight       = 14
)

func selectionLine(v dashboard.View) string {
	canton := v.Canton
	if canton == filter.All {
		canton = "all cantons"
	}
	return fmt.Sprintf("Years %d-%d, %s, %d offence types", v.YearFrom, v.YearTo, canton, len(v.Offences))
}

func drawSummaryPages(c *vgpdf.Canvas, page *dashboard.Page) {
	usableW := pageWidth - 2*pdfMargin
	usableH := pageHeight - 2*pdfMargin
	sparkColWidth := usableW - nameColWidth - valueColWidth

	var series []chart.Series
	metricLabel := ""
	latest := func(v float64) string { return chart.FormatFixed(v, 2) }
	if page.View.TrendMetric == chart.Count {
		latest = chart.FormatCount
	}
	if s, ok := page.Section(dashboard.SectionCantonTrend); ok {
		series = s.Chart.Series
		metricLabel = s.Chart.YLabel
	}

	pageNum := 0
	rowIdx := 0
	for pageNum == 0 || rowIdx < len(series) {
		if pageNum > 0 {
			c.NextPage()
		}
		pageNum++

		dc := draw.New(c)
		area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

		var yTop vg.Length
		if pageNum == 1 {
			yTop = area.Max.Y
			fillText(area, page.Title, vg.Points(16), area.Min.X, yTop-vg.Points(16), color.Black)
			yTop -= 0.4 * vg.Inch
			fillText(area, page.Author, vg.Points(10), area.Min.X, yTop, color.Gray{Y: 100})
			yTop -= vg.Points(lineHeight)
			yTop = fillParagraph(area, page.Intro, vg.Points(10), area.Min.X, yTop-vg.Points(4), 95, color.Gray{Y: 60})
			fillText(area, selectionLine(page.View), vg.Points(10), area.Min.X, yTop-vg.Points(6), color.Gray{Y: 60})
			yTop -= 0.45 * vg.Inch

			total, rate, resolved := dashboard.FormatKPI(page.KPI)
			kpiW := usableW / 3
			for i, kv := range [][2]string{
				{"Total crimes", total},
				{"Mean rate per 1,000 inhabitants", rate},
				{"Mean share of cases resolved", resolved},
			} {
				x := area.Min.X + vg.Length(i)*kpiW
				fillText(area, kv[0], vg.Points(9), x, yTop, color.Gray{Y: 100})
				fillText(area, kv[1], vg.Points(18), x, yTop-0.35*vg.Inch, color.Black)
			}
			yTop -= 0.7 * vg.Inch

			headerY := yTop - 0.2*vg.Inch
			fillText(area, "Canton", vg.Points(10), area.Min.X, headerY, color.Gray{Y: 80})
			fillText(area, "Latest", vg.Points(10), area.Min.X+nameColWidth, headerY, color.Gray{Y: 80})
			fillText(area, "Trend ("+metricLabel+")", vg.Points(10), area.Min.X+nameColWidth+valueColWidth, headerY, color.Gray{Y: 80})

			sepY := headerY - vg.Points(6)
			strokeHLine(area, area.Min.X, area.Min.X+usableW, sepY, color.Gray{Y: 180})
			yTop = sepY - vg.Points(4)
		} else {
			yTop = area.Max.Y - vg.Points(8)
			fillText(area, page.Title+" (continued)", vg.Points(10), area.Min.X, yTop, color.Gray{Y: 100})
			yTop -= 0.25 * vg.Inch
		}

		rowsThisPage := int((yTop - area.Min.Y) / summaryRowHeight)
		if pageNum > 1 {
			rowsThisPage = int((usableH - 0.25*vg.Inch) / summaryRowHeight)
		}
		if rowsThisPage < 1 {
			rowsThisPage = 1
		}

		drawn := 0
		for rowIdx < len(series) && drawn < rowsThisPage {
			ser := series[rowIdx]
			rowIdx++

			y := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight*0.65
			fillText(area, ser.Name, vg.Points(9), area.Min.X, y, color.Black)

			vals := make([]float64, len(ser.Y))
			for i, v := range ser.Y {
				vals[i] = chart.Val(v)
			}
			fillText(area, latest(lastNonNaN(vals)), vg.Points(9), area.Min.X+nameColWidth, y, color.Black)

			sparkX := area.Min.X + nameColWidth + valueColWidth
			sparkY := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight + vg.Points(2)
			sparkArea := draw.Canvas{
				Canvas: area.Canvas,
				Rectangle: vg.Rectangle{
					Min: vg.Point{X: sparkX, Y: sparkY},
					Max: vg.Point{X: sparkX + sparkColWidth, Y: sparkY + summaryRowHeight - vg.Points(3)},
				},
			}
			drawSparkline(sparkArea, vals)
			drawn++
		}
	}
}

func drawSectionPage(c *vgpdf.Canvas, s dashboard.Section, g *geo.Collection) error {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

	yTop := area.Max.Y - vg.Points(14)
	fillText(area, s.Heading, vg.Points(14), area.Min.X, yTop, color.Black)
	yTop = fillParagraph(area, s.Narrative, vg.Points(10), area.Min.X, yTop-0.3*vg.Inch, 95, color.Gray{Y: 60})

	spec := s.Chart
	spec.Title = ""
	p, err := Plot(spec, g)
	if err != nil {
		return err
	}
	plotTop := yTop - vg.Points(8)
	plotHeight := vg.Length(math.Min(float64(plotTop-area.Min.Y), float64(area.Max.X-area.Min.X)*0.85))
	p.Draw(draw.Canvas{
		Canvas: area.Canvas,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: area.Min.X, Y: plotTop - plotHeight},
			Max: vg.Point{X: area.Max.X, Y: plotTop},
		},
	})
	return nil
}

func drawConclusions(c *vgpdf.Canvas, page *dashboard.Page) {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

	y := area.Max.Y - vg.Points(14)
	fillText(area, "Conclusions", vg.Points(14), area.Min.X, y, color.Black)
	y -= 0.4 * vg.Inch
	for i, cl := range page.Conclusions {
		fillText(area, fmt.Sprintf("%d. %s", i+1, cl.Heading), vg.Points(11), area.Min.X, y, color.Black)
		y = fillParagraph(area, cl.Text, vg.Points(10), area.Min.X, y-vg.Points(lineHeight+2), 95, color.Gray{Y: 60})
		y -= vg.Points(10)
	}
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

func drawSparkline(c draw.Canvas, vals []float64) {
	var pts plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
		}
	}
	if len(pts) < 2 {
		return
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
	}
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

// fillParagraph wraps txt at width runes and returns the baseline below the
// last line.
func fillParagraph(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, width int, clr color.Color) vg.Length {
	for _, line := range wrap(sanitize(txt), width) {
		fillText(c, line, size, x, y, clr)
		y -= size * 1.4
	}
	return y
}

func wrap(txt string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, w := range strings.Fields(txt) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, sanitize(txt))
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
