package cmd

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/config"
	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/filter"
)

// Summary implements the "summary" subcommand.
func Summary(args []string) {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	src := addSourceFlags(fs, cfg)
	vf := addViewFlags(fs)
	top := fs.Int("top", 10, "number of offence types to list")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: crimedash summary [data] [flags]

Print the headline figures, a per-canton trend table and the most frequent
offence types for a selection.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  crimedash summary df_final_compressed.csv.gz
  crimedash summary --from 2015 --to 2020 --trend-metric count
  crimedash summary --offence "Vol simple" --offence "Escroquerie" --top 5
`)
	}
	args = reorderArgs(args)
	fs.Parse(args)

	if fs.NArg() > 0 {
		*src.data = fs.Arg(0)
	}

	state := loadState(src)
	v, err := vf.view(state.Table())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	page, err := state.Page(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	writeSummary(os.Stdout, page, *top)
}

func writeSummary(w io.Writer, page *dashboard.Page, top int) {
	fmt.Fprintln(w, page.Title)
	fmt.Fprintln(w, selectionSummary(page.View))
	fmt.Fprintln(w)

	total, rate, resolved := dashboard.FormatKPI(page.KPI)
	fmt.Fprintf(w, "Total crimes:             %s\n", total)
	fmt.Fprintf(w, "Mean rate per 1,000 inh.: %s\n", rate)
	fmt.Fprintf(w, "Mean share resolved:      %s\n", resolved)
	fmt.Fprintf(w, "Rows:                     %s\n", chart.FormatCount(float64(page.KPI.Rows)))

	if s, ok := page.Section(dashboard.SectionCantonTrend); ok && !s.Chart.Empty {
		fmt.Fprintln(w)
		latest := func(v float64) string { return chart.FormatFixed(v, 2) }
		if page.View.TrendMetric == chart.Count {
			latest = chart.FormatCount
		}
		writeTrendTable(w, s.Chart, latest)
	}

	if s, ok := page.Section(dashboard.SectionTopOffences); ok && !s.Chart.Empty && top > 0 {
		fmt.Fprintln(w)
		writeTopOffences(w, s.Chart, top)
	}
}

func selectionSummary(v dashboard.View) string {
	canton := v.Canton
	if canton == filter.All {
		canton = "all cantons"
	}
	return fmt.Sprintf("Years %d-%d, %s, %d offence types", v.YearFrom, v.YearTo, canton, len(v.Offences))
}

// writeTrendTable prints one row per series: its latest value and a
// sparkline over the years of the chart.
func writeTrendTable(w io.Writer, s chart.Spec, latest func(float64) string) {
	years := map[float64]bool{}
	for _, ser := range s.Series {
		for _, x := range ser.X {
			years[x] = true
		}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := range years {
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}

	maxName := 10
	for _, ser := range s.Series {
		if n := utf8.RuneCountInString(ser.Name); n > maxName {
			maxName = n
		}
	}

	fmt.Fprintf(w, "%s\n", s.YLabel)
	if len(years) > 0 {
		fmt.Fprintf(w, "Trend: %.0f to %.0f (%d years)\n\n", lo, hi, len(years))
	}

	fmt.Fprintf(w, "%s  %12s   %s\n", pad("Canton", maxName), "Latest", "Trend")
	fmt.Fprintln(w, strings.Repeat("─", maxName+2+12+3+len(years)))
	for _, ser := range s.Series {
		vals := make([]float64, len(ser.Y))
		for i, y := range ser.Y {
			vals[i] = chart.Val(y)
		}
		fmt.Fprintf(w, "%s  %12s   %s\n", pad(ser.Name, maxName), latest(lastNonNaN(vals)), sparkline(vals))
	}
}

func writeTopOffences(w io.Writer, s chart.Spec, top int) {
	if len(s.Series) == 0 {
		return
	}
	n := min(top, len(s.Categories))
	maxName := 10
	for _, c := range s.Categories[:n] {
		if l := utf8.RuneCountInString(c); l > maxName {
			maxName = l
		}
	}
	fmt.Fprintf(w, "Top %d offence types\n\n", n)
	for i, c := range s.Categories[:n] {
		fmt.Fprintf(w, "%2d. %s  %12s\n", i+1, pad(c, maxName), chart.FormatCount(chart.Val(s.Series[0].Y[i])))
	}
}

// pad left-aligns s to width runes; fmt's width counts bytes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

func sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := hi - lo
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := n / 2
		if spread > 0 {
			idx = min(int((v-lo)/spread*float64(n-1)), n-1)
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}
