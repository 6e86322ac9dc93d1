package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zalepa/crimedash/config"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/geo"
)

// Check implements the "check" subcommand. It exits 1 when a canton of the
// crime table has no boundary.
func Check(args []string) {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("check", flag.ExitOnError)
	src := addSourceFlags(fs, cfg)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: crimedash check [data] [--geo switzerland.geojson]

Report how the canton names of the crime table join against the boundary
features. Cantons without a boundary are left off the map.

Flags:
`)
		fs.PrintDefaults()
	}
	args = reorderArgs(args)
	fs.Parse(args)

	if fs.NArg() > 0 {
		*src.data = fs.Arg(0)
	}

	state := loadState(src)
	rep := state.Join()
	writeJoinReport(os.Stdout, rep, cantonYears(state.Table()))
	if !rep.OK() {
		os.Exit(1)
	}
}

// cantonYears collects the distinct years each canton has rows for.
func cantonYears(t *dataset.Table) map[string][]int {
	seen := make(map[string]map[int]bool)
	for _, r := range t.Records() {
		if seen[r.Canton] == nil {
			seen[r.Canton] = make(map[int]bool)
		}
		seen[r.Canton][r.Year] = true
	}
	out := make(map[string][]int, len(seen))
	for c, ys := range seen {
		years := make([]int, 0, len(ys))
		for y := range ys {
			years = append(years, y)
		}
		sort.Ints(years)
		out[c] = years
	}
	return out
}

func formatYearRange(years []int) string {
	switch len(years) {
	case 0:
		return "no data"
	case 1:
		return fmt.Sprintf("%d (1 year)", years[0])
	}
	return fmt.Sprintf("%d to %d (%d years)", years[0], years[len(years)-1], len(years))
}

func writeJoinReport(w io.Writer, rep geo.Report, years map[string][]int) {
	fmt.Fprintf(w, "%d cantons matched a boundary\n", len(rep.Matched))

	if len(rep.MissingBoundary) > 0 {
		fmt.Fprintf(w, "\n%d cantons without a boundary (omitted from the map):\n", len(rep.MissingBoundary))
		for _, name := range rep.MissingBoundary {
			fmt.Fprintf(w, "  %-30s %s\n", name, formatYearRange(years[name]))
		}
	}
	if len(rep.UnusedFeatures) > 0 {
		fmt.Fprintf(w, "\n%d boundary features without data:\n", len(rep.UnusedFeatures))
		for _, name := range rep.UnusedFeatures {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(rep.Suggestions) > 0 {
		fmt.Fprintln(w, "\nPossible renames:")
		for _, s := range rep.Suggestions {
			fmt.Fprintf(w, "  %q → %q\n", s.Canton, s.Feature)
		}
	}
	if rep.OK() {
		fmt.Fprintln(w, "\nok")
	}
}
