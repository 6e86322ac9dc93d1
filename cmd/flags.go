package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/config"
	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/dataset"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// sourceFlags are the input file flags shared by every subcommand.
type sourceFlags struct {
	data, geo, nameProperty *string
}

func addSourceFlags(fs *flag.FlagSet, cfg config.Config) sourceFlags {
	return sourceFlags{
		data:         fs.String("data", cfg.DataPath, "crime table (;-separated, optionally gzip-compressed)"),
		geo:          fs.String("geo", cfg.GeoPath, "canton boundaries (GeoJSON)"),
		nameProperty: fs.String("name-property", cfg.NameProperty, "GeoJSON feature property holding the canton name"),
	}
}

func (sf sourceFlags) source() dashboard.Source {
	return dashboard.Source{DataPath: *sf.data, GeoPath: *sf.geo, NameProperty: *sf.nameProperty}
}

// viewFlags select what the report and summary subcommands show. Unset
// values fall back to the default view.
type viewFlags struct {
	from, to    *int
	canton      *string
	offences    stringList
	mapMetric   *string
	trendMetric *string
}

func addViewFlags(fs *flag.FlagSet) *viewFlags {
	vf := &viewFlags{
		from:        fs.Int("from", 0, "first year (default: earliest in the data)"),
		to:          fs.Int("to", 0, "last year (default: latest in the data)"),
		canton:      fs.String("canton", "all", "canton name, or all"),
		mapMetric:   fs.String("map-metric", string(chart.Rate), "map metric: count or rate"),
		trendMetric: fs.String("trend-metric", string(chart.Rate), "canton trend metric: count or rate"),
	}
	fs.Var(&vf.offences, "offence", "offence type to include (repeatable, default: all)")
	return vf
}

func (vf *viewFlags) view(t *dataset.Table) (dashboard.View, error) {
	v := dashboard.DefaultView(t)
	if *vf.from != 0 {
		v.YearFrom = *vf.from
	}
	if *vf.to != 0 {
		v.YearTo = *vf.to
	}
	v.Canton = *vf.canton
	if len(vf.offences) > 0 {
		known := t.Offences()
		for _, o := range vf.offences {
			if !contains(known, o) {
				return v, fmt.Errorf("unknown offence type %q", o)
			}
		}
		v.Offences = append([]string(nil), vf.offences...)
	}
	for _, m := range []string{*vf.mapMetric, *vf.trendMetric} {
		if chart.ParseMetric(m, "") == "" {
			return v, fmt.Errorf("invalid metric %q; valid options: count, rate", m)
		}
	}
	v.MapMetric = chart.Metric(*vf.mapMetric)
	v.TrendMetric = chart.Metric(*vf.trendMetric)
	return v.Validate(t)
}

func loadState(sf sourceFlags, opts ...dashboard.Option) *dashboard.State {
	state, err := dashboard.New(sf.source(), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading data: %v\n", err)
		os.Exit(1)
	}
	return state
}

// reorderArgs moves positional arguments to the end so that Go's flag package
// can parse all flags regardless of where a positional argument appears.
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			// Consume the next arg as the flag's value unless it looks like a flag itself.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !strings.Contains(args[i], "=") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
