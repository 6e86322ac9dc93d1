package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/zalepa/crimedash/config"
	"github.com/zalepa/crimedash/render"
)

// Report implements the "report" subcommand.
func Report(args []string) {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	src := addSourceFlags(fs, cfg)
	vf := addViewFlags(fs)
	out := fs.String("o", "crime-report.pdf", "output PDF file path")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: crimedash report [data] [flags]

Render the dashboard for a selection as a multi-page PDF: a summary page,
one page per chart and the conclusions.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  crimedash report df_final_compressed.csv.gz -o report.pdf
  crimedash report --canton Bern --from 2015 --to 2018 -o bern.pdf
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

	if err := render.Report(*out, page, state.Geography()); err != nil {
		fmt.Fprintf(os.Stderr, "error writing PDF: %v\n", err)
		os.Exit(1)
	}
	n, err := render.PageCount(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading back PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d pages)\n", *out, n)
}
