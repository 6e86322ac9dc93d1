package main

import (
	"fmt"
	"os"

	"github.com/zalepa/crimedash/cmd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "web":
		cmd.Web(os.Args[2:])
	case "report":
		cmd.Report(os.Args[2:])
	case "summary":
		cmd.Summary(os.Args[2:])
	case "check":
		cmd.Check(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: crimedash <command>\n\nCommands:\n  web       Serve the interactive crime dashboard\n  report    Render the dashboard as a PDF report\n  summary   Print headline figures and canton trends\n  check     Check canton names against the boundary file\n")
}
