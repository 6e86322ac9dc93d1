package cmd

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zalepa/crimedash/dashboard"
)

func TestSparkline(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		in   []float64
		want string
	}{
		{[]float64{1, 2, nan, 8}, "▁▂ █"},
		{[]float64{5, 5, 5}, "▅▅▅"},
		{[]float64{nan, nan}, "  "},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := sparkline(tt.in); got != tt.want {
			t.Errorf("sparkline(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastNonNaN(t *testing.T) {
	if got := lastNonNaN([]float64{1, 2, math.NaN()}); got != 2 {
		t.Errorf("got %v, want 2", got)
	}
	if got := lastNonNaN([]float64{math.NaN()}); !math.IsNaN(got) {
		t.Errorf("got %v, want NaN", got)
	}
}

func TestPad(t *testing.T) {
	if got := pad("Genève", 8); got != "Genève  " {
		t.Errorf("pad = %q", got)
	}
	if got := pad("Graubünden", 4); got != "Graubünden" {
		t.Errorf("pad = %q", got)
	}
}

func TestWriteSummary(t *testing.T) {
	state, err := dashboard.New(fixture)
	if err != nil {
		t.Fatal(err)
	}
	page, err := state.Page(state.DefaultView())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	writeSummary(&buf, page, 2)
	out := buf.String()

	for _, want := range []string{
		"Crime in Switzerland (2015-2016)",
		"Years 2015-2016, all cantons, 3 offence types",
		"Total crimes:             3,660",
		"Mean share resolved:      50.00%",
		"Trend: 2015 to 2016 (2 years)",
		"Top 2 offence types",
		" 1. Vol simple",
		"1,820",
		" 2. Escroquerie",
		"1,220",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Lésions") {
		t.Error("summary lists more offence types than asked")
	}

	var bern string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Bern ") {
			bern = line
		}
	}
	if !strings.Contains(bern, "0.21") || !strings.HasSuffix(bern, "▁█") {
		t.Errorf("Bern row = %q", bern)
	}
}

func TestWriteSummaryEmptySelection(t *testing.T) {
	state, err := dashboard.New(fixture)
	if err != nil {
		t.Fatal(err)
	}
	v := state.DefaultView()
	v.Offences = []string{}
	page, err := state.Page(v)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	writeSummary(&buf, page, 10)
	out := buf.String()
	if !strings.Contains(out, "Total crimes:             0") {
		t.Errorf("summary = %s", out)
	}
	if strings.Contains(out, "Trend:") || strings.Contains(out, "Top ") {
		t.Errorf("empty selection printed tables:\n%s", out)
	}
}
