package render

import (
	"bytes"
	"errors"
	"image/color"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/geo"
)

func fixturePage(t *testing.T) (*dashboard.Page, *geo.Collection) {
	t.Helper()
	tbl, err := dataset.Load("../testdata/crimes.csv")
	if err != nil {
		t.Fatal(err)
	}
	g, err := geo.Load("../testdata/cantons.geojson", "name")
	if err != nil {
		t.Fatal(err)
	}
	p := dashboard.Build(tbl, g, dashboard.DefaultView(tbl))
	return &p, g
}

func TestWriteImageEverySection(t *testing.T) {
	page, g := fixturePage(t)
	for _, s := range page.Sections {
		for _, format := range []string{"png", "svg"} {
			var buf bytes.Buffer
			if err := WriteImage(&buf, s.Chart, g, format, 6*vg.Inch, 4*vg.Inch); err != nil {
				t.Errorf("%s.%s: %v", s.ID, format, err)
				continue
			}
			switch format {
			case "png":
				if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
					t.Errorf("%s.png is not a PNG", s.ID)
				}
			case "svg":
				if !strings.Contains(buf.String(), "<svg") {
					t.Errorf("%s.svg is not an SVG", s.ID)
				}
			}
		}
	}
}

func TestWriteImageErrors(t *testing.T) {
	page, g := fixturePage(t)
	s, _ := page.Section(dashboard.SectionMap)

	var buf bytes.Buffer
	if err := WriteImage(&buf, s.Chart, g, "gif", vg.Inch, vg.Inch); !errors.Is(err, ErrFormat) {
		t.Errorf("gif: err = %v, want ErrFormat", err)
	}
	if _, err := Plot(s.Chart, nil); !errors.Is(err, ErrNoGeo) {
		t.Errorf("map without boundaries: err = %v, want ErrNoGeo", err)
	}
	if _, err := Plot(chart.Spec{Kind: "pie"}, nil); !errors.Is(err, ErrKind) {
		t.Errorf("pie: err = %v, want ErrKind", err)
	}
}

func TestPlotEmptySpec(t *testing.T) {
	for _, kind := range []chart.Kind{chart.Choropleth, chart.Line, chart.Bar, chart.Heatmap} {
		var buf bytes.Buffer
		s := chart.Spec{ID: "x", Kind: kind, Title: "Nothing", Empty: true}
		if err := WriteImage(&buf, s, nil, "svg", 4*vg.Inch, 3*vg.Inch); err != nil {
			t.Errorf("%s: %v", kind, err)
		}
	}
}

func TestReportPageCount(t *testing.T) {
	page, g := fixturePage(t)
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := Report(path, page, g); err != nil {
		t.Fatal(err)
	}
	n, err := PageCount(path)
	if err != nil {
		t.Fatal(err)
	}
	// summary + sections + conclusions
	if want := 1 + len(page.Sections) + 1; n != want {
		t.Errorf("PageCount = %d, want %d", n, want)
	}
}

func TestPageCountMissingFile(t *testing.T) {
	if _, err := PageCount(filepath.Join(t.TempDir(), "none.pdf")); err == nil {
		t.Error("expected error")
	}
}

func TestShade(t *testing.T) {
	if got := shade(0, 0, 10); got != color.Color(lowRed) {
		t.Errorf("low = %v", got)
	}
	if got := shade(10, 0, 10); got != color.Color(highRed) {
		t.Errorf("high = %v", got)
	}
	if got := shade(5, 5, 5); got != color.Color(highRed) {
		t.Errorf("single value = %v", got)
	}
}

func TestWrap(t *testing.T) {
	got := wrap("the quick brown fox jumps over the lazy dog", 15)
	want := []string{"the quick brown", "fox jumps over", "the lazy dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wrap = %q", got)
	}
	if wrap("", 10) != nil {
		t.Error("empty text should give no lines")
	}
}

func TestYearTicks(t *testing.T) {
	ticks := yearTicks{}.Ticks(2014.6, 2016.2)
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	if !reflect.DeepEqual(labels, []string{"2015", "2016"}) {
		t.Errorf("labels = %v", labels)
	}
}
