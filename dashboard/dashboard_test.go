package dashboard

import (
	"errors"
	"io/fs"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/filter"
	"github.com/zalepa/crimedash/geo"
	"github.com/zalepa/crimedash/metrics"
)

var fixture = Source{
	DataPath:     "../testdata/crimes.csv",
	GeoPath:      "../testdata/cantons.geojson",
	NameProperty: "name",
}

func load(t *testing.T) (*dataset.Table, *geo.Collection) {
	t.Helper()
	tbl, err := dataset.Load(fixture.DataPath)
	if err != nil {
		t.Fatal(err)
	}
	g, err := geo.Load(fixture.GeoPath, fixture.NameProperty)
	if err != nil {
		t.Fatal(err)
	}
	return tbl, g
}

func section(t *testing.T, p Page, id string) chart.Spec {
	t.Helper()
	s, ok := p.Section(id)
	if !ok {
		t.Fatalf("section %q missing", id)
	}
	return s.Chart
}

func ys(ser chart.Series) []float64 {
	out := make([]float64, len(ser.Y))
	for i, p := range ser.Y {
		out[i] = chart.Val(p)
	}
	return out
}

func TestBuildDefaultView(t *testing.T) {
	tbl, g := load(t)
	p := Build(tbl, g, DefaultView(tbl))

	if p.KPI.TotalCrimes != 3660 {
		t.Errorf("TotalCrimes = %v, want 3660", p.KPI.TotalCrimes)
	}
	if p.KPI.Rows != 36 {
		t.Errorf("Rows = %d, want 36", p.KPI.Rows)
	}
	if got := chart.Val(p.KPI.MeanResolved); math.Abs(got-50) > 1e-9 {
		t.Errorf("MeanResolved = %v, want 50", got)
	}
	if p.KPI.MeanRate == nil {
		t.Error("MeanRate = nil")
	}
	if p.Title != "Crime in Switzerland (2015-2016)" {
		t.Errorf("Title = %q", p.Title)
	}

	var ids []string
	for _, s := range p.Sections {
		ids = append(ids, s.ID)
		if s.Heading == "" || s.Narrative == "" || s.Chart.Title != s.Heading {
			t.Errorf("section %s lacks text: %+v", s.ID, s)
		}
		if s.Chart.Empty {
			t.Errorf("section %s is empty", s.ID)
		}
	}
	if !reflect.DeepEqual(ids, SectionIDs) {
		t.Errorf("sections = %v", ids)
	}
}

func TestBuildMapUsesLastYear(t *testing.T) {
	tbl, g := load(t)
	v := DefaultView(tbl)
	v.MapMetric = chart.Count
	m := section(t, Build(tbl, g, v), SectionMap)

	got := map[string]float64{}
	for _, r := range m.Regions {
		got[r.Name] = chart.Val(r.Value)
	}
	want := map[string]float64{"Bern": 630, "Zuric": 1230}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("regions = %v, want %v", got, want)
	}
	if m.ValueLabel != chart.Count.Label() {
		t.Errorf("ValueLabel = %q", m.ValueLabel)
	}
}

func TestBuildMapOmitsCantonsWithoutBoundary(t *testing.T) {
	tbl, _ := load(t)

	v := DefaultView(tbl)
	withoutGeo := section(t, Build(tbl, nil, v), SectionMap)
	if len(withoutGeo.Regions) != 2 {
		t.Errorf("regions without boundaries = %+v", withoutGeo.Regions)
	}

	only, err := geo.Parse(strings.NewReader(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Bern"},"geometry":{"type":"Polygon","coordinates":[[[7,46],[8,46],[8,47],[7,46]]]}}]}`), "name")
	if err != nil {
		t.Fatal(err)
	}
	p := Build(tbl, only, v)
	m := section(t, p, SectionMap)
	if len(m.Regions) != 1 || m.Regions[0].Name != "Bern" {
		t.Errorf("regions = %+v, want Bern only", m.Regions)
	}
	// other charts keep Zuric
	trend := section(t, p, SectionCantonTrend)
	if len(trend.Series) != 3 {
		t.Errorf("trend series = %d, want 3", len(trend.Series))
	}
}

func TestBuildSingleCantonYear(t *testing.T) {
	tbl, g := load(t)
	v := DefaultView(tbl)
	v.YearFrom, v.YearTo = 2015, 2015
	v.Canton = "Zuric"
	p := Build(tbl, g, v)

	if p.KPI.Rows != 9 || p.KPI.TotalCrimes != 1200 {
		t.Errorf("KPI = %+v", p.KPI)
	}
	m := section(t, p, SectionMap)
	if len(m.Regions) != 1 || m.Regions[0].Name != "Zuric" {
		t.Errorf("map regions = %+v, want Zuric only", m.Regions)
	}
	trend := section(t, p, SectionCantonTrend)
	if len(trend.Series) != 1 || trend.Series[0].Name != "Zuric" {
		t.Errorf("trend = %+v", trend.Series)
	}
	if !reflect.DeepEqual(trend.Series[0].X, []float64{2015}) {
		t.Errorf("trend X = %v", trend.Series[0].X)
	}
}

func TestBuildEmptyOffences(t *testing.T) {
	tbl, g := load(t)
	v := DefaultView(tbl)
	v.Offences = []string{}
	p := Build(tbl, g, v)

	if p.KPI != (KPI{}) {
		t.Errorf("KPI = %+v, want zero", p.KPI)
	}
	total, rate, resolved := FormatKPI(p.KPI)
	if total != "0" || rate != chart.Missing || resolved != chart.Missing {
		t.Errorf("FormatKPI = %q %q %q", total, rate, resolved)
	}
	if len(p.Sections) != len(SectionIDs) {
		t.Fatalf("got %d sections", len(p.Sections))
	}
	for _, s := range p.Sections {
		if !s.Chart.Empty {
			t.Errorf("section %s not empty: %+v", s.ID, s.Chart)
		}
	}
}

func TestBuildResolutionShares(t *testing.T) {
	tbl, g := load(t)
	s := section(t, Build(tbl, g, DefaultView(tbl)), SectionResolution)

	wantCats := []string{"Fraud / Corruption", "Robberies / Embezzlement / Damage", "Violence / Homicide"}
	if !reflect.DeepEqual(s.Categories, wantCats) {
		t.Fatalf("Categories = %v", s.Categories)
	}
	if len(s.Series) != 2 || s.Series[0].Name != "No resolts" || s.Series[1].Name != dataset.LevelResolved {
		t.Fatalf("Series = %+v", s.Series)
	}
	resolved := ys(s.Series[1])
	for i, want := range []float64{50, 20, 80} {
		if math.Abs(resolved[i]-want) > 1e-9 {
			t.Errorf("%s resolved = %v, want %v", s.Categories[i], resolved[i], want)
		}
		if sum := resolved[i] + ys(s.Series[0])[i]; math.Abs(sum-100) > 1e-9 {
			t.Errorf("%s shares sum to %v", s.Categories[i], sum)
		}
	}
	if s.Series[1].Labels[1] != "20.0%" {
		t.Errorf("label = %q", s.Series[1].Labels[1])
	}
}

func TestBuildResolutionRate(t *testing.T) {
	tbl, g := load(t)
	s := section(t, Build(tbl, g, DefaultView(tbl)), SectionResolutionRate)
	if !s.Percent || len(s.Series) != 3 {
		t.Fatalf("spec = %+v", s)
	}
	for _, ser := range s.Series {
		if ser.Name == "Violence / Homicide" {
			for _, v := range ys(ser) {
				if math.Abs(v-80) > 1e-9 {
					t.Errorf("violence rate = %v", v)
				}
			}
		}
	}
}

func TestBuildTopOffencesAndCantonCategory(t *testing.T) {
	tbl, g := load(t)
	p := Build(tbl, g, DefaultView(tbl))

	top := section(t, p, SectionTopOffences)
	if want := []string{"Vol simple", "Escroquerie", "Lésions corporelles simples"}; !reflect.DeepEqual(top.Categories, want) {
		t.Errorf("top offences = %v", top.Categories)
	}
	if got := ys(top.Series[0]); !reflect.DeepEqual(got, []float64{1820, 1220, 620}) {
		t.Errorf("top counts = %v", got)
	}

	cc := section(t, p, SectionCantonCategory)
	if !reflect.DeepEqual(cc.Categories, []string{"Bern", "Zuric"}) {
		t.Errorf("canton bars = %v", cc.Categories)
	}
}

func TestBuildCorrelationAndBubbles(t *testing.T) {
	tbl, g := load(t)
	p := Build(tbl, g, DefaultView(tbl))

	h := section(t, p, SectionCorrelation)
	if h.Matrix == nil || len(h.Matrix.Labels) != 4 || h.Matrix.Labels[0] != "Crimes" {
		t.Fatalf("matrix = %+v", h.Matrix)
	}
	if v := chart.Val(h.Matrix.Values[0][0]); v != 1 {
		t.Errorf("diagonal = %v", v)
	}

	b := section(t, p, SectionBubbles)
	if len(b.Frames) != 2 || b.Frames[0].Label != "2015" {
		t.Fatalf("frames = %+v", b.Frames)
	}
	if len(b.Facets) != 3 {
		t.Errorf("facets = %v", b.Facets)
	}
	// 2 cantons x 3 categories
	if n := len(b.Frames[0].Points); n != 6 {
		t.Errorf("2015 bubbles = %d, want 6", n)
	}

	socio := section(t, p, SectionSocioeconomic)
	if n := len(socio.Frames[1].Points); n != 2 {
		t.Errorf("2016 socio points = %d", n)
	}
	if socio.Frames[1].Points[0].Color == nil {
		t.Error("socio bubbles should carry the foreign share as color")
	}
}

func TestBuildAllCantonsCountsNationalOnce(t *testing.T) {
	tbl, g := load(t)
	build := func(canton string) Page {
		v := DefaultView(tbl)
		v.Canton = canton
		return Build(tbl, g, v)
	}
	all, bern, zuric, national := build(filter.All), build("Bern"), build("Zuric"), build(dataset.National)

	if sum := bern.KPI.TotalCrimes + zuric.KPI.TotalCrimes; all.KPI.TotalCrimes != sum {
		t.Errorf("all cantons total = %v, want canton sum %v", all.KPI.TotalCrimes, sum)
	}
	if all.KPI.Rows != bern.KPI.Rows+zuric.KPI.Rows {
		t.Errorf("all cantons rows = %d, want %d", all.KPI.Rows, bern.KPI.Rows+zuric.KPI.Rows)
	}
	if national.KPI.TotalCrimes != 3630 || national.KPI.Rows != 18 {
		t.Errorf("national KPI = %+v", national.KPI)
	}

	trend := section(t, all, SectionCategoryTrend)
	for _, ser := range trend.Series {
		if ser.Name != "Fraud / Corruption" {
			continue
		}
		if got := ys(ser); !reflect.DeepEqual(got, []float64{600, 620}) {
			t.Errorf("fraud trend = %v, want [600 620]", got)
		}
	}

	// the national figure still shows as its own series and when asked for
	if n := len(section(t, all, SectionCantonTrend).Series); n != 3 {
		t.Errorf("canton trend series = %d, want 3", n)
	}
	if cc := section(t, national, SectionCantonCategory); !reflect.DeepEqual(cc.Categories, []string{dataset.National}) {
		t.Errorf("national canton bars = %v", cc.Categories)
	}
	if m := section(t, all, SectionMap); len(m.Regions) != 2 {
		t.Errorf("map regions = %+v", m.Regions)
	}
}

func TestViewValidate(t *testing.T) {
	tbl, _ := load(t)
	v := View{Selection: filter.Selection{YearFrom: 1990, YearTo: 2030, Offences: tbl.Offences()}, MapMetric: "bogus", TrendMetric: chart.Count}
	got, err := v.Validate(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if got.YearFrom != 2015 || got.YearTo != 2016 || got.Canton != filter.All {
		t.Errorf("selection = %+v", got.Selection)
	}
	if got.MapMetric != chart.Rate || got.TrendMetric != chart.Count {
		t.Errorf("metrics = %q %q", got.MapMetric, got.TrendMetric)
	}

	v.Canton = "Atlantis"
	if _, err := v.Validate(tbl); !errors.Is(err, filter.ErrUnknownCanton) {
		t.Errorf("err = %v, want ErrUnknownCanton", err)
	}
}

func TestViewKey(t *testing.T) {
	a := View{Selection: filter.Selection{YearFrom: 2015, YearTo: 2016, Canton: "all", Offences: []string{"a", "b"}}, MapMetric: chart.Rate}
	b := a
	b.Offences = []string{"b", "a"}
	if a.key(1) != b.key(1) {
		t.Error("offence order changes the key")
	}
	if a.key(1) == a.key(2) {
		t.Error("generation ignored")
	}
	c := a
	c.MapMetric = chart.Count
	if a.key(1) == c.key(1) {
		t.Error("metric ignored")
	}
	empty := a
	empty.Offences = nil
	if a.key(1) == empty.key(1) {
		t.Error("offences ignored")
	}
}

func TestStateCachesPages(t *testing.T) {
	m := metrics.New()
	s, err := New(fixture, WithMetrics(m), WithCacheSize(4))
	if err != nil {
		t.Fatal(err)
	}
	if s.Loads() != 1 {
		t.Errorf("Loads = %d", s.Loads())
	}
	if !s.Join().OK() {
		t.Errorf("join = %+v", s.Join())
	}

	v := s.DefaultView()
	p1, err := s.Page(v)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.Page(v)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("second request was rebuilt")
	}

	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if s.Loads() != 2 {
		t.Errorf("Loads = %d after reload", s.Loads())
	}
	p3, err := s.Page(v)
	if err != nil {
		t.Fatal(err)
	}
	if p3 == p1 {
		t.Error("reload kept the cached page")
	}
	if !reflect.DeepEqual(p1.KPI, p3.KPI) {
		t.Errorf("KPI changed across reload: %+v vs %+v", p1.KPI, p3.KPI)
	}
}

func TestStateReloadIsIdentical(t *testing.T) {
	s, err := New(fixture)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Table().Records()
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, s.Table().Records()) {
		t.Error("reloaded table differs")
	}
}

func TestStateLoadErrors(t *testing.T) {
	_, err := New(Source{DataPath: "../testdata/nope.csv", GeoPath: fixture.GeoPath})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing data: err = %v", err)
	}
	_, err = New(Source{DataPath: fixture.DataPath, GeoPath: "../testdata/nope.geojson"})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing boundaries: err = %v", err)
	}
}

func TestStatePageRejectsBadView(t *testing.T) {
	s, err := New(fixture)
	if err != nil {
		t.Fatal(err)
	}
	v := s.DefaultView()
	v.YearFrom, v.YearTo = 2016, 2015
	if _, err := s.Page(v); !errors.Is(err, filter.ErrYearRange) {
		t.Errorf("err = %v, want ErrYearRange", err)
	}
}
