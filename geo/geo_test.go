package geo

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const fixture = "../testdata/cantons.geojson"

func TestLoadFixture(t *testing.T) {
	c, err := Load(fixture, "")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Names(), []string{"Bern", "Genève", "Zuric"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	bern, ok := c.Lookup("Bern")
	if !ok {
		t.Fatal("Bern not found")
	}
	polys := bern.Polygons()
	if len(polys) != 1 || len(polys[0]) != 1 || len(polys[0][0]) != 5 {
		t.Errorf("Bern polygons = %v", polys)
	}

	zuric, _ := c.Lookup("Zuric")
	if got := len(zuric.Polygons()); got != 2 {
		t.Errorf("Zuric has %d polygons, want 2", got)
	}

	if _, ok := c.Lookup("bern"); ok {
		t.Error("Lookup should be exact")
	}

	minX, minY, maxX, maxY := c.Bounds()
	if minX != 6.0 || minY != 46.1 || maxX != 9.0 || maxY != 47.7 {
		t.Errorf("Bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
	if !strings.Contains(string(c.Raw()), `"FeatureCollection"`) {
		t.Error("Raw lost the document")
	}
}

func TestParseNameProperty(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"NAME":"Uri","name":"ignored"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
		{"type":"Feature","properties":{"NAME":"Uri"},
		 "geometry":{"type":"Polygon","coordinates":[[[5,5],[6,5],[6,6],[5,5]]]}},
		{"type":"Feature","properties":{"NAME":"Point"},
		 "geometry":{"type":"Point","coordinates":[1,1]}}
	]}`
	c, err := Parse(strings.NewReader(doc), "NAME")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"Uri"}) {
		t.Errorf("Names = %v", got)
	}
	uri, _ := c.Lookup("Uri")
	if x := uri.Polygons()[0][0][0].X(); x != 0 {
		t.Errorf("duplicate name should keep the first feature, got x=%v", x)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), ""); !errors.Is(err, ErrNoFeatures) {
		t.Errorf("empty collection: err = %v", err)
	}
	if _, err := Parse(strings.NewReader(`{not json`), ""); err == nil {
		t.Error("malformed document: expected error")
	}
	if _, err := Load("../testdata/missing.geojson", ""); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestReconcile(t *testing.T) {
	c, err := Load(fixture, "")
	if err != nil {
		t.Fatal(err)
	}
	rep := Reconcile([]string{"Bern", "Geneve", "Switzerland", "Ticino", "Zuric"}, c)
	want := Report{
		Matched:         []string{"Bern", "Zuric"},
		MissingBoundary: []string{"Geneve", "Ticino"},
		UnusedFeatures:  []string{"Genève"},
		Suggestions:     []Suggestion{{Canton: "Geneve", Feature: "Genève"}},
	}
	if !reflect.DeepEqual(rep, want) {
		t.Errorf("Reconcile = %+v\nwant %+v", rep, want)
	}
	if rep.OK() {
		t.Error("OK should be false with missing boundaries")
	}
}

func TestFold(t *testing.T) {
	tests := []struct{ a, b string }{
		{"Genève", "GENEVE"},
		{"Basel-Stadt", "basel stadt"},
		{"Graubünden", "Graubunden"},
		{"Appenzell Ausserrhoden", "appenzell-ausserrhoden"},
	}
	for _, tt := range tests {
		if fold(tt.a) != fold(tt.b) {
			t.Errorf("fold(%q) = %q, fold(%q) = %q", tt.a, fold(tt.a), tt.b, fold(tt.b))
		}
	}
	if fold("Uri") == fold("Jura") {
		t.Error("distinct names folded together")
	}
}
