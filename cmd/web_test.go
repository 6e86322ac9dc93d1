package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/logger"
	"github.com/zalepa/crimedash/metrics"
)

var fixture = dashboard.Source{
	DataPath:     "../testdata/crimes.csv",
	GeoPath:      "../testdata/cantons.geojson",
	NameProperty: "name",
}

func newTestServer(t *testing.T) *server {
	t.Helper()
	met := metrics.New()
	state, err := dashboard.New(fixture, dashboard.WithMetrics(met))
	if err != nil {
		t.Fatal(err)
	}
	return &server{
		state:        state,
		met:          met,
		log:          logger.Nop(),
		origins:      []string{"*"},
		nameProperty: fixture.NameProperty,
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestServer(t).routes()
	rec := do(t, h, "GET", "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "/api/dashboard") {
		t.Error("page does not call the dashboard API")
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t).routes(), "GET", "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetadata(t *testing.T) {
	rec := do(t, newTestServer(t).routes(), "GET", "/api/metadata")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m metadata
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.YearMin != 2015 || m.YearMax != 2016 {
		t.Errorf("years = %d-%d", m.YearMin, m.YearMax)
	}
	if want := []string{"Bern", "Switzerland", "Zuric"}; !reflect.DeepEqual(m.Cantons, want) {
		t.Errorf("cantons = %v, want %v", m.Cantons, want)
	}
	if len(m.Offences) != 3 {
		t.Errorf("offences = %v", m.Offences)
	}
	if want := []string{"Total de casos", "Resolts", "No resolts"}; !reflect.DeepEqual(m.Levels, want) {
		t.Errorf("levels = %v, want %v", m.Levels, want)
	}
	if len(m.Categories) != 5 {
		t.Errorf("categories = %v", m.Categories)
	}
	if len(m.Metrics) != 2 || m.Metrics[0].Value != "count" {
		t.Errorf("metrics = %v", m.Metrics)
	}
	if len(m.Sections) != 10 {
		t.Errorf("sections = %v", m.Sections)
	}
	if want := []string{"Bern", "Zuric"}; !reflect.DeepEqual(m.Join.Matched, want) {
		t.Errorf("join matched = %v, want %v", m.Join.Matched, want)
	}
	if m.NameProperty != "name" || m.Loads != 1 {
		t.Errorf("nameProperty = %q, loads = %d", m.NameProperty, m.Loads)
	}
}

func TestDashboard(t *testing.T) {
	h := newTestServer(t).routes()

	tests := []struct {
		name   string
		query  string
		status int
		rows   int
	}{
		{"default", "", 200, 36},
		{"one year", "?from=2016&to=2016", 200, 18},
		{"one canton", "?canton=Bern", 200, 18},
		{"national only", "?canton=Switzerland", 200, 18},
		{"one offence", "?offence=Vol+simple", 200, 12},
		{"two offences", "?offence=Vol+simple&offence=Escroquerie", 200, 24},
		{"empty offence selects nothing", "?offence=", 200, 0},
		{"years clamped", "?from=1990&to=2050", 200, 36},
		{"count metrics", "?map_metric=count&trend_metric=count", 200, 36},
		{"bad year", "?from=abc", 400, 0},
		{"inverted years", "?from=2016&to=2015", 400, 0},
		{"unknown canton", "?canton=Atlantis", 400, 0},
		{"unknown offence", "?offence=Piracy", 400, 0},
		{"bad metric", "?map_metric=median", 400, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "GET", "/api/dashboard"+tt.query)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var p dashboard.Page
			if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
				t.Fatal(err)
			}
			if p.KPI.Rows != tt.rows {
				t.Errorf("rows = %d, want %d", p.KPI.Rows, tt.rows)
			}
			if len(p.Sections) != 10 {
				t.Errorf("sections = %d", len(p.Sections))
			}
		})
	}
}

func TestDashboardMetricsChoice(t *testing.T) {
	rec := do(t, newTestServer(t).routes(), "GET", "/api/dashboard?map_metric=count&trend_metric=rate")
	var p dashboard.Page
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.View.MapMetric != "count" || p.View.TrendMetric != "rate" {
		t.Errorf("view metrics = %q, %q", p.View.MapMetric, p.View.TrendMetric)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t).routes()

	rec := do(t, h, "GET", "/healthz")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id generated")
	}

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want echoed", got)
	}
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/metadata", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	newTestServer(t).routes().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSectionImage(t *testing.T) {
	h := newTestServer(t).routes()

	tests := []struct {
		target string
		status int
		ctype  string
		prefix []byte
	}{
		{"/api/sections/map.png", 200, "image/png", []byte("\x89PNG")},
		{"/api/sections/canton-trend.svg?trend_metric=count", 200, "image/svg+xml", nil},
		{"/api/sections/top-offences.pdf", 200, "application/pdf", []byte("%PDF")},
		{"/api/sections/nope.png", 404, "", nil},
		{"/api/sections/map.gif", 404, "", nil},
		{"/api/sections/map.png?canton=Atlantis", 400, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, "GET", tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.ctype {
				t.Errorf("Content-Type = %q, want %q", ct, tt.ctype)
			}
			if tt.prefix != nil && !bytes.HasPrefix(rec.Body.Bytes(), tt.prefix) {
				t.Errorf("body starts with %q", rec.Body.Bytes()[:min(8, rec.Body.Len())])
			}
		})
	}
}

func TestGeoJSON(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.routes(), "GET", "/api/geojson")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), s.state.Geography().Raw()) {
		t.Error("geojson body differs from the loaded document")
	}
}

func TestReload(t *testing.T) {
	s := newTestServer(t)
	h := s.routes()

	if rec := do(t, h, "GET", "/api/reload"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET reload status = %d", rec.Code)
	}
	rec := do(t, h, "POST", "/api/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m metadata
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.Loads != 2 {
		t.Errorf("loads = %d, want 2", m.Loads)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t).routes()
	do(t, h, "GET", "/api/dashboard")
	do(t, h, "GET", "/api/dashboard")

	rec := do(t, h, "GET", "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`crimedash_http_requests_total{route="/api/dashboard",status="200"} 2`,
		`crimedash_page_builds_total{cache="hit"} 1`,
		`crimedash_page_builds_total{cache="miss"} 1`,
		`crimedash_dataset_loads_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}
