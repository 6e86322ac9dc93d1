package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"gonum.org/v1/plot/vg"

	"github.com/zalepa/crimedash/category"
	"github.com/zalepa/crimedash/chart"
	"github.com/zalepa/crimedash/config"
	"github.com/zalepa/crimedash/dashboard"
	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/geo"
	"github.com/zalepa/crimedash/logger"
	"github.com/zalepa/crimedash/metrics"
	"github.com/zalepa/crimedash/render"
)

//go:embed web.html
var htmlContent embed.FS

type labelValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type metadata struct {
	YearMin    int            `json:"yearMin"`
	YearMax    int            `json:"yearMax"`
	Cantons    []string       `json:"cantons"`
	Offences   []string       `json:"offences"`
	Levels     []string       `json:"levels"`
	Categories []string       `json:"categories"`
	Metrics    []labelValue   `json:"metrics"`
	Sections   []string       `json:"sections"`
	Default    dashboard.View `json:"default"`
	Join       geo.Report     `json:"join"`
	Loads      int            `json:"loads"`
	// NameProperty is the GeoJSON property the map joins canton names on.
	NameProperty string `json:"nameProperty"`
}

// Web implements the "web" subcommand.
func Web(args []string) {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("web", flag.ExitOnError)
	src := addSourceFlags(fs, cfg)
	addr := fs.String("addr", cfg.Addr, "HTTP listen address")
	cacheSize := fs.Int("cache-size", cfg.CacheSize, "number of built pages to keep in memory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: crimedash web [data] [--addr :8080] [--geo switzerland.geojson]\n\nStart the interactive dashboard.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	args = reorderArgs(args)
	fs.Parse(args)

	if fs.NArg() > 0 {
		*src.data = fs.Arg(0)
	}

	log := logger.Build(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Component: "web"}, os.Stdout)
	met := metrics.New()
	state, err := dashboard.New(src.source(),
		dashboard.WithLogger(log),
		dashboard.WithMetrics(met),
		dashboard.WithCacheSize(*cacheSize),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading data: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &server{state: state, met: met, log: log, origins: cfg.AllowedOrigins, nameProperty: *src.nameProperty}
	if err := srv.run(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

type server struct {
	state   *dashboard.State
	met     *metrics.Provider
	log     zerolog.Logger
	origins []string

	nameProperty string
}

func (s *server) run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http listen")
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return hs.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.met.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata", s.handleMetadata)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/sections/{id}.{format}", s.handleSectionImage)
		r.Get("/geojson", s.handleGeoJSON)
		r.Post("/reload", s.handleReload)
	})
	return r
}

func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context(), &s.log).Error().Interface("panic", rec).Msg("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLog tags each request with an id, logs it and counts it by route
// pattern.
func (s *server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = logger.NewID()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := logger.WithComponent(logger.WithRequestID(r.Context(), reqID), "http")

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.met.Request(route, status)
		logger.FromContext(ctx, &s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, _ := htmlContent.ReadFile("web.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *server) metadata() metadata {
	t := s.state.Table()
	min, max := t.YearBounds()
	cats := category.All()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	ms := make([]labelValue, len(chart.Metrics))
	for i, m := range chart.Metrics {
		ms[i] = labelValue{Value: string(m), Label: m.Label()}
	}
	return metadata{
		YearMin:    min,
		YearMax:    max,
		Cantons:    t.Cantons(),
		Offences:   t.Offences(),
		Levels:     t.Levels(),
		Categories: names,
		Metrics:    ms,
		Sections:   dashboard.SectionIDs,
		Default:    dashboard.DefaultView(t),
		Join:       s.state.Join(),
		Loads:      s.state.Loads(),

		NameProperty: s.nameProperty,
	}
}

func (s *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metadata())
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page, ok := s.page(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) handleSectionImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")
	if !contains(render.Formats, format) {
		http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusNotFound)
		return
	}
	if !contains(dashboard.SectionIDs, id) {
		http.Error(w, fmt.Sprintf("unknown section %q", id), http.StatusNotFound)
		return
	}
	page, ok := s.page(w, r)
	if !ok {
		return
	}
	sec, _ := page.Section(id)
	w.Header().Set("Content-Type", render.ContentType(format))
	if err := render.WriteImage(w, sec.Chart, s.state.Geography(), format, 8*vg.Inch, 5*vg.Inch); err != nil {
		logger.FromContext(r.Context(), &s.log).Error().Err(err).Str("section", id).Msg("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(s.state.Geography().Raw())
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Reload(); err != nil {
		logger.FromContext(r.Context(), &s.log).Error().Err(err).Msg("reload failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.metadata())
}

// page parses the view from the query and returns its page, answering 400
// itself on bad input.
func (s *server) page(w http.ResponseWriter, r *http.Request) (*dashboard.Page, bool) {
	v, err := parseView(r, s.state.Table())
	if err == nil {
		var p *dashboard.Page
		if p, err = s.state.Page(v); err == nil {
			return p, true
		}
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
	return nil, false
}

// parseView reads from, to, canton, offence, map_metric and trend_metric.
// A missing offence parameter selects every offence type; offence present
// but empty selects none.
func parseView(r *http.Request, t *dataset.Table) (dashboard.View, error) {
	q := r.URL.Query()
	v := dashboard.DefaultView(t)

	year := func(key string, dst *int) error {
		s := strings.TrimSpace(q.Get(key))
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q", key, s)
		}
		*dst = n
		return nil
	}
	if err := year("from", &v.YearFrom); err != nil {
		return v, err
	}
	if err := year("to", &v.YearTo); err != nil {
		return v, err
	}
	if c := strings.TrimSpace(q.Get("canton")); c != "" {
		v.Canton = c
	}
	if vals, ok := q["offence"]; ok {
		v.Offences = []string{}
		known := t.Offences()
		for _, o := range vals {
			if o == "" {
				continue
			}
			if !contains(known, o) {
				return v, fmt.Errorf("unknown offence type %q", o)
			}
			v.Offences = append(v.Offences, o)
		}
	}
	metric := func(key string, dst *chart.Metric) error {
		s := q.Get(key)
		if s == "" {
			return nil
		}
		m := chart.ParseMetric(s, "")
		if m == "" {
			return fmt.Errorf("invalid %s %q; valid options: count, rate", key, s)
		}
		*dst = m
		return nil
	}
	if err := metric("map_metric", &v.MapMetric); err != nil {
		return v, err
	}
	if err := metric("trend_metric", &v.TrendMetric); err != nil {
		return v, err
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
