// Package dashboard holds the loaded crime table and boundaries and turns a
// view (filters plus metric choices) into a complete dashboard page.
package dashboard

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/zalepa/crimedash/dataset"
	"github.com/zalepa/crimedash/geo"
	"github.com/zalepa/crimedash/metrics"
)

const DefaultCacheSize = 64

// Source names the files a State loads.
type Source struct {
	DataPath     string
	GeoPath      string
	NameProperty string
}

type Option func(*State)

func WithLogger(l zerolog.Logger) Option {
	return func(s *State) { s.log = l }
}

func WithMetrics(m *metrics.Provider) Option {
	return func(s *State) { s.met = m }
}

// WithCacheSize sets how many built pages are kept. Values below 1 are ignored.
func WithCacheSize(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// State is the application state: the table and boundaries are read once by
// New and again only on Reload. Both are treated as read-only.
type State struct {
	src       Source
	log       zerolog.Logger
	met       *metrics.Provider
	cacheSize int

	mu    sync.RWMutex
	table *dataset.Table
	geo   *geo.Collection
	join  geo.Report
	loads int

	pages *lru.Cache[uint64, *Page]
}

// New loads both files. A load failure is returned as is; callers treat it
// as fatal.
func New(src Source, opts ...Option) (*State, error) {
	s := &State{
		src:       src,
		log:       zerolog.Nop(),
		cacheSize: DefaultCacheSize,
	}
	for _, o := range opts {
		o(s)
	}
	pages, err := lru.New[uint64, *Page](s.cacheSize)
	if err != nil {
		return nil, err
	}
	s.pages = pages
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload reads both files again and drops every cached page. On error the
// previous data stays in place.
func (s *State) Reload() error {
	t, err := dataset.Load(s.src.DataPath)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	g, err := geo.Load(s.src.GeoPath, s.src.NameProperty)
	if err != nil {
		return fmt.Errorf("loading boundaries: %w", err)
	}
	join := geo.Reconcile(t.Cantons(), g)

	s.mu.Lock()
	s.table, s.geo, s.join = t, g, join
	s.loads++
	s.pages.Purge()
	s.mu.Unlock()

	s.met.Loaded()
	min, max := t.YearBounds()
	s.log.Info().
		Int("rows", t.Len()).
		Int("cantons", len(t.Cantons())).
		Int("offences", len(t.Offences())).
		Int("year_from", min).
		Int("year_to", max).
		Int("features", len(g.Features())).
		Msg("data loaded")
	for _, name := range join.MissingBoundary {
		s.log.Warn().Str("canton", name).Msg("no boundary for canton, omitted from map")
	}
	for _, sug := range join.Suggestions {
		s.log.Warn().Str("canton", sug.Canton).Str("feature", sug.Feature).Msg("canton matches boundary only after folding")
	}
	return nil
}

func (s *State) Table() *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

func (s *State) Geography() *geo.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.geo
}

// Join returns the canton/boundary reconciliation from the last load.
func (s *State) Join() geo.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.join
}

// Loads counts successful loads, New included.
func (s *State) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

func (s *State) DefaultView() View {
	return DefaultView(s.Table())
}

// Page validates v and returns its page, building it on a cache miss. The
// returned page is shared and must not be modified.
func (s *State) Page(v View) (*Page, error) {
	s.mu.RLock()
	t, g, gen := s.table, s.geo, s.loads
	s.mu.RUnlock()

	v, err := v.Validate(t)
	if err != nil {
		return nil, err
	}
	key := v.key(gen)
	if p, ok := s.pages.Get(key); ok {
		s.met.PageHit()
		return p, nil
	}

	start := time.Now()
	p := Build(t, g, v)
	s.met.PageBuilt(time.Since(start), p.KPI.Rows)
	s.log.Debug().
		Int("rows", p.KPI.Rows).
		Dur("took", time.Since(start)).
		Msg("page built")
	s.pages.Add(key, &p)
	return &p, nil
}
