// Package metrics exposes Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct {
	reg *prometheus.Registry

	pageBuilds   *prometheus.CounterVec
	buildSeconds prometheus.Histogram
	filteredRows prometheus.Histogram
	loads        prometheus.Counter
	requests     *prometheus.CounterVec
}

// New returns a provider backed by its own registry, so tests can create as
// many as they like.
func New() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{
		reg: reg,
		pageBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_page_builds_total",
			Help: "Dashboard page requests by cache outcome.",
		}, []string{"cache"}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crimedash_page_build_seconds",
			Help:    "Time spent building a dashboard page on a cache miss.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		filteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crimedash_filtered_rows",
			Help:    "Rows left after applying a selection.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crimedash_dataset_loads_total",
			Help: "Times the crime table and boundaries were loaded.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crimedash_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(p.pageBuilds, p.buildSeconds, p.filteredRows, p.loads, p.requests)
	return p
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Gatherer() prometheus.Gatherer { return p.reg }

// The observation methods below are no-ops on a nil provider.

func (p *Provider) PageHit() {
	if p != nil {
		p.pageBuilds.WithLabelValues("hit").Inc()
	}
}

func (p *Provider) PageBuilt(d time.Duration, rows int) {
	if p == nil {
		return
	}
	p.pageBuilds.WithLabelValues("miss").Inc()
	p.buildSeconds.Observe(d.Seconds())
	p.filteredRows.Observe(float64(rows))
}

func (p *Provider) Loaded() {
	if p != nil {
		p.loads.Inc()
	}
}

func (p *Provider) Request(route string, status int) {
	if p != nil {
		p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}
