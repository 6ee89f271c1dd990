// Package metrics registers the service's Prometheus collectors and exposes
// the /metrics handler mounted by the HTTP router.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coverage_analyses_total",
		Help: "Total coverage analysis runs started",
	})
	AnalysesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coverage_analyses_failed_total",
		Help: "Total coverage analysis runs that ended in the failed state",
	})
	AnalysisDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coverage_analysis_duration_ms",
		Help:    "End-to-end analysis duration in milliseconds",
		Buckets: []float64{100, 500, 1000, 5000, 15000, 30000, 60000, 120000},
	})
	TilesFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_tiles_fetched_total",
		Help: "Tile images fetched from the network, by operator",
	}, []string{"operator"})
	TileCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_tile_cache_hits_total",
		Help: "Tile reads served from cache, by tier",
	}, []string{"tier"})
	TileFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coverage_tile_fetch_duration_ms",
		Help:    "Tile network fetch duration in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	SampleErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_sample_errors_total",
		Help: "Per-point per-operator resolution failures, by operator",
	}, []string{"operator"})
)

func init() {
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysesFailedTotal)
	prometheus.MustRegister(AnalysisDurationMs)
	prometheus.MustRegister(TilesFetchedTotal)
	prometheus.MustRegister(TileCacheHitsTotal)
	prometheus.MustRegister(TileFetchDurationMs)
	prometheus.MustRegister(SampleErrorsTotal)
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
