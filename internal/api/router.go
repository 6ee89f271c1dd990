package api

import (
	"net/http"

	"coverage-route-service/internal/api/handlers"
	"coverage-route-service/internal/metrics"
	"coverage-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(analyzer *services.CoverageAnalyzer) http.Handler {
	mux := http.NewServeMux()

	coverageHandler := &handlers.CoverageHandler{Analyzer: analyzer}
	cacheHandler := &handlers.CacheHandler{Analyzer: analyzer}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/coverage", coverageHandler.Analyze)
	mux.HandleFunc("/cache/stats", cacheHandler.Stats)
	mux.HandleFunc("/cache", cacheHandler.Clear)
	mux.Handle("/metrics", metrics.Handler())

	return loggingMiddleware(mux)
}
