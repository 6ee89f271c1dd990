package handlers

import (
	"net/http"

	"coverage-route-service/internal/api/dto"
	"coverage-route-service/internal/services"
)

type CacheHandler struct {
	Analyzer *services.CoverageAnalyzer
}

// Stats reports the tile cache fetch/hit counters.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.Analyzer.Stats()
	writeJSON(w, r, http.StatusOK, dto.CacheStatsResponse{
		TilesFetched:   stats.TilesFetched,
		TilesFromCache: stats.TilesFromCache,
	})
}

// Clear empties both tile cache tiers. Settings survive.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.Analyzer.ClearCache(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}
