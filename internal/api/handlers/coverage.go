package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"coverage-route-service/internal/api/dto"
	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/ports"
	"coverage-route-service/internal/services"
)

type CoverageHandler struct {
	Analyzer *services.CoverageAnalyzer
}

// Analyze runs a full coverage analysis for the requested route.
// It coordinates validation, geocoding, routing, sampling and per-point
// coverage resolution through the analyzer; per-point progress is logged
// server-side at phase boundaries.
func (h *CoverageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.CoverageRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	profile := ports.TravelProfile(req.Profile)
	if req.Profile == "" {
		profile = ports.ProfileDriving
	}

	var lastPhase string
	onProgress := func(p services.Progress) {
		if p.Phase != lastPhase {
			lastPhase = p.Phase
			log.Printf("analysis phase=%q progress=%.0f%%", p.Phase, p.Percent)
		}
	}

	analysis, err := h.Analyzer.Analyze(r.Context(), services.Request{
		Start:       req.Start,
		End:         req.End,
		Profile:     profile,
		SampleCount: req.SampleCount,
	}, onProgress)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, http.StatusBadRequest, ve.Reason)
			return
		}
		log.Printf("coverage analysis failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "coverage analysis failed")
		return
	}

	writeJSON(w, r, http.StatusOK, toResponse(analysis))
}

func toResponse(a *services.Analysis) dto.CoverageResponse {
	points := make([]dto.PointResponse, 0, len(a.Results))
	for _, result := range a.Results {
		networks := make([]dto.NetworkResponse, 0, len(result.Networks))
		for _, op := range domain.AllOperators() {
			n, ok := result.Networks[op]
			if !ok {
				continue
			}

			nr := dto.NetworkResponse{
				Operator: string(op),
				Name:     op.DisplayName(),
				Color:    n.Color,
				Error:    n.Error,
			}
			if n.Level.Known() {
				level := int(n.Level)
				nr.Level = &level
			}
			networks = append(networks, nr)
		}

		points = append(points, dto.PointResponse{
			Lat:            result.Point.Lat,
			Lon:            result.Point.Lon,
			DistanceMeters: result.Point.DistanceMeters,
			Label:          result.Label,
			Networks:       networks,
		})
	}

	return dto.CoverageResponse{
		Points:              points,
		TotalDistanceMeters: a.Route.TotalDistanceMeters,
		CacheStats: dto.CacheStatsResponse{
			TilesFetched:   a.Stats.TilesFetched,
			TilesFromCache: a.Stats.TilesFromCache,
		},
	}
}
