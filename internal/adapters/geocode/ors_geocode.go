package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Resolve a postcode or address to coordinates using /geocode/search,
// bounded to Great Britain. A location with no results is a descriptive
// error, not an empty coordinate.
func (o *ORSProvider) Resolve(ctx context.Context, location string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Resolve")(&err)

	norm := o.normalize(location)
	if norm == "" {
		return domain.Coordinates{}, domain.NewValidationError("location must be non-empty")
	}

	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("boundary.country", "GB")
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("location %q not found", norm)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
