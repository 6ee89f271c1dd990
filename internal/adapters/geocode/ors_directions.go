package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/platform/obs"
	"coverage-route-service/internal/polyline"
	"coverage-route-service/internal/ports"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// GetRoute fetches a route from /v2/directions/{profile}. The geometry
// comes back as an encoded polyline and is decoded here; callers see plain
// coordinates.
func (o *ORSProvider) GetRoute(
	ctx context.Context,
	origin, destination domain.Coordinates,
	profile ports.TravelProfile,
) (_ ports.Route, err error) {
	defer obs.Time(ctx, "ors.GetRoute")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
	})
	if err != nil {
		return ports.Route{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.Route{}, fmt.Errorf("get directions: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Route{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return ports.Route{}, fmt.Errorf("no route found between %v and %v", origin, destination)
	}

	r := decoded.Routes[0]
	coords := polyline.Decode(r.Geometry)
	if len(coords) < 2 {
		return ports.Route{}, fmt.Errorf("route geometry decoded to %d points", len(coords))
	}

	return ports.Route{
		Polyline:            coords,
		TotalDistanceMeters: r.Summary.Distance,
		DurationSeconds:     r.Summary.Duration,
	}, nil
}
