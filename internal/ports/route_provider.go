package ports

import (
	"context"

	"coverage-route-service/internal/domain"
)

// Travel profile accepted by routing providers.
type TravelProfile string

const (
	ProfileDriving TravelProfile = "driving-car"
	ProfileWalking TravelProfile = "foot-walking"
	ProfileCycling TravelProfile = "cycling-regular"
)

// A fetched route between two coordinates.
type Route struct {
	Polyline            []domain.Coordinates
	TotalDistanceMeters float64
	DurationSeconds     float64
}

// Contract for retrieving a travel route between two coordinates.
type RouteProvider interface {
	// Return the route polyline and aggregate metrics for the given
	// profile. No-route-found and transport failures are both errors.
	GetRoute(ctx context.Context, origin, destination domain.Coordinates, profile TravelProfile) (Route, error)
}
