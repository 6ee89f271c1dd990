package ports

import (
	"context"

	"coverage-route-service/internal/domain"
)

// Port: a boundary for resolving free-text locations (postcodes, addresses)
// to geographic coordinates.
type Geocoder interface {
	// Resolve a location string to coordinates. A location that cannot be
	// found is an error, not a zero value.
	Resolve(ctx context.Context, location string) (domain.Coordinates, error)
}
