package ports

import "coverage-route-service/internal/domain"

// Contract for converting between WGS84 and the projected plane the tile
// grid is addressed in. Implementations must propagate NaN inputs as NaN
// outputs rather than failing.
type Projector interface {
	// Project a geographic coordinate onto the planar grid.
	ToProjected(c domain.Coordinates) domain.Projected
	// Invert a planar position back to geographic coordinates.
	ToGeographic(p domain.Projected) domain.Coordinates
}
