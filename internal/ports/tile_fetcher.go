package ports

import (
	"context"

	"coverage-route-service/internal/domain"
)

// Port: a boundary for retrieving a single coverage tile image over the
// network. The fetcher owns URL construction and transport retries; callers
// own caching.
type TileFetcher interface {
	// Fetch the PNG bytes of the tile addressed by (operator, zoom, x, y).
	FetchTile(ctx context.Context, op domain.Operator, zoom, x, y int) ([]byte, error)
}
