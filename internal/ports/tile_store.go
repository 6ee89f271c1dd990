package ports

import "context"

// Port: a versioned key/value store backing the persistent tile cache tier.
// Implementations expose two independent collections: tile image bytes keyed
// by composite cache key, and small settings strings. Clearing tiles must
// leave settings untouched.
//
// Store failures are advisory. The tile cache treats every error from these
// methods as "tier unavailable" and degrades to memory-only operation, so
// implementations should return errors rather than panic or block.
type TileStore interface {
	GetTile(ctx context.Context, key string) ([]byte, bool, error)
	PutTile(ctx context.Context, key string, data []byte) error
	// ClearTiles removes every entry from the tile collection.
	ClearTiles(ctx context.Context) error

	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}
