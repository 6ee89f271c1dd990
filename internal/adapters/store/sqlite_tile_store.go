// Package store provides persistent key/value backends for the tile cache:
// an embedded SQLite file for single-node runs, Postgres for shared
// deployments, and Redis where one is already available. All three expose
// the same two collections (tiles, settings) behind ports.TileStore.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// schemaVersion must be bumped whenever collection layout changes. On
// mismatch the tiles collection is dropped and rebuilt; settings survive.
const schemaVersion = 1

const schemaVersionKey = "schema_version"

// SQLite backed tile store. Keys are the composite cache keys produced by
// the tile cache; the store does not interpret them.
type SqliteTileStore struct {
	DB *sql.DB
}

func NewSqliteTileStore(db *sql.DB) *SqliteTileStore {
	return &SqliteTileStore{DB: db}
}

// InitSchema creates the tiles and settings tables and reconciles the
// stored schema version, dropping stale tile data when the layout changed.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTilesQuery := `
	CREATE TABLE IF NOT EXISTS tiles (
		cache_key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		byte_size INTEGER NOT NULL,
		written_at INTEGER NOT NULL
	);
	`

	createSettingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	for i, stmt := range []string{createTilesQuery, createSettingsQuery} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	var stored string
	err = tx.QueryRow(`SELECT value FROM settings WHERE key = ?;`, schemaVersionKey).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("init schema: read schema version: %w", err)
	}

	if stored != strconv.Itoa(schemaVersion) {
		if stored != "" {
			if _, err := tx.Exec(`DELETE FROM tiles;`); err != nil {
				return fmt.Errorf("init schema: drop stale tiles: %w", err)
			}
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?);`,
			schemaVersionKey, strconv.Itoa(schemaVersion),
		); err != nil {
			return fmt.Errorf("init schema: write schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Fetch one cached tile. The second return is false on a clean miss.
func (s *SqliteTileStore) GetTile(ctx context.Context, key string) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("tile store: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get tile: key must not be empty")
	}

	var data []byte
	err := s.DB.QueryRowContext(ctx, `SELECT data FROM tiles WHERE cache_key = ?;`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get tile %q: %w", key, err)
	}

	return data, true, nil
}

// Store one tile, replacing any previous entry under the same key.
func (s *SqliteTileStore) PutTile(ctx context.Context, key string, data []byte) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}
	if key == "" {
		return errors.New("put tile: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO tiles (cache_key, data, byte_size, written_at)
	VALUES (?, ?, ?, ?);
	`, key, data, len(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put tile %q: %w", key, err)
	}

	return nil
}

// ClearTiles empties the tile collection. Settings are untouched.
func (s *SqliteTileStore) ClearTiles(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM tiles;`); err != nil {
		return fmt.Errorf("clear tiles: %w", err)
	}

	return nil
}

func (s *SqliteTileStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("tile store: db is nil")
	}
	if key == "" {
		return "", false, errors.New("get setting: key must not be empty")
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}

	return value, true, nil
}

func (s *SqliteTileStore) PutSetting(ctx context.Context, key, value string) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}
	if key == "" {
		return errors.New("put setting: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?);
	`, key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}

	return nil
}
