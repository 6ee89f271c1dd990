package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coverage-route-service/internal/platform/obs"
)

// SQLTileStore is the Postgres variant of the tile store, for deployments
// where several instances share one cache.
type SQLTileStore struct {
	DB *sql.DB
}

func NewSQLTileStore(db *sql.DB) *SQLTileStore {
	return &SQLTileStore{DB: db}
}

// InitSchemaSQL creates the Postgres tables and reconciles the stored
// schema version.
func InitSchemaSQL(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTilesQuery := `
	CREATE TABLE IF NOT EXISTS tiles (
		cache_key TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		byte_size INTEGER NOT NULL,
		written_at BIGINT NOT NULL
	);
	`

	createSettingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	for i, stmt := range []string{createTilesQuery, createSettingsQuery} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1;`, schemaVersionKey).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("init schema: read schema version: %w", err)
	}

	if stored != strconv.Itoa(schemaVersion) {
		if stored != "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tiles;`); err != nil {
				return fmt.Errorf("init schema: drop stale tiles: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;
		`, schemaVersionKey, strconv.Itoa(schemaVersion)); err != nil {
			return fmt.Errorf("init schema: write schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func (s *SQLTileStore) GetTile(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "store.GetTile")(&err)

	if s.DB == nil {
		return nil, false, errors.New("tile store: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get tile: key must not be empty")
	}

	var data []byte
	err = s.DB.QueryRowContext(ctx, `SELECT data FROM tiles WHERE cache_key = $1;`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get tile %q: %w", key, err)
	}

	return data, true, nil
}

func (s *SQLTileStore) PutTile(ctx context.Context, key string, data []byte) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}
	if key == "" {
		return errors.New("put tile: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO tiles (cache_key, data, byte_size, written_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cache_key) DO UPDATE
	SET data = EXCLUDED.data,
		byte_size = EXCLUDED.byte_size,
		written_at = EXCLUDED.written_at;
	`, key, data, len(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put tile %q: %w", key, err)
	}

	return nil
}

func (s *SQLTileStore) ClearTiles(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM tiles;`); err != nil {
		return fmt.Errorf("clear tiles: %w", err)
	}

	return nil
}

func (s *SQLTileStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("tile store: db is nil")
	}
	if key == "" {
		return "", false, errors.New("get setting: key must not be empty")
	}

	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}

	return value, true, nil
}

func (s *SQLTileStore) PutSetting(ctx context.Context, key, value string) error {
	if s.DB == nil {
		return errors.New("tile store: db is nil")
	}
	if key == "" {
		return errors.New("put setting: key must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO settings (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;
	`, key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}

	return nil
}
