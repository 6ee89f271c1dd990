package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key prefixes keep the two collections independent inside one Redis
// database; ClearTiles must not disturb settings.
const (
	redisTilePrefix    = "tiles:"
	redisSettingPrefix = "settings:"
)

// Redis backed tile store, for deployments that already run Redis next to
// the service.
type RedisTileStore struct {
	Client *redis.Client
}

func NewRedisTileStore(client *redis.Client) *RedisTileStore {
	return &RedisTileStore{Client: client}
}

func (s *RedisTileStore) GetTile(ctx context.Context, key string) ([]byte, bool, error) {
	if s.Client == nil {
		return nil, false, errors.New("tile store: redis client is nil")
	}
	if key == "" {
		return nil, false, errors.New("get tile: key must not be empty")
	}

	data, err := s.Client.Get(ctx, redisTilePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get tile %q: %w", key, err)
	}

	return data, true, nil
}

func (s *RedisTileStore) PutTile(ctx context.Context, key string, data []byte) error {
	if s.Client == nil {
		return errors.New("tile store: redis client is nil")
	}
	if key == "" {
		return errors.New("put tile: key must not be empty")
	}

	if err := s.Client.Set(ctx, redisTilePrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("put tile %q: %w", key, err)
	}

	return nil
}

// ClearTiles deletes every key in the tile collection by prefix scan.
func (s *RedisTileStore) ClearTiles(ctx context.Context) error {
	if s.Client == nil {
		return errors.New("tile store: redis client is nil")
	}

	iter := s.Client.Scan(ctx, 0, redisTilePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear tiles: delete %q: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("clear tiles: scan: %w", err)
	}

	return nil
}

func (s *RedisTileStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s.Client == nil {
		return "", false, errors.New("tile store: redis client is nil")
	}
	if key == "" {
		return "", false, errors.New("get setting: key must not be empty")
	}

	value, err := s.Client.Get(ctx, redisSettingPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}

	return value, true, nil
}

func (s *RedisTileStore) PutSetting(ctx context.Context, key, value string) error {
	if s.Client == nil {
		return errors.New("tile store: redis client is nil")
	}
	if key == "" {
		return errors.New("put setting: key must not be empty")
	}

	if err := s.Client.Set(ctx, redisSettingPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}

	return nil
}
