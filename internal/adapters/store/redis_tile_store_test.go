package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisTileStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTileStore(client)
}

func TestRedisTileRoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if _, found, err := s.GetTile(ctx, "ee-8-184-62-v1"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	if err := s.PutTile(ctx, "ee-8-184-62-v1", []byte("png")); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, found, err := s.GetTile(ctx, "ee-8-184-62-v1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(data) != "png" {
		t.Errorf("data = %q", data)
	}
}

func TestRedisClearTilesKeepsSettings(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.PutTile(ctx, "ee-8-1-1-v1", []byte("a")); err != nil {
		t.Fatalf("put tile: %v", err)
	}
	if err := s.PutTile(ctx, "o2-8-1-1-v1", []byte("b")); err != nil {
		t.Fatalf("put tile: %v", err)
	}
	if err := s.PutSetting(ctx, "tile_version", "v1"); err != nil {
		t.Fatalf("put setting: %v", err)
	}

	if err := s.ClearTiles(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, found, _ := s.GetTile(ctx, "ee-8-1-1-v1"); found {
		t.Error("tile survived clear")
	}

	value, found, err := s.GetSetting(ctx, "tile_version")
	if err != nil || !found {
		t.Fatalf("setting lost: found=%v err=%v", found, err)
	}
	if value != "v1" {
		t.Errorf("setting = %q, want v1", value)
	}
}
