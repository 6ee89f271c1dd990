package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"coverage-route-service/internal/adapters/geocode"
	"coverage-route-service/internal/adapters/store"
	"coverage-route-service/internal/adapters/tiles"
	"coverage-route-service/internal/api"
	"coverage-route-service/internal/geodesy"
	"coverage-route-service/internal/platform/db"
	"coverage-route-service/internal/ports"
	"coverage-route-service/internal/services"
	"coverage-route-service/internal/tilecache"
	"coverage-route-service/internal/tilegrid"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres/Redis store, ORS, tile API)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := getEnv("PORT", "8080")
	tileBase := getEnv("TILE_API_BASE", "https://coverage-tiles.example.net/tiles")
	tileVersion := getEnv("TILE_VERSION", "1")

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	tileStore, closeStore, err := openTileStore()
	if err != nil {
		log.Fatal(err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	fetcher, err := tiles.NewHTTPFetcher(tileBase, tileVersion)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := geocode.NewORSProvider(orsKey)
	if err != nil {
		log.Fatal(err)
	}

	cfg := services.Config{
		SampleCount: getEnvInt("SAMPLE_COUNT", 500),
		BatchSize:   getEnvInt("BATCH_SIZE", 5),
		BatchDelay:  time.Duration(getEnvInt("BATCH_DELAY_MS", 500)) * time.Millisecond,
		Zoom:        getEnvInt("TILE_ZOOM", tilegrid.DefaultZoom),
	}

	cache := tilecache.New(fetcher, tileStore, cfg.Zoom, tileVersion)
	analyzer := services.NewCoverageAnalyzer(
		provider,
		provider,
		geodesy.NewOSGB36(),
		tilegrid.New(tilegrid.DefaultConfig()),
		cache,
		cfg,
	)

	router := api.NewRouter(analyzer)

	// Timeouts are tuned for cold-cache analysis runs: a 500-point route
	// with throttling takes minutes, not seconds.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// openTileStore picks the persistent tier: Postgres when DATABASE_URL is
// set, Redis when REDIS_ADDR is set, otherwise an embedded SQLite file.
// A store that fails to open is logged and skipped; the cache runs
// memory-only rather than refusing to start.
func openTileStore() (ports.TileStore, func(), error) {
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres tile store: %w", err)
		}
		return store.NewSQLTileStore(pg), func() { pg.Close() }, nil
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(redisAddr) != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASS"),
		})
		return store.NewRedisTileStore(client), func() { client.Close() }, nil
	}

	dbPath := getEnv("DB_PATH", "data/tiles.db")
	sqliteDB, err := openSqlite(dbPath)
	if err != nil {
		log.Printf("sqlite tile store unavailable, running memory-only: %v", err)
		return nil, nil, nil
	}
	return store.NewSqliteTileStore(sqliteDB), func() { sqliteDB.Close() }, nil
}

func openSqlite(dbPath string) (*sql.DB, error) {
	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}

	if err := sqliteDB.Ping(); err != nil {
		return nil, fmt.Errorf("verify sqlite connection to %q: %w", dbPath, err)
	}

	if err := store.InitSchema(sqliteDB); err != nil {
		return nil, err
	}

	return sqliteDB, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
