package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"coverage-route-service/internal/adapters/store"
	"coverage-route-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// dbtool initializes or clears the persistent tile cache.
//
//	dbtool init   create the tiles and settings schema
//	dbtool clear  drop cached tiles (settings survive)
//
// Targets Postgres when DATABASE_URL is set, otherwise the SQLite file
// at DB_PATH.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cmd := "init"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()

	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := runPostgres(ctx, pg, cmd); err != nil {
			log.Fatal(err)
		}
		return
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/tiles.db"
	}

	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("open sqlite database %q: %v", dbPath, err)
	}
	defer sqliteDB.Close()

	if err := runSqlite(ctx, sqliteDB, cmd); err != nil {
		log.Fatal(err)
	}
}

func runPostgres(ctx context.Context, pg *sql.DB, cmd string) error {
	switch cmd {
	case "init":
		log.Println("Initializing postgres tile schema...")
		if err := store.InitSchemaSQL(ctx, pg); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		log.Println("Schema ready.")
		return nil
	case "clear":
		log.Println("Clearing postgres tile cache...")
		if err := store.NewSQLTileStore(pg).ClearTiles(ctx); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		log.Println("Tiles cleared.")
		return nil
	default:
		return fmt.Errorf("unknown command %q (want init or clear)", cmd)
	}
}

func runSqlite(ctx context.Context, sqliteDB *sql.DB, cmd string) error {
	switch cmd {
	case "init":
		log.Println("Initializing sqlite tile schema...")
		if err := store.InitSchema(sqliteDB); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		log.Println("Schema ready.")
		return nil
	case "clear":
		log.Println("Clearing sqlite tile cache...")
		if err := store.NewSqliteTileStore(sqliteDB).ClearTiles(ctx); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		log.Println("Tiles cleared.")
		return nil
	default:
		return fmt.Errorf("unknown command %q (want init or clear)", cmd)
	}
}
