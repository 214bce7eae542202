package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/mcdev12/auctionhouse/go/internal/auction/store"
	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
)

// setupStore opens the store selected by STORE_DRIVER.
func setupStore(ctx context.Context, e Env, cfg Config) (store.Store, error) {
	switch e.StoreDriver {
	case "file":
		st, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.DataDir).Msg("using file store")
		return st, nil

	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		database, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// One connection keeps sqlite writers from tripping over each other.
		database.SetMaxOpenConns(1)
		return openSQLStore(ctx, database, store.SQLite)

	case "postgres":
		dbCfg := dbconfig.NewConfigFromEnv()
		database, err := sql.Open("postgres", dbCfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		if err := database.PingContext(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().
			Str("user", dbCfg.User).
			Str("host", dbCfg.Host).
			Int("port", dbCfg.Port).
			Str("database", dbCfg.Database).
			Msg("connected to database")
		return openSQLStore(ctx, database, store.Postgres)
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", e.StoreDriver)
}

func openSQLStore(ctx context.Context, database *sql.DB, d store.Dialect) (store.Store, error) {
	st, err := store.NewSQLStore(ctx, database, d)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Info().Str("dialect", d.Name).Msg("using SQL store")
	return st, nil
}
