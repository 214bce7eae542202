package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// entry is one player in the import file. JSON files parse too, since YAML is
// a superset.
type entry struct {
	Name   string `yaml:"name"`
	Team   string `yaml:"team"`
	Rating *int   `yaml:"rating"`
	// Either base_price in whole units or base_price_millions.
	BasePrice         int64 `yaml:"base_price"`
	BasePriceMillions int64 `yaml:"base_price_millions"`
}

func main() {
	path := flag.String("file", "go/internal/assets/catalog.yaml", "catalog file (YAML or JSON)")
	merge := flag.Bool("merge", false, "merge into the stored catalog instead of replacing it")
	flag.Parse()

	ctx := context.Background()

	// 1) Load the catalog file
	data, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}
	incoming, err := parseCatalog(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", *path, err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Write the catalog row
	total, stored, err := importCatalog(ctx, pool, incoming, *merge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catalog import: file=%d stored=%d merge=%t\n", total, stored, *merge)
}

// parseCatalog validates the file entries and keys them by name.
func parseCatalog(data []byte) (models.Catalog, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	c := make(models.Catalog, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("entry %d: name is required", i)
		}
		price := e.BasePrice
		if e.BasePriceMillions != 0 {
			price = e.BasePriceMillions * 1_000_000
		}
		if price <= 0 {
			return nil, fmt.Errorf("entry %d (%s): base price must be positive", i, name)
		}
		if _, dup := c.Get(name); dup {
			return nil, fmt.Errorf("entry %d: duplicate player %q", i, name)
		}
		c.Put(models.Player{Name: name, Team: strings.TrimSpace(e.Team), Rating: e.Rating, BasePrice: price})
	}
	return c, nil
}

func importCatalog(ctx context.Context, pool *pgxpool.Pool, incoming models.Catalog, merge bool) (int, int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
            CREATE TABLE IF NOT EXISTS auction_records (
              name TEXT PRIMARY KEY, data JSONB NOT NULL, backup JSONB,
              updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
            )`); err != nil {
		return 0, 0, err
	}

	catalog := incoming
	if merge {
		var raw []byte
		err := tx.QueryRow(ctx, `SELECT data FROM auction_records WHERE name = 'catalog' FOR UPDATE`).Scan(&raw)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return 0, 0, err
		default:
			existing := models.Catalog{}
			if err := json.Unmarshal(raw, &existing); err != nil {
				return 0, 0, fmt.Errorf("stored catalog: %w", err)
			}
			for _, p := range incoming {
				existing.Put(p)
			}
			catalog = existing
		}
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return 0, 0, err
	}
	if _, err := tx.Exec(ctx, `
            INSERT INTO auction_records (name, data) VALUES ('catalog', $1)
            ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP
        `, data); err != nil {
		return 0, 0, err
	}
	return len(incoming), len(catalog), tx.Commit(ctx)
}
