package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escaduto/spotospot/internal/pkg/config"
)

// Migrations run in order, each inside its own transaction. Files are
// written to be re-runnable (IF NOT EXISTS / CREATE OR REPLACE), so a
// partial failure is fixed by running up again.
var migrationFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_core_tables.sql",
	"migrations/003_search_functions.sql",
}

func main() {
	if len(os.Args) < 2 || os.Args[1] != "up" {
		log.Fatal("usage: migrate up")
	}

	cfg, err := config.Load("spotospot-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := migrateUp(ctx, pool); err != nil {
		log.Fatal(err)
	}
	log.Printf("all %d migrations applied", len(migrationFiles))
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	for _, f := range migrationFiles {
		start := time.Now()

		data, err := os.ReadFile(f)
		if err != nil {
			return err
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("applied %s (%s)", f, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
