package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starboard-ventures/BDX-auction/internal/config"
	"github.com/starboard-ventures/BDX-auction/internal/db"
)

const migrationsDir = "migrations"

func main() {
	log.SetPrefix("bdx-auction migrate: ")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		log.Fatalf("ensure schema table failed: %v", err)
	}

	names, err := pendingMigrations(ctx, pool)
	if err != nil {
		log.Fatalf("list migrations failed: %v", err)
	}
	if len(names) == 0 {
		log.Printf("schema up to date")
		return
	}

	for _, name := range names {
		if err := apply(ctx, pool, name); err != nil {
			log.Fatalf("apply %s failed: %v", name, err)
		}
		log.Printf("applied %s", name)
	}
}

// pendingMigrations returns the .sql files not yet recorded in
// schema_migrations, in lexical order.
func pendingMigrations(ctx context.Context, pool *db.Pool) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		var done bool
		row := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename=$1)`, name)
		if err := row.Scan(&done); err != nil {
			return nil, err
		}
		if !done {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// apply runs one migration and records it, atomically.
func apply(ctx context.Context, pool *db.Pool, name string) error {
	sql, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if stmts := strings.TrimSpace(string(sql)); stmts != "" {
		if _, err := tx.Exec(ctx, stmts); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
