package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/bizaudit/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteBackend persists entries in a single SQLite table so results survive
// restarts.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if needed) the database at path and
// applies the schema. Use ":memory:" for a throwaway store.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, errors.New("cache: sqlite path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("ensure cache dir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	var (
		breakdownJSON, factsJSON string
		capturedAt               int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT breakdown, facts, captured_at FROM audit_cache WHERE cache_key = ?`, key,
	).Scan(&breakdownJSON, &factsJSON, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache entry: %w", err)
	}

	entry := &model.CacheEntry{Key: key, CapturedAt: time.UnixMilli(capturedAt).UTC()}
	if err := json.Unmarshal([]byte(breakdownJSON), &entry.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(factsJSON), &entry.Facts); err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}
	return entry, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, entry *model.CacheEntry) error {
	if entry == nil {
		return nil
	}
	breakdownJSON, err := json.Marshal(entry.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	factsJSON, err := json.Marshal(entry.Facts)
	if err != nil {
		return fmt.Errorf("encode facts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_cache (cache_key, breakdown, facts, captured_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			breakdown = excluded.breakdown,
			facts = excluded.facts,
			captured_at = excluded.captured_at`,
		entry.Key, string(breakdownJSON), string(factsJSON), entry.CapturedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Prune deletes entries captured before cutoff and returns how many went.
func (s *SQLiteBackend) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_cache WHERE captured_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
