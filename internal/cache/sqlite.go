package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLite opens (and migrates) a SQLite-backed cache at the given path.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}

	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: sqlite migrate")
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SQLiteStore{db: db, ttl: ttl}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lead_cache (
	key       TEXT PRIMARY KEY,
	category  TEXT NOT NULL,
	location  TEXT NOT NULL,
	leads     TEXT NOT NULL,
	cached_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lead_cache_cached_at ON lead_cache(cached_at);
`

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, category, location string) ([]model.Lead, error) {
	key := Key(category, location)

	row := s.db.QueryRowContext(ctx,
		`SELECT leads, cached_at FROM lead_cache WHERE key = ?`, key)

	var leadsJSON string
	var cachedAt time.Time
	err := row.Scan(&leadsJSON, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite get")
	}

	if time.Since(cachedAt) > s.ttl {
		// Lazy expiry: drop the stale row and report a miss.
		if _, err := s.db.ExecContext(ctx, `DELETE FROM lead_cache WHERE key = ?`, key); err != nil {
			zap.L().Warn("cache: failed to delete stale entry", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}

	var leads []model.Lead
	if err := json.Unmarshal([]byte(leadsJSON), &leads); err != nil {
		return nil, eris.Wrap(err, "cache: sqlite unmarshal leads")
	}
	return leads, nil
}

func (s *SQLiteStore) Put(ctx context.Context, category, location string, leads []model.Lead) error {
	leadsJSON, err := json.Marshal(leads)
	if err != nil {
		return eris.Wrap(err, "cache: marshal leads")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lead_cache (key, category, location, leads, cached_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET leads = excluded.leads, cached_at = excluded.cached_at`,
		Key(category, location), category, location, string(leadsJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "cache: sqlite put")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	res, err := s.db.ExecContext(ctx, `DELETE FROM lead_cache WHERE cached_at <= ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: sqlite rows affected")
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lead_cache`)
	return eris.Wrap(err, "cache: sqlite clear")
}
