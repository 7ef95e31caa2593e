package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the cache; satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using a pgx connection pool. Meant for
// deployments where several workers share one cache.
type PostgresStore struct {
	pool Pool
	ttl  time.Duration
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lead_cache (
	key       TEXT PRIMARY KEY,
	category  TEXT NOT NULL,
	location  TEXT NOT NULL,
	leads     JSONB NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL
)`

// NewPostgres connects a Postgres-backed cache and runs its migration.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "cache: postgres migrate")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, category, location string) ([]model.Lead, error) {
	key := Key(category, location)

	var leadsJSON []byte
	var cachedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT leads, cached_at FROM lead_cache WHERE key = $1`, key,
	).Scan(&leadsJSON, &cachedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres get")
	}

	if time.Since(cachedAt) > s.ttl {
		if _, err := s.pool.Exec(ctx, `DELETE FROM lead_cache WHERE key = $1`, key); err != nil {
			zap.L().Warn("cache: failed to delete stale entry", zap.String("key", key), zap.Error(err))
		}
		return nil, nil
	}

	var leads []model.Lead
	if err := json.Unmarshal(leadsJSON, &leads); err != nil {
		return nil, eris.Wrap(err, "cache: postgres unmarshal leads")
	}
	return leads, nil
}

func (s *PostgresStore) Put(ctx context.Context, category, location string, leads []model.Lead) error {
	leadsJSON, err := json.Marshal(leads)
	if err != nil {
		return eris.Wrap(err, "cache: marshal leads")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lead_cache (key, category, location, leads, cached_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET leads = EXCLUDED.leads, cached_at = EXCLUDED.cached_at`,
		Key(category, location), category, location, leadsJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "cache: postgres put")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	tag, err := s.pool.Exec(ctx, `DELETE FROM lead_cache WHERE cached_at <= $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM lead_cache`)
	return eris.Wrap(err, "cache: postgres clear")
}
