// Package postgres implements the durable Cache Store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	_ "github.com/lib/pq"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS property_data_cache (
	cache_key   TEXT PRIMARY KEY,
	street      TEXT NOT NULL,
	city        TEXT NOT NULL,
	state       TEXT NOT NULL,
	zip_code    TEXT NOT NULL,
	data_source TEXT NOT NULL,
	payload     JSONB NOT NULL,
	written_at  TIMESTAMPTZ NOT NULL
)`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS property_data_cache_written_at_idx ON property_data_cache (written_at)`

	selectEntrySQL = `SELECT street, city, state, zip_code, data_source, payload, written_at FROM property_data_cache WHERE cache_key = $1`

	upsertEntrySQL = `INSERT INTO property_data_cache (cache_key, street, city, state, zip_code, data_source, payload, written_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (cache_key) DO UPDATE SET
	street = EXCLUDED.street,
	city = EXCLUDED.city,
	state = EXCLUDED.state,
	zip_code = EXCLUDED.zip_code,
	data_source = EXCLUDED.data_source,
	payload = EXCLUDED.payload,
	written_at = EXCLUDED.written_at`

	sweepSQL = `DELETE FROM property_data_cache WHERE written_at <= $1`

	statsSQL = `SELECT COUNT(*), COUNT(*) FILTER (WHERE written_at > $1) FROM property_data_cache`
)

// Store is a cache.Store backed by the property_data_cache table.
type Store struct {
	db *sql.DB

	// schemaPending is set when Migrate fails; the next Put retries it.
	schemaPending atomic.Bool
}

// Open connects to Postgres using the lib/pq driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the cache table and its age index if they do not exist.
// After a failure the store keeps working and Put retries the migration.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.schemaPending.Store(true)
			return fmt.Errorf("%w: migrate: %w", domain.ErrCacheUnavailable, err)
		}
	}
	s.schemaPending.Store(false)
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var (
		e       = cache.Entry{Key: key}
		source  string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, selectEntrySQL, key).Scan(
		&e.Address.Street, &e.Address.City, &e.Address.State, &e.Address.ZipCode,
		&source, &payload, &e.WrittenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("%w: get %s: %w", domain.ErrCacheUnavailable, key, err)
	}

	if err := json.Unmarshal(payload, &e.Payload); err != nil {
		return cache.Entry{}, false, fmt.Errorf("decode cached payload %s: %w", key, err)
	}
	e.DataSource = domain.DataSource(source)
	e.WrittenAt = e.WrittenAt.UTC()
	return e, true, nil
}

func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", e.Key, err)
	}

	if s.schemaPending.Load() {
		if err := s.Migrate(ctx); err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, upsertEntrySQL,
		e.Key, e.Address.Street, e.Address.City, e.Address.State, e.Address.ZipCode,
		string(e.DataSource), payload, e.WrittenAt,
	)
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", domain.ErrCacheUnavailable, e.Key, err)
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, sweepSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %w", domain.ErrCacheUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) Stats(ctx context.Context, cutoff time.Time) (cache.Stats, error) {
	var st cache.Stats
	if err := s.db.QueryRowContext(ctx, statsSQL, cutoff).Scan(&st.TotalEntries, &st.ValidEntries); err != nil {
		return cache.Stats{}, fmt.Errorf("%w: stats: %w", domain.ErrCacheUnavailable, err)
	}
	st.ExpiredEntries = st.TotalEntries - st.ValidEntries
	return st, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
