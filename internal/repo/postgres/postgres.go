// Package postgres is the optional database-backed target store, selected
// when the config carries a database URL. Targets survive restarts; outage
// state never does (every session starts UP).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pingmon/internal/domain"
	"pingmon/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS targets (
			alias        TEXT PRIMARY KEY,
			host         TEXT NOT NULL,
			interval_sec INT  NOT NULL,
			timeout_ms   INT  NOT NULL,
			enabled      BOOL NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT alias, host, interval_sec, timeout_ms, enabled
		   FROM targets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Target
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(&t.Alias, &t.Host, &t.IntervalSec, &t.TimeoutMS, &t.Enabled); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, alias string) (*domain.Target, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT alias, host, interval_sec, timeout_ms, enabled
		   FROM targets WHERE alias = $1`, alias)
	var t domain.Target
	if err := row.Scan(&t.Alias, &t.Host, &t.IntervalSec, &t.TimeoutMS, &t.Enabled); err != nil {
		return nil, nil // not found
	}
	return &t, nil
}

func (s *Store) Upsert(ctx context.Context, t domain.Target) error {
	t.Normalize()
	if t.Host == "" {
		return fmt.Errorf("target %q: host is required", t.Alias)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (alias, host, interval_sec, timeout_ms, enabled)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (alias) DO UPDATE
		   SET host = EXCLUDED.host,
		       interval_sec = EXCLUDED.interval_sec,
		       timeout_ms = EXCLUDED.timeout_ms,
		       enabled = EXCLUDED.enabled`,
		t.Alias, t.Host, t.IntervalSec, t.TimeoutMS, t.Enabled)
	return err
}

func (s *Store) Delete(ctx context.Context, alias string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE alias = $1`, alias)
	return err
}

func (s *Store) SetEnabled(ctx context.Context, alias string, enabled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE targets SET enabled = $2 WHERE alias = $1`, alias, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unknown target %q", alias)
	}
	return nil
}
