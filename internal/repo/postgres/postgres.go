package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS status (
  checked_date BIGINT,
  site_name    TEXT,
  site_url     TEXT,
  status_code  INTEGER NULL,
  elapsed      DOUBLE PRECISION NULL,
  message      TEXT NULL,
  success      INTEGER
);

CREATE TABLE IF NOT EXISTS message_sent (
  sent_date BIGINT,
  "to"      TEXT,
  "from"    TEXT,
  subject   TEXT,
  message   TEXT
);

CREATE INDEX IF NOT EXISTS idx_status_site_date ON status (site_name, checked_date DESC);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, repo.Wrap("open", fmt.Errorf("pgxpool.New: %w", err))
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, repo.Wrap("ping", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.log.Debug("store_closing", zap.String("driver", "postgres"))
		s.pool.Close()
	}
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	// simple protocol allows the multi-statement script
	if _, err := s.pool.Exec(ctx, schemaSQL, pgx.QueryExecModeSimpleProtocol); err != nil {
		return repo.Wrap("ensure schema", err)
	}
	return nil
}

func (s *Store) RecordProbe(ctx context.Context, r domain.ProbeResult) error {
	success := 0
	if r.Success() {
		success = 1
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO status (checked_date, site_name, site_url, status_code, elapsed, message, success)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.CheckedDate, r.SiteName, r.SiteURL, r.StatusCode, r.Elapsed, r.Message, success,
	)
	if err != nil {
		return repo.Wrap("insert status", err)
	}
	return nil
}

func (s *Store) RecordMessageSent(ctx context.Context, m domain.MessageSent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO message_sent (sent_date, "to", "from", subject, message)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.SentDate, m.To, m.From, m.Subject, m.Message,
	)
	if err != nil {
		return repo.Wrap("insert message_sent", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, site string, window time.Duration) ([]domain.ProbeResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT checked_date, site_name, site_url, status_code, elapsed, message
  FROM status
 WHERE site_name = $1
   AND checked_date >= (SELECT MAX(checked_date) FROM status WHERE site_name = $1) - $2
 ORDER BY checked_date DESC`,
		site, int64(window/time.Second))
	if err != nil {
		return nil, repo.Wrap("history", err)
	}
	return scanProbes(rows)
}

func (s *Store) Latest(ctx context.Context) ([]domain.ProbeResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (site_name)
       checked_date, site_name, site_url, status_code, elapsed, message
  FROM status
 ORDER BY site_name, checked_date DESC`)
	if err != nil {
		return nil, repo.Wrap("latest", err)
	}
	return scanProbes(rows)
}

func (s *Store) Messages(ctx context.Context, limit int) ([]domain.MessageSent, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, `
SELECT sent_date, "to", "from", subject, message
  FROM message_sent
 ORDER BY sent_date DESC
 LIMIT $1`, lim)
	if err != nil {
		return nil, repo.Wrap("messages", err)
	}
	defer rows.Close()

	var out []domain.MessageSent
	for rows.Next() {
		var m domain.MessageSent
		if err := rows.Scan(&m.SentDate, &m.To, &m.From, &m.Subject, &m.Message); err != nil {
			return nil, repo.Wrap("scan message_sent", err)
		}
		out = append(out, m)
	}
	return out, repo.Wrap("messages", rows.Err())
}

func scanProbes(rows pgx.Rows) ([]domain.ProbeResult, error) {
	defer rows.Close()
	var out []domain.ProbeResult
	for rows.Next() {
		var r domain.ProbeResult
		if err := rows.Scan(&r.CheckedDate, &r.SiteName, &r.SiteURL, &r.StatusCode, &r.Elapsed, &r.Message); err != nil {
			return nil, repo.Wrap("scan status", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, repo.Wrap("scan status", err)
	}
	return out, nil
}
