// Package sqlite is the default Result Store: a single local database file.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/repo"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS status (
	checked_date INTEGER, -- unix epoch seconds
	site_name    TEXT,
	site_url     TEXT,
	status_code  INTEGER NULL,
	elapsed      REAL NULL,
	message      TEXT NULL,
	success      INTEGER -- 1 on success, 0 on failure or bad status
);

CREATE TABLE IF NOT EXISTS message_sent (
	sent_date INTEGER, -- unix epoch seconds
	"to"      TEXT,
	"from"    TEXT,
	subject   TEXT,
	message   TEXT
);

CREATE INDEX IF NOT EXISTS idx_status_site_date ON status (site_name, checked_date);
`

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, repo.Wrap("open", err)
	}
	// one writer; every Exec commits on its own
	db.SetMaxOpenConns(1)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		db.Close()
		return nil, repo.Wrap("ping", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Debug("store_closing", zap.String("driver", "sqlite"))
	return repo.Wrap("close", s.db.Close())
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return repo.Wrap("ensure schema", err)
	}
	return nil
}

func (s *Store) RecordProbe(ctx context.Context, r domain.ProbeResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status (checked_date, site_name, site_url, status_code, elapsed, message, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.CheckedDate, r.SiteName, r.SiteURL, r.StatusCode, r.Elapsed, r.Message, boolToInt(r.Success()),
	)
	if err != nil {
		return repo.Wrap("insert status", err)
	}
	return nil
}

func (s *Store) RecordMessageSent(ctx context.Context, m domain.MessageSent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_sent (sent_date, "to", "from", subject, message)
		 VALUES (?, ?, ?, ?, ?)`,
		m.SentDate, m.To, m.From, m.Subject, m.Message,
	)
	if err != nil {
		return repo.Wrap("insert message_sent", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, site string, window time.Duration) ([]domain.ProbeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT checked_date, site_name, site_url, status_code, elapsed, message
  FROM status
 WHERE site_name = ?
   AND checked_date >= (SELECT MAX(checked_date) FROM status WHERE site_name = ?) - ?
 ORDER BY checked_date DESC, rowid DESC`,
		site, site, int64(window/time.Second))
	if err != nil {
		return nil, repo.Wrap("history", err)
	}
	return scanProbes(rows)
}

func (s *Store) Latest(ctx context.Context) ([]domain.ProbeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.checked_date, s.site_name, s.site_url, s.status_code, s.elapsed, s.message
  FROM status s
  JOIN (SELECT site_name, MAX(rowid) AS rid FROM status GROUP BY site_name) m
    ON s.rowid = m.rid
 ORDER BY s.site_name`)
	if err != nil {
		return nil, repo.Wrap("latest", err)
	}
	return scanProbes(rows)
}

func (s *Store) Messages(ctx context.Context, limit int) ([]domain.MessageSent, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT sent_date, "to", "from", subject, message
  FROM message_sent
 ORDER BY sent_date DESC, rowid DESC
 LIMIT ?`, limit)
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

func scanProbes(rows *sql.Rows) ([]domain.ProbeResult, error) {
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
