package repo

import (
	"context"
	"time"

	"github.com/hamed0406/sitechecker/internal/domain"
)

// Ports (interfaces); adapters live in sqlite, postgres and memory.

type ProbeStore interface {
	RecordProbe(ctx context.Context, r domain.ProbeResult) error
}

type MessageStore interface {
	RecordMessageSent(ctx context.Context, m domain.MessageSent) error
}

type HistoryReader interface {
	// History returns rows for site within window of that site's newest row,
	// newest first.
	History(ctx context.Context, site string, window time.Duration) ([]domain.ProbeResult, error)
	// Latest returns the newest row per site, ordered by site name.
	Latest(ctx context.Context) ([]domain.ProbeResult, error)
	Messages(ctx context.Context, limit int) ([]domain.MessageSent, error)
}

type Store interface {
	EnsureSchema(ctx context.Context) error
	ProbeStore
	MessageStore
	HistoryReader
	Close() error
}
