package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/sitechecker/internal/domain"
	"github.com/hamed0406/sitechecker/internal/repo"
)

var errClosed = errors.New("store closed")

// Store keeps rows in process memory. Used by tests and by runs configured
// with the memory driver, where nothing survives the process.
type Store struct {
	mu       sync.RWMutex
	status   []domain.ProbeResult
	messages []domain.MessageSent
	closed   bool
}

func New() *Store {
	return &Store{
		status:   make([]domain.ProbeResult, 0, 16),
		messages: make([]domain.MessageSent, 0, 4),
	}
}

func (m *Store) EnsureSchema(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return repo.Wrap("ensure schema", errClosed)
	}
	return nil
}

func (m *Store) RecordProbe(ctx context.Context, r domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return repo.Wrap("insert status", errClosed)
	}
	m.status = append(m.status, r)
	return nil
}

func (m *Store) RecordMessageSent(ctx context.Context, msg domain.MessageSent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return repo.Wrap("insert message_sent", errClosed)
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Store) History(ctx context.Context, site string, window time.Duration) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest int64
	found := false
	for _, r := range m.status {
		if r.SiteName == site && (!found || r.CheckedDate > newest) {
			newest, found = r.CheckedDate, true
		}
	}
	if !found {
		return nil, nil
	}

	floor := newest - int64(window/time.Second)
	out := make([]domain.ProbeResult, 0, 8)
	// walk backwards so equal timestamps keep newest-inserted first
	for i := len(m.status) - 1; i >= 0; i-- {
		r := m.status[i]
		if r.SiteName == site && r.CheckedDate >= floor {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedDate > out[j].CheckedDate })
	return out, nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]domain.ProbeResult)
	for _, r := range m.status {
		if cur, ok := latest[r.SiteName]; !ok || r.CheckedDate >= cur.CheckedDate {
			latest[r.SiteName] = r
		}
	}
	out := make([]domain.ProbeResult, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteName < out[j].SiteName })
	return out, nil
}

func (m *Store) Messages(ctx context.Context, limit int) ([]domain.MessageSent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.MessageSent, 0, len(m.messages))
	for i := len(m.messages) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.messages[i])
	}
	return out, nil
}

// Probes returns every status row in insertion order.
func (m *Store) Probes() []domain.ProbeResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ProbeResult, len(m.status))
	copy(out, m.status)
	return out
}

// Sent returns every message_sent row in insertion order.
func (m *Store) Sent() []domain.MessageSent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MessageSent, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
