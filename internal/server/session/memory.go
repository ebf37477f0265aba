package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/thejerf/abtime"
)

const purgeTickerID = 1

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps sessions in RAM. Everything is lost on restart, which
// is fine for development and single-instance deployments.
type MemoryStore struct {
	ttl   time.Duration
	clock abtime.AbstractTime

	mu       sync.Mutex
	sessions map[string]memoryEntry
}

// NewMemoryStore returns a store whose sessions expire ttl after their last
// save. A nil clock means real time.
func NewMemoryStore(ttl time.Duration, clock abtime.AbstractTime) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &MemoryStore{ttl: ttl, clock: clock, sessions: map[string]memoryEntry{}}
}

func (m *MemoryStore) New(ctx context.Context) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	return newSession(id, nil), nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !now.Before(e.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return newSession(id, maps.Clone(e.values)), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	e := memoryEntry{values: s.Values(), expiresAt: m.clock.Now().Add(m.ttl)}

	m.mu.Lock()
	m.sessions[s.ID] = e
	m.mu.Unlock()

	s.markClean()
	return nil
}

func (m *MemoryStore) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Regenerate(ctx context.Context, s *Session) error {
	id, err := newID()
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	s.ID = id
	return m.Save(ctx, s)
}

// PurgeExpired drops expired sessions and returns how many were removed.
func (m *MemoryStore) PurgeExpired() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (m *MemoryStore) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := m.clock.NewTicker(interval, purgeTickerID)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Channel():
			m.PurgeExpired()
		}
	}
}
