// Package session holds per-visitor key/value state between requests.
//
// A Session is loaded by the HTTP firewall, passed explicitly to whoever
// needs it (the login authenticator in particular) and saved back after the
// handler ran. Stores keep the values as strings; anything structured is
// encoded by the caller.
package session

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/abswdsmn/conference-organiser/internal/common"
)

// idBytes is the amount of randomness in a session id (hex encoded, so ids
// are twice as long).
const idBytes = 32

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID string

	mu     sync.RWMutex
	values map[string]string
	dirty  bool
}

// newSession builds a session around values, taking ownership of the map.
func newSession(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{ID: id, values: values}
}

func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.dirty = true
}

func (s *Session) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Pop returns the value under key and removes it.
func (s *Session) Pop(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if ok {
		delete(s.values, key)
		s.dirty = true
	}
	return v, ok
}

// Values returns a copy of all values.
func (s *Session) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Session) markClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// Store persists sessions.
type Store interface {
	// New returns an empty session with a fresh id. It is not stored until
	// Save is called.
	New(ctx context.Context) (*Session, error)
	// Load returns the live session with the given id or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Save writes the session and extends its lifetime.
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
	// Regenerate moves the session to a new id and drops the old one.
	Regenerate(ctx context.Context, s *Session) error
}

func newID() (string, error) {
	return common.MakeRandHexString(idBytes)
}
