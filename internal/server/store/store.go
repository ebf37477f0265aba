// Package store implements the entity gateway used by the web layer.
//
// Reads go straight to the repositories. Writes are queued with Persist and
// executed together by Flush inside a single transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/dbx"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Kind selects the entity type for FindByID.
type Kind int

const (
	KindUser Kind = iota + 1
	KindEvent
	KindPaper
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindEvent:
		return "event"
	case KindPaper:
		return "paper"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrNotFound          = common.ErrorNotFound
	ErrUnsupportedKind   = errors.New("unsupported entity kind")
	ErrUnsupportedRecord = errors.New("unsupported record type")
)

// Gateway is the persistence contract handlers depend on.
type Gateway interface {
	FindByID(ctx context.Context, kind Kind, id string) (any, error)
	Persist(record any) error
	Flush(ctx context.Context) error
}

type Store struct {
	db    *sql.DB
	repos repomanager.RepositoryManager

	mu      sync.Mutex
	pending []any
}

func New(db *sql.DB, repos repomanager.RepositoryManager) *Store {
	return &Store{db: db, repos: repos}
}

func (s *Store) FindByID(ctx context.Context, kind Kind, id string) (any, error) {
	var get func() (any, error)
	switch kind {
	case KindUser:
		get = func() (any, error) { return s.repos.Users(s.db).GetByID(ctx, id) }
	case KindEvent:
		get = func() (any, error) { return s.repos.Events(s.db).GetByID(ctx, id) }
	case KindPaper:
		get = func() (any, error) { return s.repos.Papers(s.db).GetByID(ctx, id) }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	// ids are UUID columns, anything else would fail as a cast error
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	rec, err := get()
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Persist queues record for insertion (empty ID) or update. Queuing the
// same pointer twice is a no-op.
func (s *Store) Persist(record any) error {
	switch record.(type) {
	case *models.User, *models.Event, *models.Paper:
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.pending, record) {
		s.pending = append(s.pending, record)
	}
	return nil
}

// queued reports how many records are waiting for Flush.
func (s *Store) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes every queued record in one transaction, in queue order, and
// empties the queue. If the transaction fails, IDs assigned during it are
// cleared again.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var inserted []any
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range pending {
			created, err := s.write(ctx, tx, rec)
			if err != nil {
				return err
			}
			if created {
				inserted = append(inserted, rec)
			}
		}
		return nil
	})
	if err != nil {
		for _, rec := range inserted {
			resetID(rec)
		}
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, tx dbx.DBTX, record any) (bool, error) {
	switch r := record.(type) {
	case *models.User:
		if r.ID == "" {
			_, err := s.repos.Users(tx).Create(ctx, r)
			return err == nil, err
		}
		return false, s.repos.Users(tx).Update(ctx, r)
	case *models.Event:
		if r.ID == "" {
			_, err := s.repos.Events(tx).Create(ctx, r)
			return err == nil, err
		}
		return false, s.repos.Events(tx).Update(ctx, r)
	case *models.Paper:
		// the owner may have been inserted earlier in this flush
		if r.UserID == "" && r.User != nil {
			r.UserID = r.User.ID
		}
		if r.ID == "" {
			_, err := s.repos.Papers(tx).Create(ctx, r)
			return err == nil, err
		}
		return false, s.repos.Papers(tx).Update(ctx, r)
	}
	return false, fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
}

func resetID(record any) {
	switch r := record.(type) {
	case *models.User:
		r.ID = ""
	case *models.Event:
		r.ID = ""
	case *models.Paper:
		r.ID = ""
	}
}
