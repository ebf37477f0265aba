package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/dbx"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/thejerf/abtime"
)

// PostgresStore keeps sessions in the sessions table so they survive
// restarts and can be shared between instances.
type PostgresStore struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	ttl   time.Duration
	clock abtime.AbstractTime
}

func NewPostgresStore(db *sql.DB, repos repomanager.RepositoryManager, ttl time.Duration, clock abtime.AbstractTime) *PostgresStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &PostgresStore{db: db, repos: repos, ttl: ttl, clock: clock}
}

func (p *PostgresStore) New(ctx context.Context) (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	return newSession(id, nil), nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	rec, err := p.repos.Sessions(p.db).Find(ctx, id, p.clock.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return newSession(rec.ID, rec.Data), nil
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	if err := p.save(ctx, p.db, s); err != nil {
		return err
	}
	s.markClean()
	return nil
}

func (p *PostgresStore) save(ctx context.Context, db dbx.DBTX, s *Session) error {
	rec := &models.SessionRecord{
		ID:        s.ID,
		Data:      s.Values(),
		ExpiresAt: p.clock.Now().Add(p.ttl),
	}
	if err := p.repos.Sessions(db).Save(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Destroy(ctx context.Context, id string) error {
	if err := p.repos.Sessions(p.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// Regenerate deletes the old row and writes the new one in one transaction.
func (p *PostgresStore) Regenerate(ctx context.Context, s *Session) error {
	id, err := newID()
	if err != nil {
		return err
	}
	oldID := s.ID

	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := p.repos.Sessions(tx).Delete(ctx, oldID); err != nil {
			return err
		}
		s.ID = id
		return p.save(ctx, tx, s)
	})
	if err != nil {
		s.ID = oldID
		return fmt.Errorf("regenerate session: %w", err)
	}
	s.markClean()
	return nil
}

// PurgeExpired deletes expired rows.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	return p.repos.Sessions(p.db).DeleteExpired(ctx, p.clock.Now())
}
