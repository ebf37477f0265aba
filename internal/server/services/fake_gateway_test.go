package services

import (
	"context"
	"fmt"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// fakeDB is shared by every fakeGateway a test creates.
type fakeDB struct {
	users    map[string]*models.User
	events   map[string]*models.Event
	papers   map[string]*models.Paper
	seq      int
	flushErr error
	flushes  int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:  map[string]*models.User{},
		events: map[string]*models.Event{},
		papers: map[string]*models.Paper{},
	}
}

func (db *fakeDB) factory() GatewayFactory {
	return func() Gateway { return &fakeGateway{db: db} }
}

func (db *fakeDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

type fakeGateway struct {
	db      *fakeDB
	pending []any
}

func (g *fakeGateway) FindByID(ctx context.Context, kind store.Kind, id string) (any, error) {
	switch kind {
	case store.KindUser:
		if u, ok := g.db.users[id]; ok {
			cp := *u
			return &cp, nil
		}
	case store.KindEvent:
		if e, ok := g.db.events[id]; ok {
			cp := *e
			return &cp, nil
		}
	case store.KindPaper:
		if p, ok := g.db.papers[id]; ok {
			cp := *p
			return &cp, nil
		}
	default:
		return nil, store.ErrUnsupportedKind
	}
	return nil, store.ErrNotFound
}

func (g *fakeGateway) Persist(record any) error {
	g.pending = append(g.pending, record)
	return nil
}

func (g *fakeGateway) Flush(ctx context.Context) error {
	g.db.flushes++
	pending := g.pending
	g.pending = nil
	if g.db.flushErr != nil {
		return g.db.flushErr
	}
	for _, rec := range pending {
		switch r := rec.(type) {
		case *models.User:
			if r.ID == "" {
				r.ID = g.db.nextID("u")
			}
			cp := *r
			g.db.users[r.ID] = &cp
		case *models.Event:
			if r.ID == "" {
				r.ID = g.db.nextID("e")
			}
			cp := *r
			g.db.events[r.ID] = &cp
		case *models.Paper:
			if r.ID == "" {
				r.ID = g.db.nextID("p")
			}
			cp := *r
			g.db.papers[r.ID] = &cp
		}
	}
	return nil
}

func (g *fakeGateway) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range g.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (g *fakeGateway) ListUsers(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range g.db.users {
		out = append(out, u)
	}
	return out, nil
}

func (g *fakeGateway) UserConflicts(ctx context.Context, email, username, excludeID string) (bool, bool, error) {
	var e, n bool
	for id, u := range g.db.users {
		if id == excludeID {
			continue
		}
		e = e || u.Email == email
		n = n || u.Username == username
	}
	return e, n, nil
}

func (g *fakeGateway) ListEvents(ctx context.Context) ([]*models.Event, error) {
	var out []*models.Event
	for _, e := range g.db.events {
		out = append(out, e)
	}
	return out, nil
}

func (g *fakeGateway) ListPapers(ctx context.Context) ([]*models.Paper, error) {
	var out []*models.Paper
	for _, p := range g.db.papers {
		out = append(out, p)
	}
	return out, nil
}

func (g *fakeGateway) ListPapersByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	var out []*models.Paper
	for _, p := range g.db.papers {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (g *fakeGateway) FindPaperByStorageKey(ctx context.Context, key string) (*models.Paper, error) {
	for _, p := range g.db.papers {
		if p.StorageKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}
