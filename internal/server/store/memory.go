package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/google/uuid"
)

// MemoryDB holds entities in RAM. It backs the "memory" database setting
// used for demos and handler tests; data is gone on restart.
type MemoryDB struct {
	mu     sync.RWMutex
	users  map[string]models.User
	events map[string]models.Event
	papers map[string]models.Paper
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:  map[string]models.User{},
		events: map[string]models.Event{},
		papers: map[string]models.Paper{},
	}
}

// Gateway returns a new gateway with its own write queue.
func (db *MemoryDB) Gateway() *MemoryGateway {
	return &MemoryGateway{db: db}
}

// MemoryGateway mirrors Store over a MemoryDB. Records handed out are
// copies, so changes only land through Persist and Flush.
type MemoryGateway struct {
	db *MemoryDB

	mu      sync.Mutex
	pending []any
}

func (g *MemoryGateway) FindByID(ctx context.Context, kind Kind, id string) (any, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()

	switch kind {
	case KindUser:
		if u, ok := g.db.users[id]; ok {
			return &u, nil
		}
	case KindEvent:
		if e, ok := g.db.events[id]; ok {
			return &e, nil
		}
	case KindPaper:
		if p, ok := g.db.papers[id]; ok {
			return &p, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return nil, ErrNotFound
}

func (g *MemoryGateway) Persist(record any) error {
	switch record.(type) {
	case *models.User, *models.Event, *models.Paper:
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedRecord, record)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !slices.Contains(g.pending, record) {
		g.pending = append(g.pending, record)
	}
	return nil
}

// Flush applies the queue all or nothing: every write is checked against
// a scratch copy first.
func (g *MemoryGateway) Flush(ctx context.Context) error {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	g.db.mu.Lock()
	defer g.db.mu.Unlock()

	users := maps.Clone(g.db.users)
	events := maps.Clone(g.db.events)
	papers := maps.Clone(g.db.papers)

	var assigned []any
	fail := func(err error) error {
		for _, rec := range assigned {
			resetID(rec)
		}
		return err
	}

	for _, rec := range pending {
		switch r := rec.(type) {
		case *models.User:
			if r.ID == "" {
				r.ID = uuid.NewString()
				assigned = append(assigned, r)
			} else if _, ok := users[r.ID]; !ok {
				return fail(common.ErrorNotFound)
			}
			if err := checkUserUnique(users, r); err != nil {
				return fail(err)
			}
			u := *r
			u.Papers, u.PlainPassword = nil, ""
			u.Roles = slices.Clone(r.Roles)
			users[r.ID] = u
		case *models.Event:
			if r.ID == "" {
				r.ID = uuid.NewString()
				assigned = append(assigned, r)
			} else if _, ok := events[r.ID]; !ok {
				return fail(common.ErrorNotFound)
			}
			events[r.ID] = *r
		case *models.Paper:
			if r.UserID == "" && r.User != nil {
				r.UserID = r.User.ID
			}
			if _, ok := users[r.UserID]; !ok {
				return fail(fmt.Errorf("%w: paper owner %q", common.ErrorNotFound, r.UserID))
			}
			if r.ID == "" {
				r.ID = uuid.NewString()
				assigned = append(assigned, r)
			} else if _, ok := papers[r.ID]; !ok {
				return fail(common.ErrorNotFound)
			}
			p := *r
			p.User = nil
			papers[r.ID] = p
		}
	}

	g.db.users, g.db.events, g.db.papers = users, events, papers
	return nil
}

func checkUserUnique(users map[string]models.User, u *models.User) error {
	for id, other := range users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return fmt.Errorf("%w: app_users_email_key", common.ErrorAlreadyExists)
		}
		if other.Username == u.Username {
			return fmt.Errorf("%w: app_users_username_key", common.ErrorAlreadyExists)
		}
	}
	return nil
}

func (g *MemoryGateway) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	for _, u := range g.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (g *MemoryGateway) ListUsers(ctx context.Context) ([]*models.User, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	out := make([]*models.User, 0, len(g.db.users))
	for _, u := range g.db.users {
		out = append(out, &u)
	}
	slices.SortFunc(out, func(a, b *models.User) int { return cmp.Compare(a.Username, b.Username) })
	return out, nil
}

func (g *MemoryGateway) UserConflicts(ctx context.Context, email, username, excludeID string) (bool, bool, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	var emailTaken, usernameTaken bool
	for id, u := range g.db.users {
		if id == excludeID {
			continue
		}
		emailTaken = emailTaken || u.Email == email
		usernameTaken = usernameTaken || u.Username == username
	}
	return emailTaken, usernameTaken, nil
}

func (g *MemoryGateway) ListEvents(ctx context.Context) ([]*models.Event, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	out := make([]*models.Event, 0, len(g.db.events))
	for _, e := range g.db.events {
		out = append(out, &e)
	}
	slices.SortFunc(out, func(a, b *models.Event) int {
		switch {
		case a.Date == nil && b.Date == nil:
			return cmp.Compare(a.Title, b.Title)
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		}
		return a.Date.Compare(*b.Date)
	})
	return out, nil
}

func (g *MemoryGateway) ListPapers(ctx context.Context) ([]*models.Paper, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()

	owners := map[string]*models.User{}
	out := make([]*models.Paper, 0, len(g.db.papers))
	for _, p := range g.db.papers {
		owner, ok := owners[p.UserID]
		if !ok {
			u := g.db.users[p.UserID]
			owner = &u
			owners[p.UserID] = owner
		}
		owner.AddPaper(&p)
		out = append(out, &p)
	}
	slices.SortFunc(out, func(a, b *models.Paper) int {
		if c := cmp.Compare(a.User.Username, b.User.Username); c != 0 {
			return c
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (g *MemoryGateway) ListPapersByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	var out []*models.Paper
	for _, p := range g.db.papers {
		if p.UserID == userID {
			out = append(out, &p)
		}
	}
	slices.SortFunc(out, func(a, b *models.Paper) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (g *MemoryGateway) FindPaperByStorageKey(ctx context.Context, key string) (*models.Paper, error) {
	g.db.mu.RLock()
	defer g.db.mu.RUnlock()
	for _, p := range g.db.papers {
		if p.StorageKey == key {
			return &p, nil
		}
	}
	return nil, common.ErrorNotFound
}
