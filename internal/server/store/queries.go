package store

import (
	"context"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

// FindByUsername returns the single user whose username matches exactly.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repos.Users(s.db).GetUserByLogin(ctx, username)
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repos.Users(s.db).List(ctx)
}

// UserConflicts reports whether email or username are used by a user other
// than excludeID.
func (s *Store) UserConflicts(ctx context.Context, email, username, excludeID string) (bool, bool, error) {
	return s.repos.Users(s.db).FindConflicts(ctx, email, username, excludeID)
}

func (s *Store) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return s.repos.Events(s.db).List(ctx)
}

func (s *Store) ListPapers(ctx context.Context) ([]*models.Paper, error) {
	return s.repos.Papers(s.db).ListWithOwners(ctx)
}

func (s *Store) ListPapersByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	return s.repos.Papers(s.db).ListByUser(ctx, userID)
}

// FindPaperByStorageKey returns the paper whose file lives under key.
func (s *Store) FindPaperByStorageKey(ctx context.Context, key string) (*models.Paper, error) {
	return s.repos.Papers(s.db).GetByStorageKey(ctx, key)
}
