// Package services implements the use-cases behind the web forms. Every
// operation works on its own gateway instance, queues its writes and
// flushes them once.
package services

import (
	"context"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// Gateway is the entity gateway plus the read queries the pages need.
// *store.Store implements it.
type Gateway interface {
	store.Gateway
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UserConflicts(ctx context.Context, email, username, excludeID string) (bool, bool, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	ListPapers(ctx context.Context) ([]*models.Paper, error)
	ListPapersByUser(ctx context.Context, userID string) ([]*models.Paper, error)
	FindPaperByStorageKey(ctx context.Context, key string) (*models.Paper, error)
}

// GatewayFactory returns a fresh gateway with an empty write queue.
type GatewayFactory func() Gateway

var (
	_ Gateway = (*store.Store)(nil)
	_ Gateway = (*store.MemoryGateway)(nil)
)
