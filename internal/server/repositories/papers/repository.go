// Package papers provides the PostgreSQL repository for uploaded papers.
package papers

import (
	"context"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, paper *models.Paper) (*models.Paper, error)
	Update(ctx context.Context, paper *models.Paper) error
	GetByID(ctx context.Context, id string) (*models.Paper, error)
	// GetByStorageKey finds the paper whose file is stored under key.
	GetByStorageKey(ctx context.Context, key string) (*models.Paper, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Paper, error)
	// ListWithOwners returns every paper with its User populated.
	ListWithOwners(ctx context.Context) ([]*models.Paper, error)
}
