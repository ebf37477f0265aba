// Package events provides the PostgreSQL repository for events.
package events

import (
	"context"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
}
