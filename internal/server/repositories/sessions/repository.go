// Package sessions persists web sessions in PostgreSQL.
package sessions

import (
	"context"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

type Repository interface {
	// Save inserts the session or replaces its data and expiry.
	Save(ctx context.Context, rec *models.SessionRecord) error
	// Find returns a session that has not expired at now.
	Find(ctx context.Context, id string, now time.Time) (*models.SessionRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
