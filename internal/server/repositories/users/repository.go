// Package users provides the PostgreSQL repository for app_users.
package users

import (
	"context"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, username string) (*models.User, error)
	FindConflicts(ctx context.Context, email, username, excludeID string) (emailTaken, usernameTaken bool, err error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id string) error
}
