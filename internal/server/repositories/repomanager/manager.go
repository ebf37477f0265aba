package repomanager

import (
	"context"
	"database/sql"

	"github.com/abswdsmn/conference-organiser/internal/dbx"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/events"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/papers"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/sessions"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against a plain connection or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Events(db dbx.DBTX) events.Repository
	Papers(db dbx.DBTX) papers.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
