package cli

import (
	"context"
	"database/sql"

	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// backend is the database the commands work on.
type backend interface {
	Migrate(ctx context.Context) error
	Gateways() services.GatewayFactory
	DeleteUser(ctx context.Context, id string) error
	Close() error
}

type postgresBackend struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

// openBackend is a seam for tests.
var openBackend = func(ctx context.Context, dsn string) (backend, error) {
	db, err := repomanager.OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &postgresBackend{db: db, repos: repomanager.NewPostgresRepositoryManager()}, nil
}

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return b.repos.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) Gateways() services.GatewayFactory {
	return func() services.Gateway { return store.New(b.db, b.repos) }
}

func (b *postgresBackend) DeleteUser(ctx context.Context, id string) error {
	return b.repos.Users(b.db).Delete(ctx, id)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
