package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/dbx"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return nil, fmt.Errorf("encode roles: %w", err)
	}

	query :=
		`INSERT INTO app_users (email, username, password, is_active, roles, created, updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.Password, user.IsActive, string(roles), user.Created, user.Updated).Scan(&user.ID)
	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	query :=
		`UPDATE app_users
		 SET email = $2, username = $3, password = $4, is_active = $5, roles = $6, updated = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.Password, user.IsActive, string(roles), user.Updated)
	if err != nil {
		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

const selectColumns = `SELECT id, email, username, password, is_active, roles, created, updated FROM app_users`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

// GetUserByLogin finds the user whose username equals userName exactly.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+` WHERE username = $1`, userName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// FindConflicts reports whether email or username already belong to a user
// other than excludeID. Pass an empty excludeID when creating.
func (r *PostgresRepository) FindConflicts(ctx context.Context, email, username, excludeID string) (bool, bool, error) {
	query :=
		`SELECT
		   COALESCE(bool_or(email = $1), false),
		   COALESCE(bool_or(username = $2), false)
		 FROM app_users
		 WHERE (email = $1 OR username = $2) AND id::text <> $3
		 `

	var emailTaken, usernameTaken bool
	if err := r.db.QueryRowContext(ctx, query, email, username, excludeID).Scan(&emailTaken, &usernameTaken); err != nil {
		return false, false, fmt.Errorf("db error: %w", err)
	}
	return emailTaken, usernameTaken, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the user. Papers go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM app_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var roles []byte
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.Password,
		&user.IsActive, &roles, &user.Created, &user.Updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roles, &user.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return user, nil
}

func wrapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}
