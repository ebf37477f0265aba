package papers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/dbx"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	if paper.UserID == "" {
		return nil, fmt.Errorf("%w: paper has no owner", common.ErrorValidation)
	}

	query :=
		`INSERT INTO papers (paper_name, paper_size, storage_key, updated_at, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		paper.PaperName, paper.PaperSize, paper.StorageKey, paper.UpdatedAt, paper.UserID).Scan(&paper.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return paper, nil
}

func (r *PostgresRepository) Update(ctx context.Context, paper *models.Paper) error {
	query :=
		`UPDATE papers
		 SET paper_name = $2, paper_size = $3, storage_key = $4, updated_at = $5
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		paper.ID, paper.PaperName, paper.PaperSize, paper.StorageKey, paper.UpdatedAt)
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

const selectColumns = `SELECT id, paper_name, paper_size, storage_key, updated_at, user_id FROM papers`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByStorageKey(ctx context.Context, key string) (*models.Paper, error) {
	return r.getOne(ctx, selectColumns+` WHERE storage_key = $1`, key)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Paper, error) {
	p := &models.Paper{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.PaperName, &p.PaperSize, &p.StorageKey, &p.UpdatedAt, &p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Paper, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Paper
	for rows.Next() {
		p := &models.Paper{}
		if err := rows.Scan(&p.ID, &p.PaperName, &p.PaperSize, &p.StorageKey, &p.UpdatedAt, &p.UserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListWithOwners(ctx context.Context) ([]*models.Paper, error) {
	query :=
		`SELECT p.id, p.paper_name, p.paper_size, p.storage_key, p.updated_at,
		        u.id, u.email, u.username
		 FROM papers p
		 JOIN app_users u ON u.id = p.user_id
		 ORDER BY u.username, p.updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	// one *models.User per owner so papers of the same user share it
	owners := make(map[string]*models.User)
	var result []*models.Paper
	for rows.Next() {
		p := &models.Paper{}
		u := &models.User{}
		if err := rows.Scan(&p.ID, &p.PaperName, &p.PaperSize, &p.StorageKey, &p.UpdatedAt,
			&u.ID, &u.Email, &u.Username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if known, ok := owners[u.ID]; ok {
			u = known
		} else {
			owners[u.ID] = u
		}
		u.AddPaper(p)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
