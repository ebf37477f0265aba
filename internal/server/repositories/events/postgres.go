package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (title, description, date, address, postcode)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		nullString(event.Title), nullString(event.Description), nullTime(event.Date),
		nullString(event.Address), nullString(event.Postcode)).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) Update(ctx context.Context, event *models.Event) error {
	query :=
		`UPDATE events
		 SET title = $2, description = $3, date = $4, address = $5, postcode = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, event.ID,
		nullString(event.Title), nullString(event.Description), nullTime(event.Date),
		nullString(event.Address), nullString(event.Postcode))
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

const selectColumns = `SELECT id, title, description, date, address, postcode FROM events`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return event, nil
}

// List returns events with dated ones first, earliest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY date NULLS LAST, title`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var e models.Event
	var title, description, address, postcode sql.NullString
	var date sql.NullTime
	if err := row.Scan(&e.ID, &title, &description, &date, &address, &postcode); err != nil {
		return nil, err
	}
	e.Title = title.String
	e.Description = description.String
	e.Address = address.String
	e.Postcode = postcode.String
	if date.Valid {
		d := date.Time
		e.Date = &d
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
