package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
)

var epoch = time.Unix(1500000000, 0).UTC()

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := NewPostgresStore(db, repomanager.NewPostgresRepositoryManager(), time.Hour, abtime.NewManualAtTime(epoch))
	return st, mock
}

func TestPostgresStore_Load(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectQuery(`FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1\s+AND\s+expires_at\s*>\s*\$2`).
		WithArgs("s-1", epoch).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "expires_at"}).
			AddRow("s-1", []byte(`{"k":"v"}`), epoch.Add(time.Hour)))

	s, err := st.Load(context.Background(), "s-1")

	require.NoError(t, err)
	v, _ := s.Get("k")
	assert.Equal(t, "v", v)
}

func TestPostgresStore_LoadMissing(t *testing.T) {
	st, mock := newPostgresStore(t)
	mock.ExpectQuery(`FROM\s+sessions`).WillReturnError(sql.ErrNoRows)

	_, err := st.Load(context.Background(), "s-0")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_SaveUsesTTL(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectExec(`INSERT\s+INTO\s+sessions`).
		WithArgs("s-1", `{"k":"v"}`, epoch.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := newSession("s-1", nil)
	s.Set("k", "v")
	require.NoError(t, st.Save(context.Background(), s))

	assert.False(t, s.Dirty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Regenerate(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+sessions\s+WHERE\s+id`).WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := newSession("old", nil)
	require.NoError(t, st.Regenerate(context.Background(), s))

	assert.NotEqual(t, "old", s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RegenerateFailureKeepsID(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+sessions`).WillReturnError(errors.New("down"))
	mock.ExpectRollback()

	s := newSession("old", nil)
	err := st.Regenerate(context.Background(), s)

	require.Error(t, err)
	assert.Equal(t, "old", s.ID)
}
