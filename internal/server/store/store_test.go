package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, repomanager.NewPostgresRepositoryManager()), mock
}

func TestFindByID_User(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now()

	id := "0f8fad5b-d9cb-469f-a165-70867728950e"

	mock.ExpectQuery(`FROM\s+app_users\s+WHERE\s+id\s*=\s*\$1`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password", "is_active", "roles", "created", "updated"}).
			AddRow(id, "a@b.c", "alice", "hash", true, []byte(`["USER"]`), now, now))

	rec, err := s.FindByID(context.Background(), KindUser, id)

	require.NoError(t, err)
	u, ok := rec.(*models.User)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
}

func TestFindByID_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)
	id := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	mock.ExpectQuery(`FROM\s+events\s+WHERE\s+id`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	rec, err := s.FindByID(context.Background(), KindEvent, id)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, rec)
}

func TestFindByID_MalformedID(t *testing.T) {
	for _, kind := range []Kind{KindUser, KindEvent, KindPaper} {
		t.Run(kind.String(), func(t *testing.T) {
			s, mock := newStoreWithMock(t)

			rec, err := s.FindByID(context.Background(), kind, "abc")

			require.ErrorIs(t, err, ErrNotFound)
			assert.Nil(t, rec)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindByID_UnknownKind(t *testing.T) {
	s, _ := newStoreWithMock(t)

	_, err := s.FindByID(context.Background(), Kind(42), "x")
	require.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Contains(t, err.Error(), "kind(42)")
}

func TestPersist_RejectsUnknownRecord(t *testing.T) {
	s, _ := newStoreWithMock(t)

	err := s.Persist("not a record")
	require.ErrorIs(t, err, ErrUnsupportedRecord)
	assert.Zero(t, s.queued())
}

func TestPersist_Deduplicates(t *testing.T) {
	s, _ := newStoreWithMock(t)
	e := &models.Event{Title: "x"}

	require.NoError(t, s.Persist(e))
	require.NoError(t, s.Persist(e))
	assert.Equal(t, 1, s.queued())
}

func TestFlush_Empty(t *testing.T) {
	s, mock := newStoreWithMock(t)

	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_CommitsAllInOneTransaction(t *testing.T) {
	s, mock := newStoreWithMock(t)

	user := models.NewUser()
	user.Email, user.Username, user.Password = "a@b.c", "alice", "hash"
	paper := &models.Paper{PaperName: "talk.pdf", PaperSize: 1, StorageKey: "k", UpdatedAt: time.Now()}
	user.AddPaper(paper)
	event := &models.Event{ID: "e-1", Title: "renamed"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+app_users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(`INSERT\s+INTO\s+papers`).
		WithArgs("talk.pdf", int64(1), "k", paper.UpdatedAt, "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(`UPDATE\s+events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Persist(user))
	require.NoError(t, s.Persist(paper))
	require.NoError(t, s.Persist(event))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "p-1", paper.ID)
	assert.Equal(t, "u-1", paper.UserID)
	assert.Zero(t, s.queued())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_RollsBackOnError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	first := &models.Event{Title: "first"}
	second := &models.Event{ID: "e-9", Title: "gone"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT\s+INTO\s+events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e-1"))
	mock.ExpectExec(`UPDATE\s+events`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.NoError(t, s.Persist(first))
	require.NoError(t, s.Persist(second))
	err := s.Flush(context.Background())

	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, first.ID, "id from the rolled back insert must be cleared")
	assert.Equal(t, "e-9", second.ID)
	assert.Zero(t, s.queued())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush_BeginError(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	require.NoError(t, s.Persist(&models.Event{}))
	err := s.Flush(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestFindByUsername(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`FROM\s+app_users\s+WHERE\s+username\s*=\s*\$1`).WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.FindByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
