package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFiles struct {
	objects map[string]string
	putErr  error
}

func newMemFiles() *memFiles { return &memFiles{objects: map[string]string{}} }

func (m *memFiles) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = string(b)
	return nil
}

func (m *memFiles) URL(ctx context.Context, key string) (string, error) {
	return "/uploads/" + key, nil
}

func (m *memFiles) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newPaperFixture() (*PaperService, *fakeDB, *memFiles) {
	db := newFakeDB()
	db.users["u-1"] = &models.User{ID: "u-1", Username: "alice"}
	files := newMemFiles()
	return NewPaperService(db.factory(), files, logging.Nop()), db, files
}

func TestUpload(t *testing.T) {
	svc, db, files := newPaperFixture()

	p, err := svc.Upload(context.Background(), "u-1", Upload{
		Filename: "talk.pdf", Size: 4, ContentType: "application/pdf", Body: strings.NewReader("%PDF"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "talk.pdf", p.PaperName)
	assert.EqualValues(t, 4, p.PaperSize)
	assert.Equal(t, "u-1", db.papers[p.ID].UserID)
	assert.Equal(t, "%PDF", files.objects[p.StorageKey])
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestUpload_StripsClientPath(t *testing.T) {
	for _, filename := range []string{
		"../../etc/talk.pdf",
		`C:\Users\alice\talk.pdf`,
		`..\..\talk.pdf`,
	} {
		t.Run(filename, func(t *testing.T) {
			svc, _, _ := newPaperFixture()

			p, err := svc.Upload(context.Background(), "u-1", Upload{Filename: filename, Body: strings.NewReader("")})

			require.NoError(t, err)
			assert.Equal(t, "talk.pdf", p.PaperName)
		})
	}
}

func TestUpload_RejectsBareWindowsDirectory(t *testing.T) {
	svc, _, _ := newPaperFixture()

	_, err := svc.Upload(context.Background(), "u-1", Upload{Filename: `C:\`, Body: strings.NewReader("")})

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "file")
}

func TestFindByStorageKey(t *testing.T) {
	svc, _, _ := newPaperFixture()
	p, err := svc.Upload(context.Background(), "u-1", Upload{Filename: "talk.pdf", Body: strings.NewReader("x")})
	require.NoError(t, err)

	got, err := svc.FindByStorageKey(context.Background(), p.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "u-1", got.UserID)

	_, err = svc.FindByStorageKey(context.Background(), "papers/none")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpload_MissingFile(t *testing.T) {
	svc, _, _ := newPaperFixture()

	_, err := svc.Upload(context.Background(), "u-1", Upload{})

	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrMissingFile.Error(), fe["file"])
}

func TestUpload_FlushFailureRemovesObject(t *testing.T) {
	svc, db, files := newPaperFixture()
	db.flushErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), "u-1", Upload{Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1})

	require.Error(t, err)
	assert.Empty(t, files.objects)
}

func TestUpload_StorageFailure(t *testing.T) {
	svc, db, files := newPaperFixture()
	files.putErr = errors.New("bucket missing")

	_, err := svc.Upload(context.Background(), "u-1", Upload{Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1})

	require.Error(t, err)
	assert.Zero(t, db.flushes)
}

func TestListForUser(t *testing.T) {
	svc, _, _ := newPaperFixture()
	ctx := context.Background()
	p, err := svc.Upload(ctx, "u-1", Upload{Filename: "a.pdf", Body: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)

	views, err := svc.ListForUser(ctx, "u-1")

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "/uploads/"+p.StorageKey, views[0].URL)

	views, err = svc.ListForUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, views)
}
