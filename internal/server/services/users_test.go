package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() (*UserService, *fakeDB, *auth.BcryptEncoder) {
	db := newFakeDB()
	enc := auth.NewBcryptEncoder(bcrypt.MinCost)
	return NewUserService(db.factory(), enc, logging.Nop()), db, enc
}

var aliceForm = UserForm{Email: "alice@example.org", Username: "alice", Password: "s3cret", PasswordRepeat: "s3cret"}

func TestRegister_CreatesApplicant(t *testing.T) {
	svc, db, enc := newUserService()

	u, err := svc.Register(context.Background(), aliceForm)

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, []string{common.RoleApplicant}, u.Roles)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.PlainPassword)
	assert.True(t, enc.Verify(u.Password, "s3cret"))
	assert.Equal(t, u.Password, db.users[u.ID].Password)
}

func TestCreateUser_HasUserRole(t *testing.T) {
	svc, _, _ := newUserService()

	u, err := svc.CreateUser(context.Background(), aliceForm)

	require.NoError(t, err)
	assert.Equal(t, []string{common.RoleUser}, u.Roles)
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name  string
		form  UserForm
		field string
		want  error
	}{
		{"bad email", UserForm{Email: "nope", Username: "a", Password: "p", PasswordRepeat: "p"}, "email", common.ErrInvalidEmail},
		{"display name", UserForm{Email: "Al <al@example.org>", Username: "a", Password: "p", PasswordRepeat: "p"}, "email", common.ErrInvalidEmail},
		{"blank username", UserForm{Email: "a@b.c", Username: "   ", Password: "p", PasswordRepeat: "p"}, "username", common.ErrBlankUsername},
		{"long username", UserForm{Email: "a@b.c", Username: strings.Repeat("x", 26), Password: "p", PasswordRepeat: "p"}, "username", common.ErrUsernameTooLong},
		{"mismatch", UserForm{Email: "a@b.c", Username: "a", Password: "p", PasswordRepeat: "q"}, "password", common.ErrPasswordMismatch},
		{"blank password", UserForm{Email: "a@b.c", Username: "a"}, "password", common.ErrBlankPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := newUserService()

			_, err := svc.CreateUser(context.Background(), tt.form)

			require.ErrorIs(t, err, common.ErrorValidation)
			fe, ok := AsFieldErrors(err)
			require.True(t, ok)
			assert.Equal(t, tt.want.Error(), fe[tt.field])
			assert.Zero(t, db.flushes)
		})
	}
}

func TestCreateUser_Duplicates(t *testing.T) {
	svc, _, _ := newUserService()
	_, err := svc.CreateUser(context.Background(), aliceForm)
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), aliceForm)

	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Email already taken", fe["email"])
	assert.Equal(t, "Username already taken", fe["username"])
}

func TestCreateUser_RaceOnUniqueConstraint(t *testing.T) {
	svc, db, _ := newUserService()
	db.flushErr = fmt.Errorf("%w: app_users_email_key", common.ErrorAlreadyExists)

	_, err := svc.CreateUser(context.Background(), aliceForm)

	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrEmailTaken.Error(), fe["email"])
}

func TestUpdateUser(t *testing.T) {
	svc, db, _ := newUserService()
	ctx := context.Background()
	alice, err := svc.CreateUser(ctx, aliceForm)
	require.NoError(t, err)

	got, err := svc.UpdateUser(ctx, alice.ID, UserEditForm{Email: "alice@example.org", Username: "alice2", IsActive: false})

	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.False(t, db.users[alice.ID].IsActive)
	assert.Equal(t, alice.Password, db.users[alice.ID].Password, "password untouched")
}

func TestUpdateUser_ConflictWithOtherUser(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, aliceForm)
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, UserForm{Email: "bob@example.org", Username: "bob", Password: "p", PasswordRepeat: "p"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, bob.ID, UserEditForm{Email: "bob@example.org", Username: "alice", IsActive: true})

	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrUsernameTaken.Error(), fe["username"])
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.UpdateUser(context.Background(), "u-404", UserEditForm{Email: "a@b.c", Username: "a"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, db, enc := newUserService()
	ctx := context.Background()
	alice, err := svc.CreateUser(ctx, aliceForm)
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, alice.ID, PasswordForm{Password: "n3w", PasswordRepeat: "n3w"})
	require.NoError(t, err)

	stored := db.users[alice.ID]
	assert.True(t, enc.Verify(stored.Password, "n3w"))
	assert.False(t, enc.Verify(stored.Password, "s3cret"))
	assert.Empty(t, stored.PlainPassword)
}

func TestChangePassword_Mismatch(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.ChangePassword(context.Background(), "u-1", PasswordForm{Password: "a", PasswordRepeat: "b"})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestFieldErrors_ErrorIsSorted(t *testing.T) {
	fe := FieldErrors{"username": "u", "email": "e"}
	assert.Equal(t, "validation failed: email: e; username: u", fe.Error())
}
