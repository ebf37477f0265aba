package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
)

// UserForm is the registration and admin "new user" form.
type UserForm struct {
	Email          string
	Username       string
	Password       string
	PasswordRepeat string
}

// UserEditForm is the admin edit form. Passwords are changed separately.
type UserEditForm struct {
	Email    string
	Username string
	IsActive bool
}

type PasswordForm struct {
	Password       string
	PasswordRepeat string
}

type UserService struct {
	gateways GatewayFactory
	encoder  auth.PasswordEncoder
	log      logging.Logger
}

func NewUserService(gateways GatewayFactory, encoder auth.PasswordEncoder, log logging.Logger) *UserService {
	return &UserService{gateways: gateways, encoder: encoder, log: log.With("module", "users")}
}

// Register creates an applicant account from the public sign-up form.
func (s *UserService) Register(ctx context.Context, form UserForm) (*models.User, error) {
	return s.create(ctx, models.NewApplicant(), form)
}

// CreateUser creates an account with the USER role from the admin form.
func (s *UserService) CreateUser(ctx context.Context, form UserForm) (*models.User, error) {
	return s.create(ctx, models.NewUser(), form)
}

func (s *UserService) create(ctx context.Context, user *models.User, form UserForm) (*models.User, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Username = strings.TrimSpace(form.Username)

	fe := FieldErrors{}
	validateEmail(fe, form.Email)
	validateUsername(fe, form.Username)
	validatePassword(fe, form.Password, form.PasswordRepeat)
	if err := fe.err(); err != nil {
		return nil, err
	}

	gw := s.gateways()
	if err := s.checkUnique(ctx, gw, form.Email, form.Username, ""); err != nil {
		return nil, err
	}

	user.Email = form.Email
	user.Username = form.Username
	user.PlainPassword = form.Password
	if err := s.hashPassword(user); err != nil {
		return nil, err
	}

	if err := gw.Persist(user); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		return nil, mapUniqueViolation(err)
	}

	s.log.Info(ctx, "user created", "user_id", user.ID, "username", user.Username, "roles", user.Roles)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, form UserEditForm) (*models.User, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.Username = strings.TrimSpace(form.Username)

	fe := FieldErrors{}
	validateEmail(fe, form.Email)
	validateUsername(fe, form.Username)
	if err := fe.err(); err != nil {
		return nil, err
	}

	gw := s.gateways()
	user, err := findUser(ctx, gw, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, gw, form.Email, form.Username, user.ID); err != nil {
		return nil, err
	}

	user.Email = form.Email
	user.Username = form.Username
	user.IsActive = form.IsActive
	user.Updated = time.Now()

	if err := gw.Persist(user); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		return nil, mapUniqueViolation(err)
	}

	s.log.Info(ctx, "user updated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id string, form PasswordForm) (*models.User, error) {
	fe := FieldErrors{}
	validatePassword(fe, form.Password, form.PasswordRepeat)
	if err := fe.err(); err != nil {
		return nil, err
	}

	gw := s.gateways()
	user, err := findUser(ctx, gw, id)
	if err != nil {
		return nil, err
	}

	user.PlainPassword = form.Password
	if err := s.hashPassword(user); err != nil {
		return nil, err
	}
	user.Updated = time.Now()

	if err := gw.Persist(user); err != nil {
		return nil, err
	}
	if err := gw.Flush(ctx); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findUser(ctx, s.gateways(), id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.gateways().ListUsers(ctx)
}

func (s *UserService) hashPassword(user *models.User) error {
	hash, err := s.encoder.Hash(user.PlainPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	user.EraseCredentials()
	return nil
}

func (s *UserService) checkUnique(ctx context.Context, gw Gateway, email, username, excludeID string) error {
	emailTaken, usernameTaken, err := gw.UserConflicts(ctx, email, username, excludeID)
	if err != nil {
		return err
	}
	fe := FieldErrors{}
	if emailTaken {
		fe.add("email", common.ErrEmailTaken)
	}
	if usernameTaken {
		fe.add("username", common.ErrUsernameTaken)
	}
	return fe.err()
}

func findUser(ctx context.Context, gw Gateway, id string) (*models.User, error) {
	rec, err := gw.FindByID(ctx, store.KindUser, id)
	if err != nil {
		return nil, err
	}
	user, ok := rec.(*models.User)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record %T", common.ErrorInternal, rec)
	}
	return user, nil
}

// mapUniqueViolation turns a unique constraint error that slipped past
// checkUnique (a concurrent insert) into a form error.
func mapUniqueViolation(err error) error {
	if !errors.Is(err, common.ErrorAlreadyExists) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return FieldErrors{"email": common.ErrEmailTaken.Error()}
	case strings.Contains(msg, "username"):
		return FieldErrors{"username": common.ErrUsernameTaken.Error()}
	}
	return err
}
