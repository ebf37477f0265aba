// Package auth implements the form login: CSRF tokens, password hashing,
// the identity kept in the session and the authenticator tying them
// together. It also signs the session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/session"
)

// LoginRoute is the route name the authenticator handles.
const LoginRoute = "login"

// DefaultTargetPath is where a successful login lands when no protected
// page was requested before.
const DefaultTargetPath = "/"

// The messages are shown on the login form as they are.
var (
	ErrInvalidToken       = errors.New("Invalid CSRF token.")
	ErrUnknownUser        = errors.New("Username could not be found.")
	ErrInvalidCredentials = errors.New("Invalid credentials.")
	ErrAccountDisabled    = errors.New("Account is disabled.")
)

var failures = []error{ErrInvalidToken, ErrUnknownUser, ErrInvalidCredentials, ErrAccountDisabled}

// IsFailure reports whether err is a rejected login rather than a fault
// of the user store or session backend.
func IsFailure(err error) bool {
	for _, known := range failures {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// UserProvider looks a user up by exact username and returns
// common.ErrorNotFound when there is none.
type UserProvider interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type Credentials struct {
	Username  string
	Password  string
	CSRFToken string
}

// Result is a successful authentication.
type Result struct {
	User       *models.User
	RedirectTo string
}

type LoginAuthenticator struct {
	users    UserProvider
	sessions session.Store
	csrf     *CSRFManager
	encoder  PasswordEncoder
	log      logging.Logger
}

func NewLoginAuthenticator(users UserProvider, sessions session.Store, csrf *CSRFManager,
	encoder PasswordEncoder, log logging.Logger) *LoginAuthenticator {
	return &LoginAuthenticator{
		users:    users,
		sessions: sessions,
		csrf:     csrf,
		encoder:  encoder,
		log:      log.With("module", "auth"),
	}
}

// Supports reports whether the request targets the login form submission.
func (a *LoginAuthenticator) Supports(route, method string) bool {
	return route == LoginRoute && method == http.MethodPost
}

// Authenticate checks creds and, on success, binds the user to sess and
// moves it to a fresh id. The submitted username is remembered in sess in
// every case so the form can be refilled.
func (a *LoginAuthenticator) Authenticate(ctx context.Context, sess *session.Session, creds Credentials) (*Result, error) {
	sess.Set(common.SessionKeyLastUsername, creds.Username)

	if !a.csrf.Valid(sess, IntentionAuthenticate, creds.CSRFToken) {
		a.log.Info(ctx, "login rejected", "reason", "csrf")
		return nil, ErrInvalidToken
	}

	user, err := a.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.log.Info(ctx, "login rejected", "reason", "unknown user")
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if !a.encoder.Verify(user.Password, creds.Password) {
		a.log.Info(ctx, "login rejected", "reason", "bad password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		a.log.Info(ctx, "login rejected", "reason", "disabled", "user_id", user.ID)
		return nil, ErrAccountDisabled
	}

	encoded, err := EncodeIdentity(IdentityOf(user))
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	sess.Set(common.SessionKeyIdentity, encoded)
	sess.Remove(common.SessionKeyLastError)

	if err := a.sessions.Regenerate(ctx, sess); err != nil {
		return nil, fmt.Errorf("regenerate session: %w", err)
	}

	a.log.Info(ctx, "login succeeded", "user_id", user.ID)
	return &Result{User: user, RedirectTo: a.consumeTargetPath(sess)}, nil
}

// OnFailure stores the message of a rejected login in sess for the next
// login page. Other errors are left to the caller.
func (a *LoginAuthenticator) OnFailure(sess *session.Session, err error) {
	for _, known := range failures {
		if errors.Is(err, known) {
			sess.Set(common.SessionKeyLastError, known.Error())
			return
		}
	}
}

func (a *LoginAuthenticator) consumeTargetPath(sess *session.Session) string {
	target, ok := sess.Pop(common.SessionKeyTargetPath)
	if !ok || !isLocalPath(target) {
		return DefaultTargetPath
	}
	return target
}

// isLocalPath accepts absolute paths on this host only.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}

// CurrentIdentity returns the identity bound to sess, if any.
func CurrentIdentity(sess *session.Session) (Identity, bool) {
	raw, ok := sess.Get(common.SessionKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, err := DecodeIdentity(raw)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}

// Logout removes the identity from sess.
func Logout(sess *session.Session) {
	sess.Remove(common.SessionKeyIdentity)
}
