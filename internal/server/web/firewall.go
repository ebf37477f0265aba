package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/session"
	"github.com/gin-gonic/gin"
)

const (
	logoutPath = "/logout"
	loginPath  = "/login"

	stateKey = "web.state"
)

// accessRule protects every path under prefix. An empty role only asks for
// a logged-in user.
type accessRule struct {
	prefix string
	role   string
}

var accessRules = []accessRule{
	{prefix: "/admin", role: common.RoleUser},
	{prefix: "/paper"},
	{prefix: "/uploads"},
}

// requestState is the per-request session bookkeeping.
type requestState struct {
	sess      *session.Session
	initialID string
	loaded    bool
	committed bool
	user      *models.User
}

func state(c *gin.Context) *requestState {
	v, ok := c.Get(stateKey)
	if !ok {
		return nil
	}
	st, _ := v.(*requestState)
	return st
}

func sessionFrom(c *gin.Context) *session.Session {
	if st := state(c); st != nil {
		return st.sess
	}
	return nil
}

func currentUser(c *gin.Context) *models.User {
	if st := state(c); st != nil {
		return st.user
	}
	return nil
}

// firewall loads the session, resolves the logged-in user, handles logout
// and enforces accessRules.
func (s *Server) firewall() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		st, err := s.loadSession(c)
		if err != nil {
			s.serverError(c, err)
			return
		}
		c.Set(stateKey, st)

		if err := s.refreshUser(c, st); err != nil {
			s.serverError(c, err)
			return
		}

		if c.Request.URL.Path == logoutPath && c.Request.Method == http.MethodGet {
			s.logoutSession(c, st)
			return
		}

		if rule, ok := matchRule(c.Request.URL.Path); ok {
			noCache(c)
			if st.user == nil {
				if c.Request.Method == http.MethodGet {
					st.sess.Set(common.SessionKeyTargetPath, c.Request.URL.RequestURI())
				}
				s.log.Debug(ctx, "login required", "path", c.Request.URL.Path)
				s.redirect(c, loginPath)
				return
			}
			if rule.role != "" && !st.user.HasRole(rule.role) {
				s.log.Info(ctx, "access denied", "path", c.Request.URL.Path, "user_id", st.user.ID)
				s.forbidden(c)
				return
			}
		}

		c.Next()

		if err := s.commit(c); err != nil {
			s.log.Error(ctx, "save session", "error", err)
		}
	}
}

// loadSession resumes the session named by the cookie or starts a new one.
func (s *Server) loadSession(c *gin.Context) (*requestState, error) {
	ctx := c.Request.Context()
	st := &requestState{}

	if raw, err := c.Cookie(common.SessionCookieName); err == nil && raw != "" {
		id, err := auth.SessionIDFromToken(raw, s.SecretKey)
		if err != nil {
			s.log.Debug(ctx, "session cookie rejected", "error", err)
		} else {
			sess, err := s.Sessions.Load(ctx, id)
			switch {
			case err == nil:
				st.sess, st.initialID, st.loaded = sess, id, true
				return st, nil
			case !errors.Is(err, session.ErrNotFound):
				return nil, err
			}
		}
	}

	sess, err := s.Sessions.New(ctx)
	if err != nil {
		return nil, err
	}
	st.sess, st.initialID = sess, sess.ID
	return st, nil
}

// refreshUser reloads the user behind the session identity. The identity
// is dropped when the user is gone, disabled or has a new password.
func (s *Server) refreshUser(c *gin.Context, st *requestState) error {
	id, ok := auth.CurrentIdentity(st.sess)
	if !ok {
		return nil
	}

	user, err := s.Users.GetUser(c.Request.Context(), id.UserID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		auth.Logout(st.sess)
		return nil
	case err != nil:
		return err
	}

	if !user.IsActive || user.Password != id.PasswordHash {
		s.log.Info(c.Request.Context(), "session identity revoked", "user_id", user.ID)
		auth.Logout(st.sess)
		return nil
	}
	st.user = user
	return nil
}

func (s *Server) logoutSession(c *gin.Context, st *requestState) {
	if st.loaded {
		if err := s.Sessions.Destroy(c.Request.Context(), st.sess.ID); err != nil {
			s.serverError(c, err)
			return
		}
	}
	st.committed = true
	st.user = nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", s.SecureCookie, true)
	c.Redirect(http.StatusFound, "/")
	c.Abort()
}

// commit stores the session and sets the cookie once per request. Untouched
// anonymous sessions are never written.
func (s *Server) commit(c *gin.Context) error {
	st := state(c)
	if st == nil || st.committed {
		return nil
	}
	st.committed = true

	// A changed id means Regenerate already stored the session.
	if !st.loaded && !st.sess.Dirty() && st.sess.ID == st.initialID {
		return nil
	}
	if st.loaded || st.sess.Dirty() {
		if err := s.Sessions.Save(c.Request.Context(), st.sess); err != nil {
			return err
		}
	}

	token, err := auth.GenerateSessionToken(st.sess.ID, s.SecretKey, s.SessionTTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, int(s.SessionTTL.Seconds()), "/", "", s.SecureCookie, true)
	return nil
}

func matchRule(path string) (accessRule, bool) {
	for _, r := range accessRules {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r, true
		}
	}
	return accessRule{}, false
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
