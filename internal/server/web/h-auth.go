package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/metrics"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) home(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", &HTMLData{Title: "Conference organiser"})
}

func (s *Server) loginForm(c *gin.Context) {
	sess := sessionFrom(c)
	token, err := s.CSRF.Token(sess, auth.IntentionAuthenticate)
	if err != nil {
		s.serverError(c, err)
		return
	}

	lastUsername, _ := sess.Get(common.SessionKeyLastUsername)
	lastError, _ := sess.Pop(common.SessionKeyLastError)
	s.render(c, http.StatusOK, "login.html", &HTMLData{
		Title:        "Log in",
		CSRFToken:    token,
		LastUsername: lastUsername,
		FormError:    lastError,
	})
}

func (s *Server) loginSubmit(c *gin.Context) {
	if !s.Authenticator.Supports(auth.LoginRoute, c.Request.Method) {
		c.AbortWithStatus(http.StatusMethodNotAllowed)
		return
	}

	ctx := c.Request.Context()
	sess := sessionFrom(c)
	res, err := s.Authenticator.Authenticate(ctx, sess, auth.Credentials{
		Username:  c.PostForm("_username"),
		Password:  c.PostForm("_password"),
		CSRFToken: c.PostForm(csrfField),
	})
	if err != nil {
		if !auth.IsFailure(err) {
			s.Metrics.ObserveLogin(metrics.LoginFailure, "error")
			s.serverError(c, fmt.Errorf("login: %w", err))
			return
		}
		s.Metrics.ObserveLogin(metrics.LoginFailure, loginFailureReason(err))
		s.Authenticator.OnFailure(sess, err)
		s.redirect(c, loginPath)
		return
	}

	state(c).user = res.User
	s.Metrics.ObserveLogin(metrics.LoginSuccess, "")
	s.redirect(c, res.RedirectTo)
}

func loginFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return "csrf"
	case errors.Is(err, auth.ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "bad_credentials"
	case errors.Is(err, auth.ErrAccountDisabled):
		return "disabled"
	}
	return "unknown"
}

// logout is never reached: the firewall answers GET /logout itself.
func (s *Server) logout(c *gin.Context) {
	s.serverError(c, errors.New("logout must be handled by the firewall"))
}

func (s *Server) registerForm(c *gin.Context) {
	s.renderForm(c, "register.html", auth.IntentionRegister, &HTMLData{Title: "Register"})
}

func (s *Server) registerSubmit(c *gin.Context) {
	form := userForm(c)
	data := &HTMLData{
		Title:    "Register",
		FormData: map[string]string{"email": form.Email, "username": form.Username},
	}

	if !s.validCSRF(c, auth.IntentionRegister, data) {
		return
	}

	if _, err := s.Users.Register(c.Request.Context(), form); err != nil {
		s.formFailure(c, "register.html", auth.IntentionRegister, data, err)
		return
	}
	s.redirect(c, loginPath)
}

func userForm(c *gin.Context) services.UserForm {
	return services.UserForm{
		Email:          c.PostForm("email"),
		Username:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		PasswordRepeat: c.PostForm("password_repeat"),
	}
}
