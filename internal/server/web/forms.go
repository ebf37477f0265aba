package web

import (
	"net/http"

	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/gin-gonic/gin"
)

const csrfField = "_csrf_token"

// renderForm renders page with a CSRF token for intention.
func (s *Server) renderForm(c *gin.Context, page, intention string, data *HTMLData) {
	token, err := s.CSRF.Token(sessionFrom(c), intention)
	if err != nil {
		s.serverError(c, err)
		return
	}
	data.CSRFToken = token
	s.render(c, http.StatusOK, page, data)
}

// validCSRF checks the submitted token. On mismatch it re-renders the form
// of intention with an error and returns false.
func (s *Server) validCSRF(c *gin.Context, intention string, data *HTMLData) bool {
	if s.CSRF.Valid(sessionFrom(c), intention, c.PostForm(csrfField)) {
		return true
	}
	data.FormError = auth.ErrInvalidToken.Error()
	s.renderForm(c, formPages[intention], intention, data)
	return false
}

// formFailure re-renders the form for validation errors and fails the
// request otherwise.
func (s *Server) formFailure(c *gin.Context, page, intention string, data *HTMLData, err error) {
	if fe, ok := services.AsFieldErrors(err); ok {
		data.FieldErrors = fe
		s.renderForm(c, page, intention, data)
		return
	}
	s.fail(c, err)
}

var formPages = map[string]string{
	auth.IntentionRegister: "register.html",
	auth.IntentionUser:     "user_form.html",
	auth.IntentionPassword: "password_form.html",
	auth.IntentionEvent:    "event_form.html",
	auth.IntentionPaper:    "paper.html",
}
