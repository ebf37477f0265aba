package web

import (
	"net/http"
	"strconv"

	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	usersPath  = "/admin/users"
	eventsPath = "/admin/events"
)

func (s *Server) userList(c *gin.Context) {
	users, err := s.Users.ListUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "users.html", &HTMLData{Title: "Users", Users: users})
}

func (s *Server) userNewForm(c *gin.Context) {
	s.renderForm(c, "user_form.html", auth.IntentionUser, &HTMLData{Title: "New user"})
}

func (s *Server) userCreate(c *gin.Context) {
	form := userForm(c)
	data := &HTMLData{
		Title:    "New user",
		FormData: map[string]string{"email": form.Email, "username": form.Username},
	}
	if !s.validCSRF(c, auth.IntentionUser, data) {
		return
	}

	if _, err := s.Users.CreateUser(c.Request.Context(), form); err != nil {
		s.formFailure(c, "user_form.html", auth.IntentionUser, data, err)
		return
	}
	s.redirect(c, usersPath)
}

func (s *Server) userEditForm(c *gin.Context) {
	user, err := s.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderForm(c, "user_form.html", auth.IntentionUser, &HTMLData{
		Title:    "Edit user",
		User:     user,
		FormData: userValues(user.Email, user.Username, user.IsActive),
	})
}

func (s *Server) userUpdate(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.Users.GetUser(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	form := services.UserEditForm{
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		IsActive: c.PostForm("is_active") != "",
	}
	data := &HTMLData{
		Title:    "Edit user",
		User:     user,
		FormData: userValues(form.Email, form.Username, form.IsActive),
	}
	if !s.validCSRF(c, auth.IntentionUser, data) {
		return
	}

	if _, err := s.Users.UpdateUser(ctx, user.ID, form); err != nil {
		s.formFailure(c, "user_form.html", auth.IntentionUser, data, err)
		return
	}
	s.redirect(c, usersPath)
}

func userValues(email, username string, active bool) map[string]string {
	return map[string]string{"email": email, "username": username, "is_active": strconv.FormatBool(active)}
}

func (s *Server) passwordForm(c *gin.Context) {
	user, err := s.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderForm(c, "password_form.html", auth.IntentionPassword, &HTMLData{Title: "Change password", User: user})
}

func (s *Server) passwordChange(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.Users.GetUser(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	data := &HTMLData{Title: "Change password", User: user}
	if !s.validCSRF(c, auth.IntentionPassword, data) {
		return
	}

	form := services.PasswordForm{
		Password:       c.PostForm("password"),
		PasswordRepeat: c.PostForm("password_repeat"),
	}
	if _, err := s.Users.ChangePassword(ctx, user.ID, form); err != nil {
		s.formFailure(c, "password_form.html", auth.IntentionPassword, data, err)
		return
	}
	s.redirect(c, usersPath)
}

func (s *Server) eventList(c *gin.Context) {
	events, err := s.Events.ListEvents(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "events.html", &HTMLData{Title: "Events", Events: events})
}

func (s *Server) eventNewForm(c *gin.Context) {
	s.renderForm(c, "event_form.html", auth.IntentionEvent, &HTMLData{Title: "New event", FormData: map[string]string{}})
}

func (s *Server) eventCreate(c *gin.Context) {
	form := eventForm(c)
	data := &HTMLData{Title: "New event", FormData: eventValues(form)}
	if !s.validCSRF(c, auth.IntentionEvent, data) {
		return
	}

	if _, err := s.Events.CreateEvent(c.Request.Context(), form); err != nil {
		s.formFailure(c, "event_form.html", auth.IntentionEvent, data, err)
		return
	}
	s.redirect(c, eventsPath)
}

func (s *Server) eventEditForm(c *gin.Context) {
	event, err := s.Events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderForm(c, "event_form.html", auth.IntentionEvent, &HTMLData{
		Title:    "Edit event",
		Event:    event,
		FormData: eventValues(services.EventFormOf(event)),
	})
}

func (s *Server) eventUpdate(c *gin.Context) {
	ctx := c.Request.Context()
	event, err := s.Events.GetEvent(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	form := eventForm(c)
	data := &HTMLData{Title: "Edit event", Event: event, FormData: eventValues(form)}
	if !s.validCSRF(c, auth.IntentionEvent, data) {
		return
	}

	if _, err := s.Events.UpdateEvent(ctx, event.ID, form); err != nil {
		s.formFailure(c, "event_form.html", auth.IntentionEvent, data, err)
		return
	}
	s.redirect(c, eventsPath)
}

func eventForm(c *gin.Context) services.EventForm {
	return services.EventForm{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Date:        c.PostForm("date"),
		Address:     c.PostForm("address"),
		Postcode:    c.PostForm("postcode"),
	}
}

func eventValues(f services.EventForm) map[string]string {
	return map[string]string{
		"title":       f.Title,
		"description": f.Description,
		"date":        f.Date,
		"address":     f.Address,
		"postcode":    f.Postcode,
	}
}

func (s *Server) paperList(c *gin.Context) {
	papers, err := s.Papers.ListAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.render(c, http.StatusOK, "papers.html", &HTMLData{Title: "Papers", Papers: papers})
}
