package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/server/models"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile    = "base.layout.html"
	partialSuffix = ".partial.html"
)

// HTMLData is what every page template receives.
type HTMLData struct {
	Title       string
	Path        string
	CurrentUser *models.User

	CSRFToken    string
	LastUsername string
	FormError    string
	FormData     map[string]string
	FieldErrors  services.FieldErrors

	User   *models.User
	Users  []*models.User
	Event  *models.Event
	Events []*models.Event
	Papers []services.PaperView
}

var functions = template.FuncMap{
	"formatDate": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006, 15:04")
		case *time.Time:
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006, 15:04")
		}
		return ""
	},
	"hasRole": func(u *models.User, role string) bool {
		return u != nil && u.HasRole(role)
	},
	"humanSize": func(n int64) string {
		const unit = 1024
		if n < unit {
			return fmt.Sprintf("%d B", n)
		}
		div, exp := int64(unit), 0
		for m := n / unit; m >= unit; m /= unit {
			div *= unit
			exp++
		}
		return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
	},
	"join": strings.Join,
}

type renderer struct {
	pages map[string]*template.Template
}

// newRenderer parses every page together with the layout and the partials
// once at startup.
func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := path.Base(name)
		if page == layoutFile || strings.HasSuffix(page, partialSuffix) {
			continue
		}
		ts, err := template.New(page).Funcs(functions).ParseFS(templateFS, "templates/"+layoutFile, "templates/*"+partialSuffix, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = ts
	}
	return r, nil
}

func (r *renderer) execute(page string, data *HTMLData) ([]byte, error) {
	ts, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("template %s not found", page)
	}
	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// render writes page with the session committed first, so the response
// carries the current cookie.
func (s *Server) render(c *gin.Context, status int, page string, data *HTMLData) {
	if data == nil {
		data = &HTMLData{}
	}
	data.Path = c.Request.URL.Path
	if data.CurrentUser == nil {
		data.CurrentUser = currentUser(c)
	}

	body, err := s.pages.execute(page, data)
	if err != nil {
		s.log.Error(c.Request.Context(), "render", "page", page, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if err := s.commit(c); err != nil {
		s.serverError(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}

// redirect sends a 302 after committing the session.
func (s *Server) redirect(c *gin.Context, location string) {
	if err := s.commit(c); err != nil {
		s.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
	c.Abort()
}
