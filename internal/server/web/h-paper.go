package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abswdsmn/conference-organiser/internal/common"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/abswdsmn/conference-organiser/internal/server/storage"
	"github.com/gin-gonic/gin"
)

const (
	paperPath    = "/paper"
	storageRoute = storage.LocalPrefix + "*key"
)

func (s *Server) paperForm(c *gin.Context) {
	data, ok := s.paperPage(c)
	if !ok {
		return
	}
	s.renderForm(c, "paper.html", auth.IntentionPaper, data)
}

func (s *Server) paperUpload(c *gin.Context) {
	data, ok := s.paperPage(c)
	if !ok {
		return
	}
	if !s.validCSRF(c, auth.IntentionPaper, data) {
		return
	}

	var up services.Upload
	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			s.serverError(c, err)
			return
		}
		defer f.Close()
		up = services.Upload{
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		}
	case !errors.Is(err, http.ErrMissingFile):
		s.log.Info(c.Request.Context(), "bad upload", "error", err)
	}

	if _, err := s.Papers.Upload(c.Request.Context(), currentUser(c).ID, up); err != nil {
		s.formFailure(c, "paper.html", auth.IntentionPaper, data, err)
		return
	}
	s.redirect(c, paperPath)
}

// paperPage lists the papers of the current user.
func (s *Server) paperPage(c *gin.Context) (*HTMLData, bool) {
	papers, err := s.Papers.ListForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return &HTMLData{Title: "My paper", Papers: papers}, true
}

// uploadedFile serves papers kept in the local upload directory.
func (s *Server) uploadedFile(c *gin.Context) {
	local, ok := s.Files.(*storage.LocalStore)
	if !ok {
		s.notFound(c)
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	paper, err := s.Papers.FindByStorageKey(c.Request.Context(), key)
	if err != nil {
		s.fail(c, err)
		return
	}
	// applicants only see their own papers, staff see all of them
	if user := currentUser(c); paper.UserID != user.ID && !user.HasRole(common.RoleUser) {
		s.forbidden(c)
		return
	}

	f, err := local.Open(key)
	if err != nil {
		s.notFound(c)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.notFound(c)
		return
	}
	if err := s.commit(c); err != nil {
		s.serverError(c, err)
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
