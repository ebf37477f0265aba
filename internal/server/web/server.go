// Package web is the HTTP side of the application: a gin router behind a
// session firewall, serving the login flow and the admin pages.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/metrics"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/abswdsmn/conference-organiser/internal/server/session"
	"github.com/abswdsmn/conference-organiser/internal/server/storage"
	"github.com/gin-gonic/gin"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second

	// maxUploadMemory is kept in RAM while parsing multipart forms; larger
	// parts spill to temporary files.
	maxUploadMemory = 8 << 20
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Sessions      session.Store
	Authenticator *auth.LoginAuthenticator
	CSRF          *auth.CSRFManager
	Users         *services.UserService
	Events        *services.EventService
	Papers        *services.PaperService
	Files         storage.FileStore
	Metrics       *metrics.Metrics
	Logger        logging.Logger

	SecretKey    []byte
	SessionTTL   time.Duration
	SecureCookie bool
}

type Server struct {
	Deps
	log    logging.Logger
	pages  *renderer
	router *gin.Engine
}

func NewServer(d Deps) (*Server, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	s := &Server{Deps: d, log: d.Logger.With("module", "web"), pages: pages}
	s.router = s.routes()
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on address until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.log.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory
	r.Use(s.requestLogger(), s.recovery(), s.firewall())

	r.GET("/", s.home)
	r.GET("/login", s.loginForm)
	r.POST("/login", s.loginSubmit)
	r.GET("/logout", s.logout)
	r.GET("/register", s.registerForm)
	r.POST("/register", s.registerSubmit)

	admin := r.Group("/admin")
	admin.GET("/user", s.userNewForm)
	admin.POST("/user", s.userCreate)
	admin.GET("/user/:id", s.userEditForm)
	admin.POST("/user/:id", s.userUpdate)
	admin.GET("/user/password/:id", s.passwordForm)
	admin.POST("/user/password/:id", s.passwordChange)
	admin.GET("/users", s.userList)
	admin.GET("/event", s.eventNewForm)
	admin.POST("/event", s.eventCreate)
	admin.GET("/event/:id", s.eventEditForm)
	admin.POST("/event/:id", s.eventUpdate)
	admin.GET("/events", s.eventList)
	admin.GET("/papers", s.paperList)

	r.GET("/paper", s.paperForm)
	r.POST("/paper", s.paperUpload)
	r.GET(storageRoute, s.uploadedFile)

	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	r.NoRoute(func(c *gin.Context) {
		s.render(c, http.StatusNotFound, "error.html", &HTMLData{Title: "Page not found"})
	})
	return r
}
