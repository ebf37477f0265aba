// Package server initializes and runs the conference organiser: it picks the
// database, session and file storage backends from the configuration, then
// runs the web application and the gRPC health service until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/logging"
	"github.com/abswdsmn/conference-organiser/internal/server/auth"
	"github.com/abswdsmn/conference-organiser/internal/server/config"
	"github.com/abswdsmn/conference-organiser/internal/server/metrics"
	"github.com/abswdsmn/conference-organiser/internal/server/repositories/repomanager"
	"github.com/abswdsmn/conference-organiser/internal/server/services"
	"github.com/abswdsmn/conference-organiser/internal/server/session"
	"github.com/abswdsmn/conference-organiser/internal/server/storage"
	"github.com/abswdsmn/conference-organiser/internal/server/store"
	"github.com/abswdsmn/conference-organiser/internal/server/web"
	"github.com/gin-gonic/gin"
	"github.com/thejerf/abtime"
	"golang.org/x/crypto/bcrypt"

	gs "github.com/abswdsmn/conference-organiser/internal/server/grpc"
)

const (
	sessionPurgeInterval = 10 * time.Minute
	purgeTickerID        = 1
)

type App struct {
	config *config.Config
	logger logging.Logger

	// db is nil when running on the in-process database.
	db        *sql.DB
	web       *web.Server
	health    *gs.GRPCServer
	purgeFunc func(ctx context.Context)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	gateways, repos, err := app.initDatabase(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	sessions := app.initSessions(repos, m)

	files, err := newFileStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("file storage init error: %w", err)
	}

	encoder := auth.NewBcryptEncoder(bcrypt.DefaultCost)
	csrf := auth.NewCSRFManager([]byte(c.SecretKey))

	gin.SetMode(gin.ReleaseMode)
	app.web, err = web.NewServer(web.Deps{
		Sessions:      sessions,
		Authenticator: auth.NewLoginAuthenticator(gateways(), sessions, csrf, encoder, logger),
		CSRF:          csrf,
		Users:         services.NewUserService(gateways, encoder, logger),
		Events:        services.NewEventService(gateways, logger),
		Papers:        services.NewPaperService(gateways, files, logger),
		Files:         files,
		Metrics:       m,
		Logger:        logger,
		SecretKey:     []byte(c.SecretKey),
		SessionTTL:    c.SessionTTL,
		SecureCookie:  c.SecureCookie,
	})
	if err != nil {
		return nil, fmt.Errorf("web init error: %w", err)
	}

	var pinger gs.Pinger
	if app.db != nil {
		pinger = app.db
	}
	app.health = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, pinger)

	return app, nil
}

// initDatabase opens and migrates PostgreSQL, or sets up the in-process
// database. repos is nil in the latter case.
func (app *App) initDatabase(ctx context.Context) (services.GatewayFactory, repomanager.RepositoryManager, error) {
	if app.config.DatabaseDSN == config.DatabaseMemory {
		app.logger.Warn(ctx, "using in-memory database, data is lost on exit")
		mem := store.NewMemoryDB()
		return func() services.Gateway { return mem.Gateway() }, nil, nil
	}

	db, err := repomanager.OpenDB(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}

	app.db = db
	return func() services.Gateway { return store.New(db, repos) }, repos, nil
}

func (app *App) initSessions(repos repomanager.RepositoryManager, m *metrics.Metrics) session.Store {
	if app.config.SessionBackend == config.SessionBackendPostgres && app.db != nil {
		st := session.NewPostgresStore(app.db, repos, app.config.SessionTTL, nil)
		app.purgeFunc = func(ctx context.Context) { app.purgePostgresSessions(ctx, st) }
		return st
	}

	st := session.NewMemoryStore(app.config.SessionTTL, nil)
	m.TrackSessions(st.Len)
	app.purgeFunc = func(ctx context.Context) { st.RunPurger(ctx, sessionPurgeInterval) }
	return st
}

func (app *App) purgePostgresSessions(ctx context.Context, st *session.PostgresStore) {
	ticker := abtime.NewRealTime().NewTicker(sessionPurgeInterval, purgeTickerID)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Channel():
			n, err := st.PurgeExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "session purge", "error", err)
				continue
			}
			app.logger.Debug(ctx, "sessions purged", "count", n)
		}
	}
}

func newFileStore(ctx context.Context, c *config.Config) (storage.FileStore, error) {
	if c.StorageBackend == config.StorageBackendS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
	}
	return storage.NewLocalStore(c.UploadDir)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.web.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeFunc(ctx)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
