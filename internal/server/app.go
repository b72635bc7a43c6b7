// Package server wires the cardkeeper server together: database, session
// ledger, collections, HTTP API and the session sweeper, and runs them
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/engine"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/collections"
	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	"github.com/dmitrijs2005/cardkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	collections *collections.Manager
	http        *httpserver.HTTPServer
	sweeper     *services.SessionSweeper
}

// NewApp opens the database, applies migrations and builds every
// component. Output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	slogger := logging.New(w, c.LogFormat, c.LogLevel)
	logger := slogger.With("app", "cardkeeper")

	if c.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	dialect, err := c.Dialect()
	if err != nil {
		return nil, err
	}
	db, err := dbx.Open(ctx, dialect, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), auth.WithLeeway(c.TokenLeeway))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mt := metrics.New()
	sessions := rm.Sessions(db)

	coll := collections.NewManager(dataDir,
		engine.NewBadgerOpener(slogger.Slog(), engine.BadgerOptions{SyncWrites: true}),
		logger,
		collections.WithPathRecorder(rm.Users(db)),
		collections.WithMetrics(mt),
	)

	users := services.NewUserService(db, rm, tokens, c.SessionTTL, logger,
		services.WithCollections(coll),
		services.WithUserMetrics(mt),
	)

	srv := httpserver.NewHTTPServer(c.HTTPAddr, logger, httpserver.Deps{
		Users:       users,
		Auth:        auth.NewEnforcer(tokens, sessions, logger.With("module", "auth")),
		Collections: coll,
		Metrics:     mt,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		collections: coll,
		http:        srv,
		sweeper:     services.NewSessionSweeper(sessions, c.SessionSweepInterval, logger, mt),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until a signal arrives, ctx is cancelled or a component
// fails. Shutdown drains HTTP first, then closes every collection, then
// the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	if app.config.UsesDefaultSecret() {
		app.logger.Warn(ctx, "using the default secret key, set CARDKEEPER_SECRET_KEY in production")
	}

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.sweeper.Run(gctx) })

	runErr := g.Wait()
	app.logger.Info(context.Background(), "Stopping app...")

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if err := app.collections.CloseAll(); err != nil {
		errs = append(errs, fmt.Errorf("close collections: %w", err))
	}
	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close db: %w", err))
	}
	return errors.Join(errs...)
}
