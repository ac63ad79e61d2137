// Package server initializes and runs the paste storage engine: it wires the
// relational store, the object store, the coordinator and the background
// sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ebelanger/pastecove/internal/logging"
	"github.com/ebelanger/pastecove/internal/server/blob"
	"github.com/ebelanger/pastecove/internal/server/config"
	"github.com/ebelanger/pastecove/internal/server/limits"
	"github.com/ebelanger/pastecove/internal/server/metrics"
	"github.com/ebelanger/pastecove/internal/server/ratelimit"
	"github.com/ebelanger/pastecove/internal/server/repositories/repomanager"
	"github.com/ebelanger/pastecove/internal/server/services"
	"github.com/ebelanger/pastecove/internal/server/sweeper"
	"github.com/ebelanger/pastecove/internal/snowflake"
)

// App owns every wired component. Transports embed the engine through
// Pastes and Limiter; the sweeper runs from Run.
type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	pastes  *services.PasteService
	limiter *ratelimit.Limiter
	sweeper *sweeper.Sweeper
}

// Seams for tests.
var (
	sqlOpen        = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

// NewApp wires the engine: database plus migrations, object store plus bucket
// provisioning, coordinator, rate limiter and sweeper. Metrics register on
// reg; pass nil to skip registration.
func NewApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := blob.NewS3Store(ctx, blob.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	ensureCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := store.EnsureBucket(ensureCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bucket provisioning error: %w", err)
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	policy := limits.New(cfg.Limits)
	pastes := services.NewPasteService(db, rm, store, snowflake.New(nil), policy, logger, m)
	limiter := ratelimit.New(cfg.RateBudgets, cfg.RateIdleTTL, m)
	sw := sweeper.New(pastes, cfg.SweepInterval, cfg.SweepWorkers, logger, m)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		pastes:  pastes,
		limiter: limiter,
		sweeper: sw,
	}, nil
}

// Pastes returns the storage coordinator for transports to call.
func (app *App) Pastes() *services.PasteService {
	return app.pastes
}

// Limiter returns the admission gate transports consult before each request.
func (app *App) Limiter() *ratelimit.Limiter {
	return app.limiter
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

// Run starts the sweeper and blocks until a termination signal arrives and
// the sweeper drains.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "Shutdown complete")
}
