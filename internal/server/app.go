// Package server initializes and runs the trustkeeper server: it wires the
// trust and ephemeral stores into the authentication service, then serves
// gRPC and the monitoring endpoints until a signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/logging"
	"github.com/dmitrijs2005/trustkeeper/internal/server/auth"
	"github.com/dmitrijs2005/trustkeeper/internal/server/config"
	"github.com/dmitrijs2005/trustkeeper/internal/server/ephemeral"
	"github.com/dmitrijs2005/trustkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/trustkeeper/internal/server/monitoring"
	"github.com/dmitrijs2005/trustkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trustkeeper/internal/server/services"
	"github.com/dmitrijs2005/trustkeeper/internal/server/truststore"
	"github.com/dmitrijs2005/trustkeeper/internal/timex"

	gs "github.com/dmitrijs2005/trustkeeper/internal/server/grpc"
)

// MemoryDSN selects the in-process trust store instead of PostgreSQL.
// Data does not survive a restart.
const MemoryDSN = "memory"

const (
	redisKeyPrefix = "trustkeeper:"
	sweepInterval  = time.Minute
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	metrics     *metrics.Metrics
	authService *services.AuthService
	checks      map[string]monitoring.Check
	background  []func(ctx context.Context)
	closers     []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	clock := timex.SystemClock()

	app := &App{
		config:  c,
		logger:  logger,
		metrics: metrics.NewDefault(),
		checks:  make(map[string]monitoring.Check),
	}

	trustStore, err := app.openTrustStore(ctx, clock)
	if err != nil {
		app.Close()
		return nil, err
	}

	ephemeralStore, err := app.openEphemeralStore(ctx, clock)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.authService = services.NewAuthService(
		trustStore,
		ephemeralStore,
		auth.NewCodec([]byte(c.SecretKey), clock),
		passwords.NewBcryptHasher(c.BcryptCost),
		clock,
		logger,
		app.metrics,
		services.AuthConfigFrom(c),
	)

	return app, nil
}

func (app *App) openTrustStore(ctx context.Context, clock timex.Clock) (truststore.Store, error) {
	if app.config.DatabaseDSN == MemoryDSN {
		app.logger.Warn(ctx, "using in-memory trust store; data is lost on restart")
		return truststore.NewMemoryStore(clock), nil
	}

	db, err := repomanager.OpenDB(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db.Close)
	app.checks["database"] = db.PingContext

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return truststore.NewSQLStore(db, rm), nil
}

func (app *App) openEphemeralStore(ctx context.Context, clock timex.Clock) (ephemeral.Store, error) {
	switch app.config.EphemeralBackend {
	case config.EphemeralMemory:
		app.logger.Warn(ctx, "using in-memory ephemeral store; codes and revocations are per process")
		store := ephemeral.NewMemoryStore(clock)
		app.background = append(app.background, func(ctx context.Context) {
			store.Run(ctx, sweepInterval)
		})
		return store, nil

	case config.EphemeralRedis:
		client, err := ephemeral.Connect(ctx, app.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.checks["ephemeral"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return ephemeral.NewRedisStore(client, redisKeyPrefix), nil
	}

	return nil, fmt.Errorf("unknown ephemeral backend %q", app.config.EphemeralBackend)
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMonitoringServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := monitoring.NewRouter(app.metrics.Handler(), app.checks)
	s := monitoring.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a listener fails,
// then releases every resource the app opened.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMonitoringServer(ctx, cancelFunc)
	}()

	for _, task := range app.background {
		wg.Add(1)
		go func(task func(context.Context)) {
			defer wg.Done()
			task(ctx)
		}(task)
	}

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases database and Redis connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error(context.Background(), "close error", "error", err)
		}
	}
	app.closers = nil
}
