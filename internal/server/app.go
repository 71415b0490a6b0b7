// Package server assembles the SessionKeeper process: it opens the database
// (and Redis when configured), runs migrations, builds repositories and
// services explicitly, and runs the HTTP API and gRPC health servers until
// a signal or context cancellation stops them.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/fingerprints"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/sessionkeeper/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	rdb         *redis.Client
	repomanager repomanager.RepositoryManager
	handler     http.Handler
	health      *gs.HealthService
}

// NewApp opens the backing stores and wires the application. The caller
// must Close the returned App.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, nil)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var rdb *redis.Client
	if c.FingerprintStore == config.StoreRedis {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
	}

	app, err := build(c, logger, db, rdb)
	if err != nil {
		_ = closeAll(db, rdb)
		return nil, err
	}

	if err := app.migrate(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

func build(c *config.Config, logger logging.Logger, db *sql.DB, rdb *redis.Client) (*App, error) {
	var opts []repomanager.Option
	deps := map[string]gs.Pinger{"postgres": db}

	switch c.FingerprintStore {
	case config.StorePostgres:
	case config.StoreRedis:
		if rdb == nil {
			return nil, errors.New("redis fingerprint store selected but no redis client")
		}
		opts = append(opts, repomanager.WithFingerprintStore(
			fingerprints.NewRedisRepository(rdb, c.RefreshTokenValidityDuration)))
		deps["redis"] = gs.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	default:
		return nil, fmt.Errorf("unknown fingerprint store %q", c.FingerprintStore)
	}
	rm := repomanager.NewPostgresRepositoryManager(opts...)

	tokens, err := auth.NewTokenManager([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token manager init error: %w", err)
	}
	fp := auth.NewFingerprinter(c.FingerprintSecret())

	us := services.NewUserService(db, rm, tokens, fp, logger)
	rs := services.NewRotationService(db, rm, tokens, fp, logger)

	gin.SetMode(gin.ReleaseMode)
	h := hs.NewHandler(us, rs, auth.NewAuthenticator(tokens), logger)
	router := hs.NewRouter(h, logger, hs.NewRateLimiter(c.RateLimitPerMinute))

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		rdb:         rdb,
		repomanager: rm,
		handler:     router,
		health:      gs.NewHealthService(logger, deps),
	}, nil
}

func (app *App) migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			app.logger.Info(ctx, "Signal received, shutting down")
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := hs.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.health)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives, or one
// of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
}

// Close releases the database pool and the Redis client.
func (app *App) Close() error {
	return closeAll(app.db, app.rdb)
}

func closeAll(db *sql.DB, rdb *redis.Client) error {
	var errs []error
	if rdb != nil {
		errs = append(errs, rdb.Close())
	}
	if db != nil {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}
