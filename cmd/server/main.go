package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Clark-Hu/barpulse/internal/auth"
	"github.com/Clark-Hu/barpulse/internal/config"
	httpserver "github.com/Clark-Hu/barpulse/internal/http"
	"github.com/Clark-Hu/barpulse/internal/logging"
	"github.com/Clark-Hu/barpulse/internal/migration"
	"github.com/Clark-Hu/barpulse/internal/reports"
	"github.com/Clark-Hu/barpulse/internal/repository"
	"github.com/Clark-Hu/barpulse/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "barpulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New("barpulse", cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	if cfg.RunMigrations {
		sqlDB := st.SQLDB()
		err := migration.Run(ctx, sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	locker, closeLocker, err := newVenueLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	repo := repository.New(st)
	svc := reports.NewService(repo.Reports, repo.Venues,
		reports.WithLocation(cfg.Location),
		reports.WithLocker(locker),
		reports.WithLogger(logger),
	)
	authn := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTAudience, repo.Users)
	server := httpserver.New(cfg, st, svc, authn, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// newVenueLocker picks the Redis-backed lock when REDIS_ADDR is set so that
// replicas share venue locks; otherwise locks are process-local.
func newVenueLocker(ctx context.Context, cfg config.Config, logger *zap.Logger) (reports.VenueLocker, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process venue locks")
		return reports.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	locker, err := reports.NewRedisLocker(client, cfg.VenueLockTTL(), logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("using redis venue locks", zap.String("addr", cfg.RedisAddr))
	return locker, func() { _ = client.Close() }, nil
}
