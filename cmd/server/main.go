package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/cache"
	"github.com/hongminglow/pw-ledger/internal/config"
	"github.com/hongminglow/pw-ledger/internal/server"
	"github.com/hongminglow/pw-ledger/internal/storage"
	"github.com/hongminglow/pw-ledger/internal/storage/memory"
	postgres "github.com/hongminglow/pw-ledger/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	deps := server.Deps{Logger: logger, Cache: cache.Noop{}}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		deps.Store = memory.New()
	default:
		pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("init database", zap.Error(err))
		}
		deps.Store, deps.DB = pg, pg
	}
	defer deps.Store.Close()

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, read cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			deps.Cache = rc
		}
	}

	if err := bootstrap(ctx, deps.Store, cfg, logger); err != nil {
		logger.Fatal("bootstrap superadmin", zap.Error(err))
	}

	srv := server.New(cfg, deps)

	go func() {
		logger.Info("pw-ledger listening", zap.String("addr", cfg.HTTPAddress()), zap.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func bootstrap(ctx context.Context, store storage.Store, cfg config.Config, logger *zap.Logger) error {
	svc := accounts.NewService(store, logger.Named("accounts"))
	created, err := svc.EnsureSuperAdmin(ctx, accounts.Bootstrap{
		Name:     cfg.Bootstrap.Name,
		Username: cfg.Bootstrap.Username,
		Email:    cfg.Bootstrap.Email,
		Password: cfg.Bootstrap.Password,
	})
	if err != nil {
		return err
	}
	if !created {
		n, err := store.CountAdmins(ctx, "")
		if err == nil && n == 0 {
			logger.Warn("no admin accounts exist; set BOOTSTRAP_SUPERADMIN_USERNAME and BOOTSTRAP_SUPERADMIN_PASSWORD")
		}
	}
	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
