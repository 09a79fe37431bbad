package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	adapthttp "bookwise/internal/adapter/http"
	"bookwise/internal/adapter/postgres"
	"bookwise/internal/adapter/redislimit"
	"bookwise/internal/app"
	"bookwise/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load("bookwise")
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if cfg.Postgres.DSN == "" {
		logger.Error("postgres.dsn is required")
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.Postgres.DSN)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	gate := redislimit.New(rdb, cfg.Limiter.MaxRequests, cfg.Limiter.Window)

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	bookRepo := postgres.NewBookRepo(db)
	borrowRepo := postgres.NewBorrowRepo(db)

	authSvc := app.NewAuthService(userRepo, sessionRepo, gate, logger, app.AuthConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		SessionTTL: cfg.Auth.SessionTTL,
	})
	bookSvc := app.NewBookService(bookRepo, logger)
	borrowSvc := app.NewBorrowService(borrowRepo, userRepo, logger, 0)
	userSvc := app.NewUserService(userRepo, logger)
	mediaSvc := app.NewMediaService(cfg.Media.PublicKey, cfg.Media.PrivateKey, cfg.Media.URLEndpoint, cfg.Media.TokenTTL)

	oidc, err := adapthttp.NewOIDC(context.Background(), cfg.SSO)
	if err != nil {
		logger.Error("oidc setup failed", "err", err)
		os.Exit(1)
	}

	h := adapthttp.New(authSvc, bookSvc, borrowSvc, userSvc, mediaSvc,
		logger, cfg.Server.WebDir, cfg.Limiter.FallbackKey, oidc).Handler()

	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
