package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/vaultscribe/vaultscribe/internal/auth"
	"github.com/vaultscribe/vaultscribe/internal/cli"
	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/config"
	"github.com/vaultscribe/vaultscribe/internal/logging"
	"github.com/vaultscribe/vaultscribe/internal/password"
	"github.com/vaultscribe/vaultscribe/internal/session"
	"github.com/vaultscribe/vaultscribe/internal/store"
	"github.com/vaultscribe/vaultscribe/internal/totp"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.NewProductionLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		var serr *common.SchemaError
		if errors.As(err, &serr) {
			logger.Error(ctx, "schema migration failed, refusing to run", "path", cfg.DBPath, "error", serr.Err)
		} else {
			logger.Error(ctx, "failed to open store", "path", cfg.DBPath, "error", err)
		}
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	hasher, err := password.NewHasher(cfg.HashParams())
	if err != nil {
		logger.Error(ctx, "invalid hash settings", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(st.DB, cfg.SessionLifetime(), logger)
	if removed, err := sessions.SweepExpired(ctx); err != nil {
		logger.Warn(ctx, "startup session sweep failed", "error", err)
	} else if removed > 0 {
		logger.Info(ctx, "expired sessions removed", "count", removed)
	}

	svc := auth.NewService(st, hasher, totp.NewEngine(cfg.TOTPIssuer), sessions, logger)

	app := cli.NewApp(svc)
	app.Root(ctx)
}
