package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/milkrun/storefront/internal/config"
	"github.com/milkrun/storefront/internal/identity"
	"github.com/milkrun/storefront/internal/infra"
	"github.com/milkrun/storefront/internal/logging"
	"github.com/milkrun/storefront/internal/navigation"
	"github.com/milkrun/storefront/internal/routes"
	"github.com/milkrun/storefront/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	if err := navigation.CheckRedirectTargets(); err != nil {
		logger.Error("navigation table", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	stores, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close(logger)

	users := routes.NewUserRepository(stores.DB)
	ids := identity.NewService(users)
	if cfg.SeedUsersFile != "" {
		seed, err := identity.LoadSeedFile(cfg.SeedUsersFile)
		if err != nil {
			logger.Error("load seed users", "error", err)
			os.Exit(1)
		}
		created, err := ids.Seed(ctx, seed)
		if err != nil {
			logger.Error("seed users", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded users", slog.Int("created", created), slog.Int("total", len(seed)))
	}

	srv, err := server.New(routes.Deps{Cfg: cfg, DB: stores.DB, Cache: stores.Cache, Logger: logger, Identity: ids, Users: users})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("listening", slog.String("addr", cfg.Address()), slog.String("env", cfg.AppEnv))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
