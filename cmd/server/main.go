package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ToonLance/freelancer-nest-profile/internal/app"
	"github.com/ToonLance/freelancer-nest-profile/internal/config"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("freelancer-nest-profile started", map[string]any{
		"port":      cfg.AppPort,
		"env":       cfg.AppEnv,
		"keycloak":  cfg.KeycloakEnabled(),
		"idle_ttl":  cfg.SessionIdleTimeout.String(),
		"total_ttl": cfg.SessionTTL.String(),
	})

	if err := application.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("freelancer-nest-profile stopped cleanly", nil)
}
