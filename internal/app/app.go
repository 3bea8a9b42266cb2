package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/config"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	httpServer *http.Server
	cleanup    func() error
}

// New connects the infrastructure, discovers the providers and builds the
// HTTP server. Nothing listens until Run.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	handler, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Logger().Handler(), slog.LevelWarn),
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases the database and Redis connections.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", map[string]any{
			"addr": a.httpServer.Addr,
		})
		serveErr <- a.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Join(err, a.close())
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(a.httpServer.Shutdown(shutdownCtx), a.close())
}

func (a *App) close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}
