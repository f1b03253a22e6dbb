package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	v1 "github.com/taladar/sl-map-tools/internal/infrastructure/http/v1"
	"github.com/taladar/sl-map-tools/internal/infrastructure/http/v1/handler"
	"github.com/taladar/sl-map-tools/pkg/config"
	"github.com/taladar/sl-map-tools/pkg/logger"
)

// Serve runs the HTTP API until SIGINT or SIGTERM, then drains in-flight
// requests before returning.
func Serve(cfg *config.Config, l logger.Logger, c *Components) error {
	validate := validator.New()
	h := handler.NewHandler(c.Renderer, c.Resolver, validate)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.Server.ReadTimeout,
		WriteTimeout: cfg.HTTP.Server.WriteTimeout,
		IdleTimeout:  cfg.HTTP.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		l.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	l.Info("server stopped")
	return nil
}
