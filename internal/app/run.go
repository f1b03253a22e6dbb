package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/taladar/sl-map-tools/pkg/config"
	"github.com/taladar/sl-map-tools/pkg/logger"
	"github.com/taladar/sl-map-tools/pkg/telemetry"
)

// Run wires the process together and executes either the HTTP API or a
// single render job.
func Run(cfg *config.Config, serve bool, job *Job) {
	l := logger.NewZapLogger(cfg.Logger.Level)
	defer l.Sync()

	l.Info("starting sl-map-tools", "config", cfg)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	components, err := BuildComponents(cfg, l)
	if err != nil {
		l.Fatal("failed to build components", "error", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			l.Error("failed to close cache store", "error", err)
		}
	}()

	if serve {
		if err := Serve(cfg, l, components); err != nil {
			l.Fatal("http server failed", "error", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := RunJob(ctx, components.Renderer, *job); err != nil {
		l.Fatal("render failed", "error", err)
	}
}
