package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/dkozyrev/reg-radar/internal/adapters/http"
	"github.com/dkozyrev/reg-radar/internal/bootstrap"
	"github.com/dkozyrev/reg-radar/internal/config"
	"github.com/dkozyrev/reg-radar/internal/observability/logging"
	"github.com/dkozyrev/reg-radar/internal/observability/metrics"
)

const serviceName = "reg-radar-api"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	handler := httpadapter.NewRouter(
		app.Gateway,
		app.Classifier,
		app.Analyzer,
		app.Generator,
		app.Ranker,
		app.Documents,
		app.Classifications,
		app.Analyses,
		app.Tasks,
	).WithMetrics(serverMetrics, serviceName).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
