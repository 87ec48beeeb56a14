package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/solvify/docpipe/internal/bootstrap"
	"github.com/solvify/docpipe/internal/config"
	"github.com/solvify/docpipe/internal/observability/logging"
)

const jobTimeout = 5 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", app.WorkerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		logger.Info("worker metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	handler := func(msgCtx context.Context, jobID string) error {
		runCtx, cancel := context.WithTimeout(msgCtx, jobTimeout)
		defer cancel()

		app.WorkerMetrics.StartJob()
		started := time.Now()
		err := app.Process.Run(runCtx, jobID)
		app.WorkerMetrics.FinishJob("worker", time.Since(started), err)
		if err != nil {
			logger.Error("job failed", "job_id", jobID, "error", err)
			return err
		}
		logger.Info("job finished", "job_id", jobID, "duration", time.Since(started))
		return nil
	}

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	if err := app.Queue.SubscribeJobSubmitted(ctx, handler); err != nil {
		logger.Error("subscription failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info("worker stopped")
}
