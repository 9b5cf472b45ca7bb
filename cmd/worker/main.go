package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dlopezav/recibos/internal/bootstrap"
	"github.com/dlopezav/recibos/internal/config"
	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/observability/metrics"
)

const serviceName = "recibos-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		app.Logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Warm the recognition engine so the first receipt does not pay the
	// engine startup cost.
	if err := app.Recognizer.EnsureReady(false); err != nil {
		app.Logger.Warn("recognition_engine_warmup_failed", "error", err)
	}

	processTimeout := time.Duration(cfg.ProcessTimeoutSeconds) * time.Second

	app.Logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReceiptUploaded(ctx, func(handlerCtx context.Context, receiptID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		if receipt, err := app.Receipts.GetByID(processCtx, receiptID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(receipt.CreatedAt))
		}

		workerMetrics.StartReceipt()
		start := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, receiptID)
		workerMetrics.FinishReceipt(serviceName, time.Since(start), err)

		if domain.IsKind(err, domain.ErrWorkerBusy) {
			workerMetrics.RecordBusyRejection(serviceName)
		}
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
