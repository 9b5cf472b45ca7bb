package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dlopezav/recibos/internal/adapters/export/excel"
	httpadapter "github.com/dlopezav/recibos/internal/adapters/http"
	"github.com/dlopezav/recibos/internal/bootstrap"
	"github.com/dlopezav/recibos/internal/config"
	"github.com/dlopezav/recibos/internal/observability/metrics"
)

const serviceName = "recibos-api"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(app.IngestUC, app.QueryUC, app.TxUC, excel.New(), httpadapter.RouterConfig{
		MaxUploadBytes:    int64(cfg.MaxUploadSizeMB) << 20,
		RateLimitRPS:      cfg.APIRateLimitRPS,
		RateLimitBurst:    cfg.APIRateLimitBurst,
		UploadMaxInFlight: cfg.UploadMaxInFlight,
		UploadQueueWait:   cfg.UploadQueueWait,
		ServiceName:       serviceName,
		Metrics:           httpMetrics,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		app.Logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("api_shutdown_error", "error", err)
	}
}
