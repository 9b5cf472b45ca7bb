package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dlopezav/recibos/internal/config"
	"github.com/dlopezav/recibos/internal/core/category"
	"github.com/dlopezav/recibos/internal/core/ports"
	"github.com/dlopezav/recibos/internal/core/usecase"
	"github.com/dlopezav/recibos/internal/infrastructure/extractor/pdftext"
	"github.com/dlopezav/recibos/internal/infrastructure/llm/openai"
	"github.com/dlopezav/recibos/internal/infrastructure/ocr/tesseract"
	"github.com/dlopezav/recibos/internal/infrastructure/preprocess"
	"github.com/dlopezav/recibos/internal/infrastructure/queue/nats"
	"github.com/dlopezav/recibos/internal/infrastructure/repository/postgres"
	"github.com/dlopezav/recibos/internal/infrastructure/resilience"
	"github.com/dlopezav/recibos/internal/infrastructure/storage/localfs"
	"github.com/dlopezav/recibos/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue      ports.MessageQueue
	Receipts   ports.ReceiptRepository
	Recognizer ports.TextRecognizer

	IngestUC  ports.ReceiptIngestor
	ProcessUC ports.ReceiptProcessor
	QueryUC   ports.ReceiptReader
	TxUC      *usecase.TransactionUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	receipts := postgres.NewReceiptRepository(db)
	if err := receipts.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	transactions := postgres.NewTransactionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	preprocessor := preprocess.New(cfg.PreprocessContrast, cfg.PreprocessThreshold)
	engineFactory := tesseract.NewEngineFactory(cfg.OCRLanguages, cfg.OCRTessdataDir)
	recognizer := tesseract.NewManager(engineFactory, cfg.OCRIdleTimeout, logger)
	pdfExtractor := pdftext.New()

	resolver := category.NewResolver(cfg.IncomeKeywords)

	var classifier ports.TransactionClassifier
	if cfg.AIEnabled() {
		// BreakerEnabled stays false here: an open circuit would cut the
		// classifier's fixed attempt budget short and skip the fallback
		// accounting in the process use case.
		executor := resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    cfg.ClassifierMaxAttempts,
			RetryInitialBackoff: cfg.ClassifierInitialBackoff,
			RetryMultiplier:     2.0,
		})
		client := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		classifier = openai.NewClassifier(client, executor, resolver)
	} else {
		logger.Warn("classifier_disabled", "reason", "missing OPENAI_API_KEY, using keyword fallback")
	}

	extractUC := usecase.NewExtractTextUseCase(preprocessor, recognizer, pdfExtractor, logger)
	ingestUC := usecase.NewIngestReceiptUseCase(receipts, storage, queue, logger)
	processUC := usecase.NewProcessReceiptUseCase(receipts, storage, extractUC, classifier, resolver, logger)
	queryUC := usecase.NewReceiptQueryUseCase(receipts)
	txUC := usecase.NewTransactionUseCase(transactions)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:      queue,
		Receipts:   receipts,
		Recognizer: recognizer,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		TxUC:      txUC,

		closeFn: func() {
			recognizer.Shutdown()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
