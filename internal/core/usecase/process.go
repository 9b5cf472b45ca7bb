package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dlopezav/recibos/internal/core/category"
	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
)

// ProcessReceiptUseCase drives one receipt through the full pipeline:
// load, extract text, classify (with keyword fallback), persist the result.
// A nil classifier means AI is disabled and every receipt takes the fallback.
type ProcessReceiptUseCase struct {
	receipts   ports.ReceiptRepository
	storage    ports.ObjectStorage
	extraction ports.TextExtraction
	classifier ports.TransactionClassifier
	resolver   *category.Resolver
	logger     *slog.Logger
}

func NewProcessReceiptUseCase(
	receipts ports.ReceiptRepository,
	storage ports.ObjectStorage,
	extraction ports.TextExtraction,
	classifier ports.TransactionClassifier,
	resolver *category.Resolver,
	logger *slog.Logger,
) *ProcessReceiptUseCase {
	if resolver == nil {
		resolver = category.NewResolver(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessReceiptUseCase{
		receipts:   receipts,
		storage:    storage,
		extraction: extraction,
		classifier: classifier,
		resolver:   resolver,
		logger:     logger,
	}
}

func (uc *ProcessReceiptUseCase) ProcessByID(ctx context.Context, receiptID string) error {
	receipt, err := uc.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", receiptID, err)
	}

	if err := uc.receipts.UpdateStatus(ctx, receiptID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	data, aiUsed, err := uc.run(ctx, receipt)
	if err != nil {
		// ctx may already be dead (per-receipt timeout, shutdown); the
		// status write must still land or the row stays stuck in
		// "processing" with nothing left to retry it.
		persistCtx := context.WithoutCancel(ctx)
		if transient(err) {
			// Leave the row retryable instead of burying a busy worker
			// or a network blip as a permanent failure.
			if statusErr := uc.receipts.UpdateStatus(persistCtx, receiptID, domain.StatusUploaded, ""); statusErr != nil {
				uc.logger.Error("receipt_status_revert_failed", "receipt_id", receiptID, "error", statusErr)
			}
			return err
		}
		if statusErr := uc.receipts.UpdateStatus(persistCtx, receiptID, domain.StatusFailed, err.Error()); statusErr != nil {
			uc.logger.Error("receipt_status_update_failed", "receipt_id", receiptID, "error", statusErr)
		}
		uc.logger.Warn("receipt_processing_failed", "receipt_id", receiptID, "error", err)
		return err
	}

	if err := uc.receipts.SaveExtraction(ctx, receiptID, data, aiUsed); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	if err := uc.receipts.UpdateStatus(ctx, receiptID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}

	uc.logger.Info("receipt_processed",
		"receipt_id", receiptID,
		"category", string(data.Category),
		"confidence", data.Confidence,
		"ai_used", aiUsed,
	)
	return nil
}

func (uc *ProcessReceiptUseCase) run(ctx context.Context, receipt *domain.Receipt) (domain.ExtractedData, bool, error) {
	file, err := uc.storage.Open(ctx, receipt.StoragePath)
	if err != nil {
		return domain.ExtractedData{}, false, fmt.Errorf("open stored file: %w", err)
	}
	raw, err := io.ReadAll(file)
	closeErr := file.Close()
	if err != nil {
		return domain.ExtractedData{}, false, fmt.Errorf("read stored file: %w", err)
	}
	if closeErr != nil {
		uc.logger.Warn("stored_file_close_failed", "receipt_id", receipt.ID, "error", closeErr)
	}

	text, err := uc.extraction.ExtractText(ctx, domain.RawImage{Data: raw, MimeType: receipt.MimeType})
	if err != nil {
		return domain.ExtractedData{}, false, err
	}

	return uc.classify(ctx, receipt.ID, text)
}

// classify asks the remote classifier when one is configured and degrades to
// the keyword fallback when it is absent, unreachable or talking nonsense.
// Only caller-driven cancellation aborts the receipt.
func (uc *ProcessReceiptUseCase) classify(ctx context.Context, receiptID, text string) (domain.ExtractedData, bool, error) {
	if uc.classifier == nil {
		return FallbackExtraction(text, uc.resolver), false, nil
	}

	data, err := uc.classifier.Classify(ctx, text)
	if err == nil {
		return data, true, nil
	}
	if ctx.Err() != nil {
		return domain.ExtractedData{}, false, ctx.Err()
	}
	if domain.IsKind(err, domain.ErrClassifierUnavailable) || domain.IsKind(err, domain.ErrValidation) {
		uc.logger.Warn("classifier_degraded", "receipt_id", receiptID, "error", err)
		return FallbackExtraction(text, uc.resolver), false, nil
	}
	return domain.ExtractedData{}, false, err
}

// transient errors leave the receipt in "uploaded" so a redelivery can retry
// it; everything else is a terminal failure for this receipt.
func transient(err error) bool {
	return domain.IsKind(err, domain.ErrWorkerBusy) ||
		domain.IsKind(err, domain.ErrTemporary) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
