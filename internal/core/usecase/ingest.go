package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
)

var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// IngestReceiptUseCase accepts an upload, persists the file and the receipt
// row, and hands the receipt id to the queue for asynchronous extraction.
type IngestReceiptUseCase struct {
	receipts ports.ReceiptRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	logger   *slog.Logger
	now      func() time.Time
}

func NewIngestReceiptUseCase(
	receipts ports.ReceiptRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *IngestReceiptUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestReceiptUseCase{
		receipts: receipts,
		storage:  storage,
		queue:    queue,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *IngestReceiptUseCase) Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Receipt, error) {
	ext, ok := allowedMimeTypes[mimeType]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload receipt", fmt.Errorf("unsupported content type %q", mimeType))
	}

	id := uuid.NewString()
	storagePath := id + ext

	if err := uc.storage.Save(ctx, storagePath, body); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	now := uc.now().UTC()
	receipt := &domain.Receipt{
		ID:          id,
		Filename:    sanitizeFilename(filename),
		MimeType:    mimeType,
		StoragePath: storagePath,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.receipts.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}

	if err := uc.queue.PublishReceiptUploaded(ctx, id); err != nil {
		// The row and the file are already in place; the client can retry
		// and the stuck receipt stays visible as "uploaded".
		uc.logger.Error("receipt_publish_failed", "receipt_id", id, "error", err)
		return nil, domain.WrapError(domain.ErrTemporary, "enqueue receipt", err)
	}

	uc.logger.Info("receipt_uploaded", "receipt_id", id, "mime_type", mimeType)
	return receipt, nil
}

// sanitizeFilename keeps only the base name of the client-supplied filename
// and bounds its length. The stored file never uses this name as its key.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "receipt"
	}
	if runes := []rune(base); len(runes) > 255 {
		base = string(runes[:255])
	}
	return base
}
