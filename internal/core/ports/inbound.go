package ports

import (
	"context"
	"io"

	"github.com/dlopezav/recibos/internal/core/domain"
)

// ReceiptIngestor is the inbound contract for receipt upload orchestration.
type ReceiptIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Receipt, error)
}

// ReceiptProcessor is the inbound contract for asynchronous extraction.
type ReceiptProcessor interface {
	ProcessByID(ctx context.Context, receiptID string) error
}

// ReceiptReader is the inbound read model for receipt metadata/state.
type ReceiptReader interface {
	GetByID(ctx context.Context, id string) (*domain.Receipt, error)
}

// TextExtraction runs preprocessing and recognition over one upload.
type TextExtraction interface {
	ExtractText(ctx context.Context, image domain.RawImage) (string, error)
}
