package ports

import (
	"context"
	"io"

	"github.com/dlopezav/recibos/internal/core/domain"
)

// ReceiptRepository persists and reads receipt state.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	GetByID(ctx context.Context, id string) (*domain.Receipt, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReceiptStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, data domain.ExtractedData, aiAvailable bool) error
}

// TransactionRepository persists confirmed transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, filter domain.TransactionFilter) (domain.Summary, error)
}

// ObjectStorage stores uploaded receipt files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes receipt-uploaded events.
type MessageQueue interface {
	PublishReceiptUploaded(ctx context.Context, receiptID string) error
	SubscribeReceiptUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// ImagePreprocessor normalizes an arbitrary input image for recognition.
type ImagePreprocessor interface {
	Preprocess(raw []byte) ([]byte, error)
}

// TextRecognizer owns the one recognition engine instance. Recognize is
// single-flight: a call while another is in flight fails with ErrWorkerBusy.
type TextRecognizer interface {
	EnsureReady(forceRecreate bool) error
	Recognize(ctx context.Context, image []byte) (string, error)
	Shutdown()
}

// PDFTextExtractor pulls the embedded text layer out of a single-page PDF.
type PDFTextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// TransactionClassifier turns recognized text into a candidate transaction.
type TransactionClassifier interface {
	Classify(ctx context.Context, rawText string) (domain.ExtractedData, error)
}
