package pdftext

import (
	"context"
	"testing"

	"github.com/dlopezav/recibos/internal/core/domain"
)

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("not a pdf at all"))
	if err == nil {
		t.Fatalf("expected error for non-PDF input")
	}
	if !domain.IsKind(err, domain.ErrPreprocessing) {
		t.Fatalf("expected ErrPreprocessing, got %v", err)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, []byte("%PDF-1.4"))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
