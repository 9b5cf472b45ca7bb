package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dlopezav/recibos/internal/core/domain"
)

func TestUploadStoresPersistsAndPublishes(t *testing.T) {
	repo := newFakeReceiptRepo()
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestReceiptUseCase(repo, storage, queue, slog.Default())

	receipt, err := uc.Upload(context.Background(), "lunch.jpg", "image/jpeg", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if receipt.Status != domain.StatusUploaded {
		t.Fatalf("expected uploaded status, got %q", receipt.Status)
	}
	if !strings.HasSuffix(receipt.StoragePath, ".jpg") {
		t.Fatalf("storage path must carry the mime extension, got %q", receipt.StoragePath)
	}
	if _, ok := storage.files[receipt.StoragePath]; !ok {
		t.Fatalf("file not stored under %q", receipt.StoragePath)
	}
	if _, err := repo.GetByID(context.Background(), receipt.ID); err != nil {
		t.Fatalf("receipt row not created: %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != receipt.ID {
		t.Fatalf("expected one published event for %s, got %v", receipt.ID, queue.published)
	}
}

func TestUploadRejectsUnsupportedMime(t *testing.T) {
	uc := NewIngestReceiptUseCase(newFakeReceiptRepo(), newFakeStorage(), &fakeQueue{}, slog.Default())

	_, err := uc.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("hi"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadPublishFailureIsTemporary(t *testing.T) {
	repo := newFakeReceiptRepo()
	queue := &fakeQueue{publishErr: errors.New("nats down")}
	uc := NewIngestReceiptUseCase(repo, newFakeStorage(), queue, slog.Default())

	_, err := uc.Upload(context.Background(), "lunch.jpg", "image/jpeg", strings.NewReader("jpeg bytes"))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestUploadStorageFailureStopsEarly(t *testing.T) {
	repo := newFakeReceiptRepo()
	storage := newFakeStorage()
	storage.saveErr = errors.New("disk full")
	queue := &fakeQueue{}
	uc := NewIngestReceiptUseCase(repo, storage, queue, slog.Default())

	if _, err := uc.Upload(context.Background(), "lunch.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatalf("expected storage error")
	}
	if len(repo.receipts) != 0 {
		t.Fatalf("no receipt row must exist after storage failure")
	}
	if len(queue.published) != 0 {
		t.Fatalf("nothing must be published after storage failure")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "lunch.jpg", want: "lunch.jpg"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\Users\me\receipt.png`, want: "receipt.png"},
		{in: "", want: "receipt"},
		{in: ".", want: "receipt"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
