package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/dlopezav/recibos/internal/core/domain"
)

type fakeReceiptRepo struct {
	mu          sync.Mutex
	receipts    map[string]*domain.Receipt
	createErr   error
	statusErr   error
	saveErr     error
	statusCalls []domain.ReceiptStatus
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: map[string]*domain.Receipt{}}
}

func (f *fakeReceiptRepo) Create(_ context.Context, receipt *domain.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	clone := *receipt
	f.receipts[receipt.ID] = &clone
	return nil
}

func (f *fakeReceiptRepo) GetByID(_ context.Context, id string) (*domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, ok := f.receipts[id]
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	clone := *receipt
	return &clone, nil
}

func (f *fakeReceiptRepo) UpdateStatus(_ context.Context, id string, status domain.ReceiptStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, status)
	if receipt, ok := f.receipts[id]; ok {
		receipt.Status = status
		receipt.Error = errMessage
	}
	return nil
}

func (f *fakeReceiptRepo) SaveExtraction(_ context.Context, id string, data domain.ExtractedData, aiAvailable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if receipt, ok := f.receipts[id]; ok {
		receipt.Extraction = &data
		receipt.AIAvailable = aiAvailable
	}
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	openErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.files[key] = content
	f.mu.Unlock()
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	content, ok := f.files[key]
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []string
	publishErr error
}

func (f *fakeQueue) PublishReceiptUploaded(_ context.Context, receiptID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	f.published = append(f.published, receiptID)
	f.mu.Unlock()
	return nil
}

func (f *fakeQueue) SubscribeReceiptUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeClassifier struct {
	data  domain.ExtractedData
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, rawText string) (domain.ExtractedData, error) {
	f.calls++
	if f.err != nil {
		return domain.ExtractedData{}, f.err
	}
	data := f.data
	data.RawText = rawText
	return data, nil
}

type fakeExtraction struct {
	text  string
	err   error
	calls int
	last  domain.RawImage
}

func (f *fakeExtraction) ExtractText(_ context.Context, image domain.RawImage) (string, error) {
	f.calls++
	f.last = image
	return f.text, f.err
}
