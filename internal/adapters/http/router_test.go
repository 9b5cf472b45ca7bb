package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dlopezav/recibos/internal/core/domain"
)

type fakeIngestor struct {
	receipt *domain.Receipt
	err     error
	gotMime string
	gotName string
}

func (f *fakeIngestor) Upload(_ context.Context, filename, mimeType string, _ io.Reader) (*domain.Receipt, error) {
	f.gotName = filename
	f.gotMime = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeReader struct {
	receipt *domain.Receipt
	err     error
}

func (f *fakeReader) GetByID(context.Context, string) (*domain.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeTxService struct {
	created    *domain.Transaction
	list       []domain.Transaction
	summary    domain.Summary
	err        error
	lastFilter domain.TransactionFilter
	deleted    []string
}

func (f *fakeTxService) Create(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = tx
	out := *tx
	out.ID = "t-1"
	return &out, nil
}

func (f *fakeTxService) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.list {
		if f.list[i].ID == id {
			return &f.list[i], nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (f *fakeTxService) List(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeTxService) Update(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return tx, nil
}

func (f *fakeTxService) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTxService) Summary(_ context.Context, filter domain.TransactionFilter) (domain.Summary, error) {
	f.lastFilter = filter
	if f.err != nil {
		return domain.Summary{}, f.err
	}
	return f.summary, nil
}

type fakeExporter struct {
	err error
}

func (f *fakeExporter) Export(w io.Writer, _ []domain.Transaction) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("xlsx-bytes"))
	return err
}

func multipartBody(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func newTestRouter(ingest *fakeIngestor, reader *fakeReader, txs *fakeTxService, exporter TransactionExporter) http.Handler {
	if ingest == nil {
		ingest = &fakeIngestor{}
	}
	if reader == nil {
		reader = &fakeReader{}
	}
	if txs == nil {
		txs = &fakeTxService{}
	}
	return NewRouter(ingest, reader, txs, exporter, RouterConfig{MaxUploadBytes: 1 << 20}).Handler()
}

func TestUploadReceiptAccepted(t *testing.T) {
	ingest := &fakeIngestor{receipt: &domain.Receipt{ID: "r-1", Status: domain.StatusUploaded}}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartBody(t, "file", "lunch.jpg", "image/jpeg", "jpeg bytes")
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.gotMime != "image/jpeg" || ingest.gotName != "lunch.jpg" {
		t.Fatalf("upload metadata lost: %q %q", ingest.gotName, ingest.gotMime)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	var receipt domain.Receipt
	if err := json.NewDecoder(res.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if receipt.ID != "r-1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestUploadReceiptMissingFile(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadReceiptUnsupportedMimeMapsTo400(t *testing.T) {
	ingest := &fakeIngestor{err: domain.WrapError(domain.ErrInvalidInput, "upload receipt", errors.New("unsupported content type"))}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartBody(t, "file", "notes.txt", "text/plain", "hello")
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadReceiptTooLarge(t *testing.T) {
	ingest := &fakeIngestor{receipt: &domain.Receipt{ID: "r-1"}}
	handler := NewRouter(ingest, &fakeReader{}, &fakeTxService{}, nil, RouterConfig{MaxUploadBytes: 64}).Handler()

	body, contentType := multipartBody(t, "file", "big.jpg", "image/jpeg", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestGetReceiptNotFound(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrReceiptNotFound, "get receipt", errors.New("id missing"))}
	handler := newTestRouter(nil, reader, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/receipts/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetReceiptBusyWorkerMapsTo409(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrWorkerBusy, "recognize", errors.New("in flight"))}
	handler := newTestRouter(nil, reader, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/receipts/r-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestCreateTransaction(t *testing.T) {
	txs := &fakeTxService{}
	handler := newTestRouter(nil, nil, txs, nil)

	payload := `{"type":"expense","amount":45.2,"description":"Compra","category":"MONEY_OUT","date":"2024-03-15"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if txs.created == nil || txs.created.Category != domain.CategoryMoneyOut {
		t.Fatalf("transaction not passed through: %+v", txs.created)
	}
	if !txs.created.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date not parsed: %v", txs.created.Date)
	}
}

func TestCreateTransactionBadDate(t *testing.T) {
	handler := newTestRouter(nil, nil, &fakeTxService{}, nil)

	payload := `{"type":"expense","amount":1,"description":"x","category":"MONEY_OUT","date":"last tuesday"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader(payload))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListTransactionsParsesFilter(t *testing.T) {
	txs := &fakeTxService{list: []domain.Transaction{{ID: "t-1"}}}
	handler := newTestRouter(nil, nil, txs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions?type=expense&category=MONEY_OUT&search=super&start_date=2024-03-01&end_date=2024-03-31&limit=10&offset=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	filter := txs.lastFilter
	if filter.Type != domain.TypeExpense || filter.Category != domain.CategoryMoneyOut || filter.Search != "super" {
		t.Fatalf("filter not parsed: %+v", filter)
	}
	if filter.StartDate == nil || filter.EndDate == nil {
		t.Fatalf("date range not parsed")
	}
	if !filter.EndDate.After(*filter.StartDate) {
		t.Fatalf("end date must include the whole day")
	}
	if filter.Limit != 10 || filter.Offset != 5 {
		t.Fatalf("pagination not parsed: %+v", filter)
	}
}

func TestDeleteTransaction(t *testing.T) {
	txs := &fakeTxService{}
	handler := newTestRouter(nil, nil, txs, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/transactions/t-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if len(txs.deleted) != 1 || txs.deleted[0] != "t-1" {
		t.Fatalf("delete not forwarded: %v", txs.deleted)
	}
}

func TestTransactionSummaryEndpoint(t *testing.T) {
	txs := &fakeTxService{summary: domain.Summary{TotalIncome: 500, TotalExpenses: 120.5, Balance: 379.5, Count: 3}}
	handler := newTestRouter(nil, nil, txs, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/summary", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var summary domain.Summary
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Balance != 379.5 || summary.Count != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTransactionExportSetsDownloadHeaders(t *testing.T) {
	txs := &fakeTxService{list: []domain.Transaction{{ID: "t-1"}}}
	handler := newTestRouter(nil, nil, txs, &fakeExporter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/export", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type: %q", got)
	}
	if got := res.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
	if res.Body.String() != "xlsx-bytes" {
		t.Fatalf("unexpected body: %q", res.Body.String())
	}
}

func TestTransactionExportFailureMapsToError(t *testing.T) {
	handler := newTestRouter(nil, nil, &fakeTxService{}, &fakeExporter{err: errors.New("render failed")})

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/export", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("failed export must not send download headers")
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}
