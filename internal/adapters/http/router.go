package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
	"github.com/dlopezav/recibos/internal/observability/metrics"
)

// TransactionService is the slice of the transaction use case the API needs.
type TransactionService interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, filter domain.TransactionFilter) (domain.Summary, error)
}

// TransactionExporter renders transactions as a spreadsheet download.
type TransactionExporter interface {
	Export(w io.Writer, transactions []domain.Transaction) error
}

type RouterConfig struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	// UploadMaxInFlight caps concurrent uploads; zero disables the gate.
	UploadMaxInFlight int
	UploadQueueWait   time.Duration

	ServiceName string
	Metrics     *metrics.HTTPServerMetrics
}

type Router struct {
	ingest       ports.ReceiptIngestor
	receipts     ports.ReceiptReader
	transactions TransactionService
	exporter     TransactionExporter
	cfg          RouterConfig
}

func NewRouter(
	ingest ports.ReceiptIngestor,
	receipts ports.ReceiptReader,
	transactions TransactionService,
	exporter TransactionExporter,
	cfg RouterConfig,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Router{
		ingest:       ingest,
		receipts:     receipts,
		transactions: transactions,
		exporter:     exporter,
		cfg:          cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	uploadWait := rt.cfg.UploadQueueWait
	if uploadWait <= 0 {
		uploadWait = 2 * time.Second
	}
	upload := backpressureMiddleware(http.HandlerFunc(rt.uploadReceipt), rt.cfg.UploadMaxInFlight, uploadWait)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/v1/receipts", upload)
	mux.HandleFunc("/v1/receipts/", rt.receiptByID)
	mux.HandleFunc("/v1/transactions", rt.transactionCollection)
	mux.HandleFunc("/v1/transactions/summary", rt.transactionSummary)
	mux.HandleFunc("/v1/transactions/export", rt.transactionExport)
	mux.HandleFunc("/v1/transactions/", rt.transactionByID)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.cfg.Metrics != nil {
		handler = rt.cfg.Metrics.Middleware(rt.cfg.ServiceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("upload exceeds %d bytes", maxBytesErr.Limit),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	receipt, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.cfg.Metrics != nil {
		rt.cfg.Metrics.RecordUpload(rt.cfg.ServiceName, receipt.MimeType, fileHeader.Size)
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (rt *Router) receiptByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/receipts/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "receipt id is required"})
		return
	}

	receipt, err := rt.receipts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (rt *Router) transactionCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createTransaction(w, r)
	case http.MethodGet:
		rt.listTransactions(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

type transactionRequest struct {
	Type        string   `json:"type"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	ReceiptID   string   `json:"receipt_id"`
	Confidence  *float64 `json:"confidence"`
	Reconciled  bool     `json:"reconciled"`
}

func (req transactionRequest) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		Type:        domain.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		Category:    domain.Category(req.Category),
		ReceiptID:   req.ReceiptID,
		Confidence:  req.Confidence,
		Reconciled:  req.Reconciled,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		tx.Date = date
	}
	return tx, nil
}

func (rt *Router) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	tx, err := req.toDomain()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := rt.transactions.Create(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	list, err := rt.transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
}

func (rt *Router) transactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transaction id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, err := rt.transactions.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	case http.MethodPut:
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		tx, err := req.toDomain()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		tx.ID = id
		updated, err := rt.transactions.Update(r.Context(), tx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := rt.transactions.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) transactionSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := rt.transactions.Summary(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) transactionExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "export is not configured"})
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	list, err := rt.transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	// Render into memory first so a mid-render failure can still produce a
	// clean error response instead of a truncated file.
	var buf bytes.Buffer
	if err := rt.exporter.Export(&buf, list); err != nil {
		writeError(w, err)
		return
	}

	filename := "transactions-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func parseFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()
	filter := domain.TransactionFilter{
		Type:     domain.TransactionType(q.Get("type")),
		Category: domain.Category(q.Get("category")),
		Search:   q.Get("search"),
	}

	if raw := q.Get("start_date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return domain.TransactionFilter{}, err
		}
		filter.StartDate = &date
	}
	if raw := q.Get("end_date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return domain.TransactionFilter{}, err
		}
		// Inclusive end of day.
		end := date.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return domain.TransactionFilter{}, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return domain.TransactionFilter{}, fmt.Errorf("invalid offset %q", raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if date, err := time.Parse("2006-01-02", raw); err == nil {
		return date.UTC(), nil
	}
	if date, err := time.Parse(time.RFC3339, raw); err == nil {
		return date.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
