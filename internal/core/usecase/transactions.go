package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// TransactionUseCase validates and persists confirmed transactions. Records
// arrive either from manual entry or from a reviewed receipt extraction.
type TransactionUseCase struct {
	transactions ports.TransactionRepository
	now          func() time.Time
}

func NewTransactionUseCase(transactions ports.TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{transactions: transactions, now: time.Now}
}

func (uc *TransactionUseCase) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	record := *tx
	record.ID = uuid.NewString()
	record.Description = strings.TrimSpace(record.Description)
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Date.IsZero() {
		record.Date = now
	}

	if err := uc.transactions.Create(ctx, &record); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return &record, nil
}

func (uc *TransactionUseCase) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get transaction", errors.New("empty id"))
	}
	return uc.transactions.GetByID(ctx, id)
}

func (uc *TransactionUseCase) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	normalizeFilter(&filter)
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return uc.transactions.List(ctx, filter)
}

func (uc *TransactionUseCase) Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update transaction", errors.New("empty id"))
	}
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	existing, err := uc.transactions.GetByID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}

	record := *tx
	record.Description = strings.TrimSpace(record.Description)
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = uc.now().UTC()
	if record.Date.IsZero() {
		record.Date = existing.Date
	}

	if err := uc.transactions.Update(ctx, &record); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return &record, nil
}

func (uc *TransactionUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete transaction", errors.New("empty id"))
	}
	return uc.transactions.Delete(ctx, id)
}

func (uc *TransactionUseCase) Summary(ctx context.Context, filter domain.TransactionFilter) (domain.Summary, error) {
	normalizeFilter(&filter)
	if err := validateFilter(filter); err != nil {
		return domain.Summary{}, err
	}
	return uc.transactions.Summary(ctx, filter)
}

func validateTransaction(tx *domain.Transaction) error {
	if tx == nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", errors.New("nil transaction"))
	}
	if tx.Type != domain.TypeIncome && tx.Type != domain.TypeExpense {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", fmt.Errorf("unknown type %q", tx.Type))
	}
	if tx.Amount <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", fmt.Errorf("amount must be positive, got %v", tx.Amount))
	}
	if !tx.Category.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", fmt.Errorf("unknown category %q", tx.Category))
	}
	if strings.TrimSpace(tx.Description) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", errors.New("empty description"))
	}
	if tx.Confidence != nil && (*tx.Confidence < 0 || *tx.Confidence > 1) {
		return domain.WrapError(domain.ErrInvalidInput, "validate transaction", fmt.Errorf("confidence out of range: %v", *tx.Confidence))
	}
	return nil
}

func normalizeFilter(filter *domain.TransactionFilter) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)
}

func validateFilter(filter domain.TransactionFilter) error {
	if filter.Type != "" && filter.Type != domain.TypeIncome && filter.Type != domain.TypeExpense {
		return domain.WrapError(domain.ErrInvalidInput, "list transactions", fmt.Errorf("unknown type %q", filter.Type))
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "list transactions", fmt.Errorf("unknown category %q", filter.Category))
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return domain.WrapError(domain.ErrInvalidInput, "list transactions", errors.New("end date before start date"))
	}
	return nil
}
