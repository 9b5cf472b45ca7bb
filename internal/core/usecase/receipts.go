package usecase

import (
	"context"
	"errors"

	"github.com/dlopezav/recibos/internal/core/domain"
	"github.com/dlopezav/recibos/internal/core/ports"
)

// ReceiptQueryUseCase is the read model for receipt state polling.
type ReceiptQueryUseCase struct {
	receipts ports.ReceiptRepository
}

func NewReceiptQueryUseCase(receipts ports.ReceiptRepository) *ReceiptQueryUseCase {
	return &ReceiptQueryUseCase{receipts: receipts}
}

func (uc *ReceiptQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Receipt, error) {
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get receipt", errors.New("empty id"))
	}
	return uc.receipts.GetByID(ctx, id)
}
