package domain

import "time"

// Category is one of exactly two canonical tokens for money direction.
// Richer labels the classifier may produce internally are always collapsed
// to one of these before leaving the pipeline.
type Category string

const (
	CategoryMoneyIn  Category = "MONEY_IN"
	CategoryMoneyOut Category = "MONEY_OUT"
)

func (c Category) Valid() bool {
	return c == CategoryMoneyIn || c == CategoryMoneyOut
}

// ExtractedData is the candidate transaction produced by one pipeline run.
// Created once, handed to the caller, never mutated afterward.
// Amount and Date are nil when the classifier could not determine them;
// nil means unset, never zero or empty string.
type ExtractedData struct {
	Amount      *float64 `json:"amount,omitempty"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Date        *string  `json:"date,omitempty"`
	Vendor      string   `json:"vendor"`
	Confidence  float64  `json:"confidence"`
	RawText     string   `json:"raw_text"`
}

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Date        time.Time       `json:"date"`
	ReceiptID   string          `json:"receipt_id,omitempty"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Reconciled  bool            `json:"reconciled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type TransactionFilter struct {
	Type      TransactionType
	Category  Category
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type Summary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
	Count         int     `json:"count"`
}
