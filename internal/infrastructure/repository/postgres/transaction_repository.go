package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dlopezav/recibos/internal/core/domain"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, type, amount, description, category, date, receipt_id, confidence, reconciled, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO transactions (
	id, type, amount, description, category, date, receipt_id, confidence, reconciled, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		tx.ID, string(tx.Type), tx.Amount, tx.Description, string(tx.Category),
		tx.Date, tx.ReceiptID, tx.Confidence, tx.Reconciled, tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+transactionColumns+`
FROM transactions
WHERE id = $1
`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTransactionNotFound, "get transaction", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where, args := buildFilter(filter)

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY date DESC, created_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE transactions
SET type = $2, amount = $3, description = $4, category = $5, date = $6, receipt_id = $7, confidence = $8, reconciled = $9, updated_at = $10
WHERE id = $1
`,
		tx.ID, string(tx.Type), tx.Amount, tx.Description, string(tx.Category),
		tx.Date, tx.ReceiptID, tx.Confidence, tx.Reconciled, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return notFoundOnZeroRows(result, domain.ErrTransactionNotFound, "update transaction")
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return notFoundOnZeroRows(result, domain.ErrTransactionNotFound, "delete transaction")
}

func (r *TransactionRepository) Summary(ctx context.Context, filter domain.TransactionFilter) (domain.Summary, error) {
	where, args := buildFilter(filter)

	row := r.db.QueryRowContext(ctx, `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
	COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0),
	COUNT(*)
FROM transactions`+where, args...)

	var summary domain.Summary
	if err := row.Scan(&summary.TotalIncome, &summary.TotalExpenses, &summary.Count); err != nil {
		return domain.Summary{}, fmt.Errorf("scan summary: %w", err)
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpenses
	return summary, nil
}

// buildFilter renders the WHERE clause for List and Summary so both always
// agree on what a filter means.
func buildFilter(filter domain.TransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}

	if filter.Type != "" {
		add("type = ?", string(filter.Type))
	}
	if filter.Category != "" {
		add("category = ?", string(filter.Category))
	}
	if filter.Search != "" {
		add("description ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		add("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("date <= ?", *filter.EndDate)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var txType, category string

	err := row.Scan(
		&tx.ID, &txType, &tx.Amount, &tx.Description, &category,
		&tx.Date, &tx.ReceiptID, &tx.Confidence, &tx.Reconciled, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Type = domain.TransactionType(txType)
	tx.Category = domain.Category(category)
	return &tx, nil
}
