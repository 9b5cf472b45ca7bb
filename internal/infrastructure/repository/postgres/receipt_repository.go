package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dlopezav/recibos/internal/core/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ReceiptRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS receipts (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	extraction JSONB,
	ai_available BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_status ON receipts(status);
CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at DESC);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	receipt_id TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION,
	reconciled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO receipts (
	id, filename, mime_type, storage_path, status, ai_available, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		receipt.ID, receipt.Filename, receipt.MimeType, receipt.StoragePath,
		string(receipt.Status), receipt.AIAvailable, receipt.Error, receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*domain.Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, status, extraction, ai_available, error_message, created_at, updated_at
FROM receipts
WHERE id = $1
`, id)

	var receipt domain.Receipt
	var status string
	var extractionRaw []byte

	err := row.Scan(
		&receipt.ID, &receipt.Filename, &receipt.MimeType, &receipt.StoragePath,
		&status, &extractionRaw, &receipt.AIAvailable, &receipt.Error, &receipt.CreatedAt, &receipt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReceiptNotFound, "get receipt", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan receipt: %w", err)
	}

	if len(extractionRaw) > 0 {
		var data domain.ExtractedData
		if err := json.Unmarshal(extractionRaw, &data); err != nil {
			return nil, fmt.Errorf("unmarshal extraction: %w", err)
		}
		receipt.Extraction = &data
	}
	receipt.Status = domain.ReceiptStatus(status)
	return &receipt, nil
}

func (r *ReceiptRepository) UpdateStatus(ctx context.Context, id string, status domain.ReceiptStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE receipts
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update receipt status: %w", err)
	}
	return notFoundOnZeroRows(result, domain.ErrReceiptNotFound, "update receipt status")
}

func (r *ReceiptRepository) SaveExtraction(ctx context.Context, id string, data domain.ExtractedData, aiAvailable bool) error {
	extractionJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE receipts
SET extraction = $2, ai_available = $3, updated_at = $4
WHERE id = $1
`, id, extractionJSON, aiAvailable, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return notFoundOnZeroRows(result, domain.ErrReceiptNotFound, "save extraction")
}

func notFoundOnZeroRows(result sql.Result, kind error, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, op, errors.New("no rows affected"))
	}
	return nil
}
