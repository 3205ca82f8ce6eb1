package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository. Metadata is stored as JSONB.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

const ledgerColumns = `id, owner_id, kind, amount, currency, merchant_id, description, status, metadata, created_at`

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	var metadata []byte
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Kind, &e.Amount, &e.Currency,
		&e.MerchantID, &e.Description, &e.Status, &metadata, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode ledger metadata: %w", err)
		}
	}
	return e, nil
}

// Create appends a ledger entry within a transaction.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		metadata, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode ledger metadata: %w", err)
		}
	}

	query := `INSERT INTO ledger_entries (id, owner_id, kind, amount, currency, merchant_id, description, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.OwnerID, e.Kind, e.Amount, e.Currency,
		e.MerchantID, e.Description, e.Status, metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetByID fetches one entry.
func (r *LedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`

	e, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// ListByOwner returns the owner's most recent entries, newest first.
func (r *LedgerRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// MarkRefunded flips a purchase entry's status to REFUNDED. The flip is
// one-way; only COMPLETED entries qualify.
func (r *LedgerRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE ledger_entries SET status = $1 WHERE id = $2 AND status = $3`

	tag, err := tx.Exec(ctx, query, domain.LedgerStatusRefunded, id, domain.LedgerStatusCompleted)
	if err != nil {
		return fmt.Errorf("mark entry refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no completed entry to refund: %s", id)
	}
	return nil
}

// SumRefundedForPurchase totals the REFUND entries pointing at a purchase via
// their metadata reference. Runs in the caller's transaction so the sum
// reflects everything committed before the caller's locks were granted.
func (r *LedgerRepo) SumRefundedForPurchase(ctx context.Context, tx pgx.Tx, originalID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE kind = $1 AND metadata->>'original_transaction_id' = $2`

	var sum float64
	err := tx.QueryRow(ctx, query, domain.LedgerKindRefund, originalID.String()).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum refunds: %w", err)
	}
	return sum, nil
}
