package postgres

import (
	"context"
	"errors"
	"fmt"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, balance, shares, auto_stake_enabled, avg_issue_rate, yield_earned, currency, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.WalletAccount, error) {
	w := &domain.WalletAccount{}
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Balance, &w.Shares, &w.AutoStakeEnabled,
		&w.AvgIssueRate, &w.YieldEarned, &w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Create inserts a new wallet account.
func (r *WalletRepo) Create(ctx context.Context, w *domain.WalletAccount) error {
	query := `INSERT INTO wallet_accounts (id, owner_id, balance, shares, auto_stake_enabled, avg_issue_rate, yield_earned, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Balance, w.Shares, w.AutoStakeEnabled,
		w.AvgIssueRate, w.YieldEarned, w.Currency, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByOwnerID fetches the owner's wallet without locking.
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_accounts WHERE owner_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by owner: %w", err)
	}
	return w, nil
}

// GetByOwnerIDForUpdate fetches the owner's wallet with a row lock. Must be
// called within a transaction.
func (r *WalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_accounts WHERE owner_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateFunds writes the wallet's balance, shares, yield counter and share
// cost basis within a transaction.
func (r *WalletRepo) UpdateFunds(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error {
	query := `UPDATE wallet_accounts SET balance = $1, shares = $2, yield_earned = $3, avg_issue_rate = $4, updated_at = NOW() WHERE id = $5`

	tag, err := tx.Exec(ctx, query, w.Balance, w.Shares, w.YieldEarned, w.AvgIssueRate, w.ID)
	if err != nil {
		return fmt.Errorf("update wallet funds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", w.ID)
	}
	return nil
}

// SetAutoStake flips the auto-stake preference.
func (r *WalletRepo) SetAutoStake(ctx context.Context, ownerID uuid.UUID, enabled bool) error {
	query := `UPDATE wallet_accounts SET auto_stake_enabled = $1, updated_at = NOW() WHERE owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, enabled, ownerID)
	if err != nil {
		return fmt.Errorf("set auto-stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found for owner: %s", ownerID)
	}
	return nil
}
