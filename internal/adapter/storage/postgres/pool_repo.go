package postgres

import (
	"context"
	"errors"
	"fmt"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PoolRepo implements ports.PoolRepository for the lending pool row.
type PoolRepo struct {
	pool Pool
}

// NewPoolRepo creates a new PoolRepo.
func NewPoolRepo(pool Pool) *PoolRepo {
	return &PoolRepo{pool: pool}
}

const lendingPoolColumns = `id, apr_rate, exchange_rate, total_principal, total_interest_earned, last_accrual_at, updated_at`

func scanLendingPool(row pgx.Row) (*domain.LendingPool, error) {
	p := &domain.LendingPool{}
	err := row.Scan(
		&p.ID, &p.APRRate, &p.ExchangeRate, &p.TotalPrincipal,
		&p.TotalInterestEarned, &p.LastAccrualAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts the pool row. Called once at bootstrap.
func (r *PoolRepo) Create(ctx context.Context, p *domain.LendingPool) error {
	query := `INSERT INTO lending_pools (id, apr_rate, exchange_rate, total_principal, total_interest_earned, last_accrual_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.APRRate, p.ExchangeRate, p.TotalPrincipal,
		p.TotalInterestEarned, p.LastAccrualAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lending pool: %w", err)
	}
	return nil
}

// Get fetches the pool without locking.
func (r *PoolRepo) Get(ctx context.Context, id uuid.UUID) (*domain.LendingPool, error) {
	query := `SELECT ` + lendingPoolColumns + ` FROM lending_pools WHERE id = $1`

	p, err := scanLendingPool(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lending pool: %w", err)
	}
	return p, nil
}

// GetForUpdate fetches the pool with a row lock. Every accrual, issue and
// redeem serializes on this lock.
func (r *PoolRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.LendingPool, error) {
	query := `SELECT ` + lendingPoolColumns + ` FROM lending_pools WHERE id = $1 FOR UPDATE`

	p, err := scanLendingPool(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lending pool for update: %w", err)
	}
	return p, nil
}

// Update writes the pool state within a transaction.
func (r *PoolRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.LendingPool) error {
	query := `UPDATE lending_pools SET apr_rate = $1, exchange_rate = $2, total_principal = $3,
		total_interest_earned = $4, last_accrual_at = $5, updated_at = NOW() WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		p.APRRate, p.ExchangeRate, p.TotalPrincipal,
		p.TotalInterestEarned, p.LastAccrualAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update lending pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lending pool not found: %s", p.ID)
	}
	return nil
}
