package service

import (
	"context"
	"fmt"

	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// StakingServiceImpl implements ports.StakingService: the share ledger that
// converts between fiat value and pool shares at the current exchange rate.
// It never accrues interest itself; accrual is driven by the yield service.
type StakingServiceImpl struct {
	poolRepo ports.PoolRepository
}

// NewStakingService creates a new StakingServiceImpl.
func NewStakingService(poolRepo ports.PoolRepository) *StakingServiceImpl {
	return &StakingServiceImpl{poolRepo: poolRepo}
}

// IssueShares converts a fiat principal into shares at the pool's current
// exchange rate and grows the pool's principal by the deposit. The caller
// holds the pool row lock inside tx.
func (s *StakingServiceImpl) IssueShares(ctx context.Context, tx pgx.Tx, pool *domain.LendingPool, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}

	shares := amount / pool.ExchangeRate
	pool.TotalPrincipal += amount

	if err := s.poolRepo.Update(ctx, tx, pool); err != nil {
		pool.TotalPrincipal -= amount
		return 0, apperror.InternalError(fmt.Errorf("persist pool after issue: %w", err))
	}

	return shares, nil
}

// RedeemShares converts shares back into fiat at the current exchange rate
// and shrinks the pool's principal by the payout. Fails if the pool cannot
// pay out more than it holds.
func (s *StakingServiceImpl) RedeemShares(ctx context.Context, tx pgx.Tx, pool *domain.LendingPool, shares float64) (float64, error) {
	if shares <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	if !pool.CanRedeem(shares) {
		return 0, apperror.Validation("pool principal cannot cover redemption")
	}

	amount := shares * pool.ExchangeRate
	pool.TotalPrincipal -= amount
	if pool.TotalPrincipal < 0 {
		// Floating drift within the redeem tolerance
		pool.TotalPrincipal = 0
	}

	if err := s.poolRepo.Update(ctx, tx, pool); err != nil {
		pool.TotalPrincipal += amount
		return 0, apperror.InternalError(fmt.Errorf("persist pool after redeem: %w", err))
	}

	return amount, nil
}
