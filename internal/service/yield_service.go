package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Seconds in a Julian year, matching the pool's continuous compounding basis.
const secondsPerYear = 365.25 * 86400

// YieldServiceImpl implements ports.YieldService: the rate engine that owns
// the lending pool's APR and exchange rate. All accruals run inside a
// database transaction holding the pool row lock, so overlapping calls
// serialize and never double-count the same elapsed window.
type YieldServiceImpl struct {
	poolRepo   ports.PoolRepository
	transactor ports.DBTransactor
	poolID     uuid.UUID
	log        zerolog.Logger
}

// NewYieldService creates a new YieldServiceImpl operating on the pool row
// identified by poolID. The handle is explicit and test-injectable; there is
// no lazy first-call caching.
func NewYieldService(poolRepo ports.PoolRepository, transactor ports.DBTransactor, poolID uuid.UUID, log zerolog.Logger) *YieldServiceImpl {
	return &YieldServiceImpl{
		poolRepo:   poolRepo,
		transactor: transactor,
		poolID:     poolID,
		log:        log,
	}
}

// ContinuousAPY returns the effective annual yield of a continuously
// compounded APR.
func ContinuousAPY(apr float64) float64 {
	return math.Exp(apr) - 1
}

// Accrue compounds interest over the wall-clock time elapsed since the last
// accrual. Negative elapsed time (clock skew) clamps to zero. With zero
// principal the rate is untouched but the accrual timestamp still advances,
// so a later first deposit earns no back-dated interest.
func (s *YieldServiceImpl) Accrue(ctx context.Context, now time.Time) (*ports.AccrualResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	pool, err := s.poolRepo.GetForUpdate(ctx, tx, s.poolID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock pool: %w", err))
	}
	if pool == nil {
		return nil, apperror.ErrNotFound("lending pool")
	}

	elapsed := now.Sub(pool.LastAccrualAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	var interest float64
	if pool.TotalPrincipal > 0 && elapsed > 0 {
		multiplier := math.Exp(pool.APRRate * elapsed / secondsPerYear)
		newPrincipal := pool.TotalPrincipal * multiplier
		interest = newPrincipal - pool.TotalPrincipal

		pool.ExchangeRate *= multiplier
		pool.TotalPrincipal = newPrincipal
		pool.TotalInterestEarned += interest
	}
	pool.LastAccrualAt = now

	if err := s.poolRepo.Update(ctx, tx, pool); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist accrual: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit accrual: %w", err))
	}

	if interest > 0 {
		s.log.Info().
			Float64("interest", interest).
			Float64("exchange_rate", pool.ExchangeRate).
			Float64("seconds_elapsed", elapsed).
			Msg("interest accrued")
	}

	return &ports.AccrualResult{
		ExchangeRate:   pool.ExchangeRate,
		InterestEarned: interest,
		SecondsElapsed: elapsed,
		AccruedAt:      now,
	}, nil
}

// SetAPR updates the pool's APR. Values outside [0,1] are rejected.
func (s *YieldServiceImpl) SetAPR(ctx context.Context, apr float64) error {
	if apr < 0 || apr > 1 {
		return apperror.ErrInvalidAPR()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	pool, err := s.poolRepo.GetForUpdate(ctx, tx, s.poolID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock pool: %w", err))
	}
	if pool == nil {
		return apperror.ErrNotFound("lending pool")
	}

	pool.APRRate = apr
	if err := s.poolRepo.Update(ctx, tx, pool); err != nil {
		return apperror.InternalError(fmt.Errorf("persist apr: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit apr: %w", err))
	}

	s.log.Info().Float64("apr", apr).Msg("pool APR updated")
	return nil
}

// PoolStats returns the pool's public view, including the display APY.
func (s *YieldServiceImpl) PoolStats(ctx context.Context) (*ports.PoolStats, error) {
	pool, err := s.poolRepo.Get(ctx, s.poolID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get pool: %w", err))
	}
	if pool == nil {
		return nil, apperror.ErrNotFound("lending pool")
	}

	return &ports.PoolStats{
		APRRate:             pool.APRRate,
		APY:                 ContinuousAPY(pool.APRRate),
		ExchangeRate:        pool.ExchangeRate,
		TotalPrincipal:      pool.TotalPrincipal,
		TotalInterestEarned: pool.TotalInterestEarned,
		LastAccrualAt:       pool.LastAccrualAt,
	}, nil
}
