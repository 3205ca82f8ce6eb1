package service

import (
	"context"
	"fmt"
	"time"

	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// balanceTolerance absorbs floating point drift when comparing balances
// against required amounts.
const balanceTolerance = 0.01

// WalletServiceImpl implements ports.WalletService and ports.FundsReconciler.
// Credit is the single entry point for adding value to a wallet (top-ups,
// refunds, mission rewards); EnsureLiquid is the auto-unstake path that frees
// just enough staked value to cover a shortfall.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	poolRepo   ports.PoolRepository
	ledgerRepo ports.LedgerRepository
	staking    ports.StakingService
	transactor ports.DBTransactor
	poolID     uuid.UUID
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	poolRepo ports.PoolRepository,
	ledgerRepo ports.LedgerRepository,
	staking ports.StakingService,
	transactor ports.DBTransactor,
	poolID uuid.UUID,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		poolRepo:   poolRepo,
		ledgerRepo: ledgerRepo,
		staking:    staking,
		transactor: transactor,
		poolID:     poolID,
		log:        log,
	}
}

// Credit adds value to a wallet under its auto-stake policy. With auto-stake
// enabled the amount is converted to shares and a synthetic STAKE entry is
// recorded next to the kind entry; a pool rejection falls back silently to a
// liquid credit, so credit never fails for a positive amount except on
// storage errors.
func (s *WalletServiceImpl) Credit(ctx context.Context, ownerID uuid.UUID, amount float64, kind domain.LedgerKind, meta map[string]any) (*ports.CreditResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, tx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	pool, err := s.poolRepo.GetForUpdate(ctx, tx, s.poolID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock pool: %w", err))
	}
	if pool == nil {
		return nil, apperror.ErrNotFound("lending pool")
	}

	result, err := s.CreditFunds(ctx, tx, wallet, pool, amount, kind, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit credit: %w", err))
	}

	s.log.Info().
		Str("owner_id", ownerID.String()).
		Str("kind", string(kind)).
		Float64("amount", amount).
		Bool("staked", result.Staked).
		Msg("wallet credited")

	return result, nil
}

// CreditFunds applies a credit inside the caller's transaction, with the
// wallet and pool rows already locked. Refunds and other credits issued in
// the middle of a larger flow go through here so their cap checks and the
// credit itself commit atomically.
func (s *WalletServiceImpl) CreditFunds(ctx context.Context, tx pgx.Tx, wallet *domain.WalletAccount, pool *domain.LendingPool, amount float64, kind domain.LedgerKind, meta map[string]any) (*ports.CreditResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	var (
		staked       bool
		sharesIssued float64
	)
	if wallet.AutoStakeEnabled {
		var err error
		sharesIssued, err = s.staking.IssueShares(ctx, tx, pool, amount)
		if err == nil {
			// New shares move the wallet's cost basis toward the issue rate.
			total := wallet.Shares + sharesIssued
			if total > 0 {
				wallet.AvgIssueRate = (wallet.Shares*wallet.IssueRateBasis() + sharesIssued*pool.ExchangeRate) / total
			}
			wallet.Shares = total
			staked = true
		} else {
			// Staking failure must not propagate as a credit failure
			s.log.Warn().Err(err).
				Str("owner_id", wallet.OwnerID.String()).
				Float64("amount", amount).
				Msg("auto-stake failed, crediting liquid balance instead")
		}
	}
	if !staked {
		wallet.Balance += amount
	}

	if err := s.walletRepo.UpdateFunds(ctx, tx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet funds: %w", err))
	}

	now := time.Now().UTC()
	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     wallet.OwnerID,
		Kind:        kind,
		Amount:      amount,
		Currency:    wallet.Currency,
		Description: describeCredit(kind, staked),
		Status:      domain.LedgerStatusCompleted,
		Metadata:    meta,
		CreatedAt:   now,
	}
	if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record %s entry: %w", kind, err))
	}

	if staked {
		stakeEntry := &domain.LedgerEntry{
			ID:          uuid.New(),
			OwnerID:     wallet.OwnerID,
			Kind:        domain.LedgerKindStake,
			Amount:      amount,
			Currency:    wallet.Currency,
			Description: "Auto-staked credit",
			Status:      domain.LedgerStatusCompleted,
			Metadata: map[string]any{
				"auto_stake":    true,
				"source_kind":   string(kind),
				"shares_issued": sharesIssued,
				"exchange_rate": pool.ExchangeRate,
			},
			CreatedAt: now,
		}
		if err := s.ledgerRepo.Create(ctx, tx, stakeEntry); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record stake entry: %w", err))
		}
	}

	return &ports.CreditResult{
		Entry:        entry,
		Staked:       staked,
		SharesIssued: sharesIssued,
		Wallet:       snapshotOf(wallet, pool),
	}, nil
}

// Topup credits a wallet from an external funding source.
func (s *WalletServiceImpl) Topup(ctx context.Context, ownerID uuid.UUID, amount float64, currency string) (*ports.CreditResult, error) {
	meta := map[string]any{"source": "topup"}
	if currency != "" {
		meta["requested_currency"] = currency
	}
	return s.Credit(ctx, ownerID, amount, domain.LedgerKindTopup, meta)
}

// EnsureLiquid frees just enough staked value to cover required, implementing
// the auto-unstake policy:
//  1. balance already sufficient: no-op.
//  2. balance + staked short of required: fail fast, nothing mutated.
//  3. otherwise redeem the deficit's worth of shares, credit the liquid
//     balance, and record an UNSTAKE entry. A pool redemption failure is
//     reported as AutoUnstakeFailed, distinct from InsufficientFunds.
//
// Runs inside the caller's transaction with wallet and pool rows locked.
func (s *WalletServiceImpl) EnsureLiquid(ctx context.Context, tx pgx.Tx, wallet *domain.WalletAccount, pool *domain.LendingPool, required float64) (*ports.UnstakeResult, error) {
	stakedValue := wallet.StakedValue(pool.ExchangeRate)

	if wallet.Balance >= required {
		return &ports.UnstakeResult{Performed: false}, nil
	}
	if wallet.Balance+stakedValue < required {
		return nil, apperror.ErrInsufficientFunds(wallet.Balance, stakedValue, required)
	}

	deficit := required - wallet.Balance
	sharesToBurn := deficit / pool.ExchangeRate

	redeemed, err := s.staking.RedeemShares(ctx, tx, pool, sharesToBurn)
	if err != nil {
		// Nominally sufficient but the pool could not pay: stale data race
		return nil, apperror.ErrAutoUnstakeFailed(wallet.Balance, stakedValue, required)
	}

	// Portion of the redemption attributable to rate growth since the shares
	// were issued, measured against the wallet's cost basis.
	yieldPortion := redeemed * (1 - wallet.IssueRateBasis()/pool.ExchangeRate)
	if yieldPortion < 0 {
		yieldPortion = 0
	}

	wallet.Shares -= sharesToBurn
	if wallet.Shares <= 0 {
		wallet.Shares = 0
		wallet.AvgIssueRate = 0
	}
	wallet.Balance += redeemed
	wallet.YieldEarned += yieldPortion

	if err := s.walletRepo.UpdateFunds(ctx, tx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet after unstake: %w", err))
	}

	now := time.Now().UTC()
	unstakeEntry := &domain.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     wallet.OwnerID,
		Kind:        domain.LedgerKindUnstake,
		Amount:      redeemed,
		Currency:    wallet.Currency,
		Description: "Auto-unstake to cover purchase",
		Status:      domain.LedgerStatusCompleted,
		Metadata: map[string]any{
			"auto_unstake":  true,
			"shares_burned": sharesToBurn,
			"exchange_rate": pool.ExchangeRate,
			"required":      required,
		},
		CreatedAt: now,
	}
	if err := s.ledgerRepo.Create(ctx, tx, unstakeEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record unstake entry: %w", err))
	}

	if yieldPortion > balanceTolerance {
		yieldEntry := &domain.LedgerEntry{
			ID:          uuid.New(),
			OwnerID:     wallet.OwnerID,
			Kind:        domain.LedgerKindYield,
			Amount:      yieldPortion,
			Currency:    wallet.Currency,
			Description: "Yield realized on unstake",
			Status:      domain.LedgerStatusCompleted,
			Metadata:    map[string]any{"exchange_rate": pool.ExchangeRate},
			CreatedAt:   now,
		}
		if err := s.ledgerRepo.Create(ctx, tx, yieldEntry); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record yield entry: %w", err))
		}
	}

	// Defensive re-check: a shortfall here means a lost update between the
	// funds check and the redemption.
	if wallet.Balance < required-balanceTolerance {
		return nil, apperror.ErrInsufficientFunds(wallet.Balance, wallet.StakedValue(pool.ExchangeRate), required)
	}

	return &ports.UnstakeResult{
		Performed:    true,
		Amount:       redeemed,
		SharesBurned: sharesToBurn,
		YieldPortion: yieldPortion,
	}, nil
}

// SetAutoStake flips the wallet's auto-stake preference.
func (s *WalletServiceImpl) SetAutoStake(ctx context.Context, ownerID uuid.UUID, enabled bool) (*domain.WalletAccount, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if err := s.walletRepo.SetAutoStake(ctx, ownerID, enabled); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set auto-stake: %w", err))
	}
	wallet.AutoStakeEnabled = enabled
	return wallet, nil
}

// Snapshot returns the wallet view with derived staked value at the current
// exchange rate.
func (s *WalletServiceImpl) Snapshot(ctx context.Context, ownerID uuid.UUID) (*ports.WalletSnapshot, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	pool, err := s.poolRepo.Get(ctx, s.poolID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get pool: %w", err))
	}
	if pool == nil {
		return nil, apperror.ErrNotFound("lending pool")
	}

	return snapshotOf(wallet, pool), nil
}

// Ledger lists the wallet's most recent entries.
func (s *WalletServiceImpl) Ledger(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.ledgerRepo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list ledger: %w", err))
	}
	return entries, nil
}

func snapshotOf(w *domain.WalletAccount, p *domain.LendingPool) *ports.WalletSnapshot {
	return &ports.WalletSnapshot{
		WalletID:         w.ID,
		Balance:          w.Balance,
		Shares:           w.Shares,
		ExchangeRate:     p.ExchangeRate,
		StakedValue:      w.StakedValue(p.ExchangeRate),
		TotalAvailable:   w.TotalAvailable(p.ExchangeRate),
		AutoStakeEnabled: w.AutoStakeEnabled,
		YieldEarned:      w.YieldEarned,
		Currency:         w.Currency,
	}
}

func describeCredit(kind domain.LedgerKind, staked bool) string {
	switch kind {
	case domain.LedgerKindTopup:
		if staked {
			return "Wallet top-up (auto-staked)"
		}
		return "Wallet top-up"
	case domain.LedgerKindRefund:
		return "Purchase refund"
	case domain.LedgerKindMissionReward:
		return "Mission reward payout"
	default:
		return "Wallet credit"
	}
}
