package service

import (
	"context"
	"testing"
	"time"

	"yield-wallet/internal/core/domain"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	svc        *WalletServiceImpl
	walletRepo *memWalletRepo
	poolRepo   *memPoolRepo
	ledgerRepo *memLedgerRepo
	ownerID    uuid.UUID
	walletID   uuid.UUID
	poolID     uuid.UUID
}

func newWalletFixture(t *testing.T, balance, shares, exchangeRate float64, autoStake bool) *walletFixture {
	t.Helper()
	f := &walletFixture{
		walletRepo: newMemWalletRepo(),
		poolRepo:   newMemPoolRepo(),
		ledgerRepo: newMemLedgerRepo(),
		ownerID:    uuid.New(),
		walletID:   uuid.New(),
		poolID:     uuid.New(),
	}
	require.NoError(t, f.walletRepo.Create(context.Background(), &domain.WalletAccount{
		ID:               f.walletID,
		OwnerID:          f.ownerID,
		Balance:          balance,
		Shares:           shares,
		AutoStakeEnabled: autoStake,
		Currency:         "USD",
	}))
	require.NoError(t, f.poolRepo.Create(context.Background(), &domain.LendingPool{
		ID:             f.poolID,
		APRRate:        0.05,
		ExchangeRate:   exchangeRate,
		TotalPrincipal: shares * exchangeRate,
		LastAccrualAt:  time.Now().UTC(),
	}))
	staking := NewStakingService(f.poolRepo)
	f.svc = NewWalletService(f.walletRepo, f.poolRepo, f.ledgerRepo, staking, &fakeTransactor{}, f.poolID, zerolog.Nop())
	return f
}

func (f *walletFixture) wallet(t *testing.T) *domain.WalletAccount {
	t.Helper()
	w, err := f.walletRepo.GetByOwnerID(context.Background(), f.ownerID)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w
}

func (f *walletFixture) pool(t *testing.T) *domain.LendingPool {
	t.Helper()
	p, err := f.poolRepo.Get(context.Background(), f.poolID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestTopup_LiquidCredit(t *testing.T) {
	f := newWalletFixture(t, 10, 0, 1.0, false)

	res, err := f.svc.Topup(context.Background(), f.ownerID, 90, "USD")
	require.NoError(t, err)
	assert.False(t, res.Staked)
	assert.Equal(t, 100.0, res.Wallet.Balance)
	assert.Equal(t, 100.0, f.wallet(t).Balance)

	entries := f.ledgerRepo.byKind(domain.LedgerKindTopup)
	require.Len(t, entries, 1)
	assert.Equal(t, 90.0, entries[0].Amount)
	assert.Equal(t, domain.LedgerStatusCompleted, entries[0].Status)
	assert.Empty(t, f.ledgerRepo.byKind(domain.LedgerKindStake))
}

func TestTopup_AutoStakeWritesTwoEntries(t *testing.T) {
	f := newWalletFixture(t, 0, 0, 1.25, true)

	res, err := f.svc.Topup(context.Background(), f.ownerID, 100, "USD")
	require.NoError(t, err)
	assert.True(t, res.Staked)
	assert.InEpsilon(t, 80.0, res.SharesIssued, 1e-12) // 100 / 1.25

	w := f.wallet(t)
	assert.Zero(t, w.Balance)
	assert.InEpsilon(t, 80.0, w.Shares, 1e-12)
	assert.InEpsilon(t, 100.0, f.pool(t).TotalPrincipal, 1e-12)

	require.Len(t, f.ledgerRepo.byKind(domain.LedgerKindTopup), 1)
	stakes := f.ledgerRepo.byKind(domain.LedgerKindStake)
	require.Len(t, stakes, 1)
	assert.Equal(t, true, stakes[0].Metadata["auto_stake"])
	assert.Equal(t, "TOPUP", stakes[0].Metadata["source_kind"])
}

func TestCredit_AutoStakeFallsBackOnPoolError(t *testing.T) {
	f := newWalletFixture(t, 0, 0, 1.0, true)
	f.poolRepo.failUpdate = true

	res, err := f.svc.Credit(context.Background(), f.ownerID, 40, domain.LedgerKindRefund, nil)
	require.NoError(t, err)
	assert.False(t, res.Staked)
	assert.Equal(t, 40.0, f.wallet(t).Balance)
	assert.Zero(t, f.wallet(t).Shares)
	assert.Empty(t, f.ledgerRepo.byKind(domain.LedgerKindStake))
}

func TestCredit_RejectsNonPositive(t *testing.T) {
	f := newWalletFixture(t, 0, 0, 1.0, false)

	_, err := f.svc.Credit(context.Background(), f.ownerID, 0, domain.LedgerKindTopup, nil)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VAL_002", appErr.Code)
}

func TestEnsureLiquid_UnstakesDeficitOnly(t *testing.T) {
	// balance 30, staked 50 at rate 1.0, required 50: unstake exactly 20.
	f := newWalletFixture(t, 30, 50, 1.0, false)
	w := f.wallet(t)
	p := f.pool(t)

	res, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, p, 50)
	require.NoError(t, err)
	assert.True(t, res.Performed)
	assert.InDelta(t, 20.0, res.Amount, 1e-9)
	assert.InDelta(t, 20.0, res.SharesBurned, 1e-9)
	assert.InDelta(t, 50.0, w.Balance, 1e-9)
	assert.InDelta(t, 30.0, w.Shares, 1e-9)

	unstakes := f.ledgerRepo.byKind(domain.LedgerKindUnstake)
	require.Len(t, unstakes, 1)
	assert.InDelta(t, 20.0, unstakes[0].Amount, 1e-9)
	// At rate 1.0 there is no growth portion, so no YIELD entry.
	assert.Empty(t, f.ledgerRepo.byKind(domain.LedgerKindYield))
}

func TestEnsureLiquid_InsufficientFailsFast(t *testing.T) {
	// balance 20, staked 10, required 50: reject without touching anything.
	f := newWalletFixture(t, 20, 10, 1.0, false)
	w := f.wallet(t)
	p := f.pool(t)

	_, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, p, 50)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FUND_001", appErr.Code)
	assert.Equal(t, 20.0, appErr.Detail["balance"])
	assert.Equal(t, 10.0, appErr.Detail["staked_amount"])
	assert.Equal(t, 50.0, appErr.Detail["required"])

	// Nothing persisted, nothing recorded.
	assert.Equal(t, 20.0, f.wallet(t).Balance)
	assert.Equal(t, 10.0, f.wallet(t).Shares)
	assert.Zero(t, f.ledgerRepo.count())
}

func TestEnsureLiquid_ExactBalanceIsNoOp(t *testing.T) {
	f := newWalletFixture(t, 50, 100, 1.0, false)
	w := f.wallet(t)
	p := f.pool(t)

	res, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, p, 50)
	require.NoError(t, err)
	assert.False(t, res.Performed)
	assert.Equal(t, 100.0, w.Shares)
	assert.Zero(t, f.ledgerRepo.count())
}

func TestEnsureLiquid_RealizesYieldAtGrownRate(t *testing.T) {
	// 100 shares at rate 1.10: staked value 110. Required 60 with balance 5
	// forces a 55 unstake, of which 55*(1-1/1.1) = 5 is realized yield.
	f := newWalletFixture(t, 5, 100, 1.10, false)
	w := f.wallet(t)
	p := f.pool(t)

	res, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, p, 60)
	require.NoError(t, err)
	assert.True(t, res.Performed)
	assert.InDelta(t, 55.0, res.Amount, 1e-9)
	assert.InDelta(t, 5.0, res.YieldPortion, 1e-9)
	assert.InDelta(t, 5.0, w.YieldEarned, 1e-9)

	yields := f.ledgerRepo.byKind(domain.LedgerKindYield)
	require.Len(t, yields, 1)
	assert.InDelta(t, 5.0, yields[0].Amount, 1e-9)
}

func TestEnsureLiquid_NoYieldWhenIssuedAtCurrentRate(t *testing.T) {
	// Shares bought at rate 1.25 and redeemed at 1.25 carry no growth: the
	// cost basis keeps repriced principal from counting as yield.
	f := newWalletFixture(t, 0, 0, 1.25, true)

	_, err := f.svc.Credit(context.Background(), f.ownerID, 100, domain.LedgerKindTopup, nil)
	require.NoError(t, err)
	w := f.wallet(t)
	assert.InEpsilon(t, 1.25, w.AvgIssueRate, 1e-12)

	p := f.pool(t)
	res, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, p, 50)
	require.NoError(t, err)
	assert.True(t, res.Performed)
	assert.InDelta(t, 50.0, res.Amount, 1e-9)
	assert.Zero(t, res.YieldPortion)
	assert.Zero(t, w.YieldEarned)
	assert.Empty(t, f.ledgerRepo.byKind(domain.LedgerKindYield))
}

func TestEnsureLiquid_YieldMeasuredFromCostBasis(t *testing.T) {
	// Buy 100 at rate 1.25, then 60 more at 1.50: basis becomes the
	// share-weighted average (80*1.25 + 40*1.5) / 120 = 4/3. Redeeming the
	// full 180 realizes only the 20 the first tranche actually grew.
	f := newWalletFixture(t, 0, 0, 1.25, true)

	_, err := f.svc.Credit(context.Background(), f.ownerID, 100, domain.LedgerKindTopup, nil)
	require.NoError(t, err)

	// Accrual reprices principal along with the rate: 1.25 -> 1.50.
	p := f.pool(t)
	p.TotalPrincipal *= 1.50 / 1.25
	p.ExchangeRate = 1.50
	require.NoError(t, f.poolRepo.Update(context.Background(), &fakeTx{}, p))

	_, err = f.svc.Credit(context.Background(), f.ownerID, 60, domain.LedgerKindTopup, nil)
	require.NoError(t, err)

	w := f.wallet(t)
	assert.InEpsilon(t, 120.0, w.Shares, 1e-12)
	assert.InEpsilon(t, 4.0/3.0, w.AvgIssueRate, 1e-12)

	res, err := f.svc.EnsureLiquid(context.Background(), &fakeTx{}, w, f.pool(t), 180)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, res.Amount, 1e-9)
	assert.InDelta(t, 20.0, res.YieldPortion, 1e-9)
	assert.InDelta(t, 20.0, w.YieldEarned, 1e-9)

	// Fully redeemed: the basis resets with the position.
	assert.Zero(t, w.Shares)
	assert.Zero(t, w.AvgIssueRate)
}

func TestSetAutoStake(t *testing.T) {
	f := newWalletFixture(t, 0, 0, 1.0, false)

	w, err := f.svc.SetAutoStake(context.Background(), f.ownerID, true)
	require.NoError(t, err)
	assert.True(t, w.AutoStakeEnabled)
	assert.True(t, f.wallet(t).AutoStakeEnabled)

	_, err = f.svc.SetAutoStake(context.Background(), uuid.New(), true)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestSnapshot_DerivesStakedValue(t *testing.T) {
	f := newWalletFixture(t, 25, 40, 1.5, true)

	snap, err := f.svc.Snapshot(context.Background(), f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.Balance)
	assert.InEpsilon(t, 60.0, snap.StakedValue, 1e-12)
	assert.InEpsilon(t, 85.0, snap.TotalAvailable, 1e-12)
	assert.Equal(t, 1.5, snap.ExchangeRate)
	assert.True(t, snap.AutoStakeEnabled)
}
