package service

import (
	"context"
	"fmt"
	"time"

	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PurchaseServiceImpl implements ports.PurchaseService: the authorization
// state machine that ties funds reconciliation, currency conversion, the
// external card network, ledger recording and mission evaluation together.
//
// The flow is a saga in three phases with no rollback of committed steps:
//
//	A: validate, convert, auto-unstake (committed)
//	B: external authorize (bounded call, single retry)
//	C: debit, record PURCHASE (committed), then missions and capture
//
// A decline in phase B leaves any phase-A unstake in place: the wallet simply
// ends the request with more liquid balance than it started with.
type PurchaseServiceImpl struct {
	walletRepo   ports.WalletRepository
	poolRepo     ports.PoolRepository
	ledgerRepo   ports.LedgerRepository
	cardRepo     ports.CardRepository
	merchantRepo ports.MerchantRepository
	reconciler   ports.FundsReconciler
	missionSvc   ports.MissionService
	fx           ports.FXService
	network      ports.CardNetwork
	transactor   ports.DBTransactor
	poolID       uuid.UUID
	settlementCy string
	callTimeout  time.Duration
	log          zerolog.Logger
}

// NewPurchaseService creates a new PurchaseServiceImpl.
func NewPurchaseService(
	walletRepo ports.WalletRepository,
	poolRepo ports.PoolRepository,
	ledgerRepo ports.LedgerRepository,
	cardRepo ports.CardRepository,
	merchantRepo ports.MerchantRepository,
	reconciler ports.FundsReconciler,
	missionSvc ports.MissionService,
	fx ports.FXService,
	network ports.CardNetwork,
	transactor ports.DBTransactor,
	poolID uuid.UUID,
	settlementCurrency string,
	callTimeout time.Duration,
	log zerolog.Logger,
) *PurchaseServiceImpl {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &PurchaseServiceImpl{
		walletRepo:   walletRepo,
		poolRepo:     poolRepo,
		ledgerRepo:   ledgerRepo,
		cardRepo:     cardRepo,
		merchantRepo: merchantRepo,
		reconciler:   reconciler,
		missionSvc:   missionSvc,
		fx:           fx,
		network:      network,
		transactor:   transactor,
		poolID:       poolID,
		settlementCy: settlementCurrency,
		callTimeout:  callTimeout,
		log:          log,
	}
}

// Authorize settles a point-of-sale purchase.
func (s *PurchaseServiceImpl) Authorize(ctx context.Context, req ports.AuthorizeRequest) (*ports.AuthorizeResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	// Step 1: Validate card and merchant
	card, err := s.cardRepo.GetByNumberHash(ctx, domain.HashCardNumber(req.CardNumber))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup card: %w", err))
	}
	if card == nil || card.OwnerID != req.OwnerID {
		return nil, apperror.ErrNotFound("card")
	}
	if !card.IsActive() {
		return nil, apperror.ErrCardInactive()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	// Step 2: Convert to the settlement currency, recording the quote
	purchaseCurrency := req.Currency
	if purchaseCurrency == "" {
		purchaseCurrency = merchant.Currency
	}

	settlementAmount := req.Amount
	var quote *domain.FXQuote
	if purchaseCurrency != s.settlementCy {
		quote, err = s.fx.Convert(ctx, req.Amount, purchaseCurrency, s.settlementCy, true)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("fx convert: %w", err))
		}
		settlementAmount = quote.FinalAmount
	}

	// Step 3: Funds check with auto-unstake (phase A, committed on its own)
	unstake, err := s.ensureFunds(ctx, req.OwnerID, settlementAmount)
	if err != nil {
		return nil, err
	}

	// Step 4: External authorization; any phase-A unstake stays committed
	auth, err := s.authorizeExternal(ctx, ports.NetworkAuthRequest{
		CardLast4:  card.Last4,
		OwnerID:    req.OwnerID,
		MerchantID: merchant.ID,
		Amount:     settlementAmount,
		Currency:   s.settlementCy,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("card network authorize: %w", err))
	}
	if !auth.Approved {
		s.log.Warn().
			Str("owner_id", req.OwnerID.String()).
			Str("status", auth.Status).
			Bool("unstake_performed", unstake.Performed).
			Msg("authorization declined after funds check")
		return nil, apperror.ErrExternalDeclined(auth.Status)
	}

	// Steps 5-6: Debit and record (phase C, wallet row relocked)
	entry, wallet, pool, err := s.debitAndRecord(ctx, req.OwnerID, settlementAmount, merchant, card, auth, quote, unstake)
	if err != nil {
		return nil, err
	}

	// Step 7: Missions, synchronously, before the response is built.
	// The purchase is already settled; evaluation failures are reported in
	// logs, not to the buyer.
	missions, err := s.missionSvc.EvaluatePurchase(ctx, req.OwnerID, ports.PurchaseEvent{
		Amount:           settlementAmount,
		Currency:         s.settlementCy,
		MerchantID:       merchant.ID,
		MerchantCategory: merchant.Category,
		MerchantCountry:  merchant.Country,
	})
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", req.OwnerID.String()).Msg("mission evaluation failed after purchase")
		missions = nil
	}

	// Step 8: Capture is a settlement formality; failure does not undo the debit
	captureID, captureStatus := s.capture(ctx, auth.AuthorizationID, settlementAmount)

	// Step 9: Respond with the post-operation snapshot. Mission rewards may
	// have moved the wallet again, so re-read it.
	if fresh, err := s.walletRepo.GetByOwnerID(ctx, req.OwnerID); err == nil && fresh != nil {
		wallet = fresh
	}
	snapshot := snapshotOf(wallet, pool)

	s.log.Info().
		Str("owner_id", req.OwnerID.String()).
		Str("merchant", merchant.Name).
		Float64("settlement_amount", settlementAmount).
		Str("authorization_id", auth.AuthorizationID).
		Msg("purchase settled")

	result := &ports.AuthorizeResult{
		Transaction:     entry,
		AuthorizationID: auth.AuthorizationID,
		CaptureID:       captureID,
		CaptureStatus:   captureStatus,
		SettlementAmt:   settlementAmount,
		FXQuote:         quote,
		Missions:        missions,
		Wallet:          snapshot,
	}
	if unstake.Performed {
		result.Unstake = unstake
	}
	return result, nil
}

// ensureFunds runs the funds check and auto-unstake in its own committed
// transaction, holding the wallet and pool row locks.
func (s *PurchaseServiceImpl) ensureFunds(ctx context.Context, ownerID uuid.UUID, required float64) (*ports.UnstakeResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin funds tx: %w", err))
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

	unstake, err := s.reconciler.EnsureLiquid(ctx, tx, wallet, pool, required)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit funds tx: %w", err))
	}
	return unstake, nil
}

// debitAndRecord relocks the wallet, debits the settlement amount and appends
// the PURCHASE ledger entry, all in one transaction.
func (s *PurchaseServiceImpl) debitAndRecord(
	ctx context.Context,
	ownerID uuid.UUID,
	amount float64,
	merchant *domain.Merchant,
	card *domain.Card,
	auth *ports.NetworkAuthResult,
	quote *domain.FXQuote,
	unstake *ports.UnstakeResult,
) (*domain.LedgerEntry, *domain.WalletAccount, *domain.LendingPool, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("begin debit tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, tx, ownerID)
	if err != nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("relock wallet: %w", err))
	}
	if wallet == nil {
		return nil, nil, nil, apperror.ErrNotFound("wallet")
	}

	pool, err := s.poolRepo.Get(ctx, s.poolID)
	if err != nil || pool == nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("read pool: %w", err))
	}

	// Re-read guard: a shortfall here means a concurrent debit landed
	// between the funds check and now.
	if wallet.Balance < amount-balanceTolerance {
		return nil, nil, nil, apperror.ErrInsufficientFunds(wallet.Balance, wallet.StakedValue(pool.ExchangeRate), amount)
	}

	wallet.Balance -= amount
	if wallet.Balance < 0 {
		wallet.Balance = 0
	}

	if err := s.walletRepo.UpdateFunds(ctx, tx, wallet); err != nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}

	meta := map[string]any{
		"authorization_id": auth.AuthorizationID,
		"card_last4":       card.Last4,
		"merchant_name":    merchant.Name,
	}
	if quote != nil {
		meta["fx_quote"] = quote
	}
	if unstake.Performed {
		meta["auto_unstake"] = unstake
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        domain.LedgerKindPurchase,
		Amount:      amount,
		Currency:    wallet.Currency,
		MerchantID:  &merchant.ID,
		Description: fmt.Sprintf("Purchase at %s", merchant.Name),
		Status:      domain.LedgerStatusCompleted,
		Metadata:    meta,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("record purchase: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, nil, apperror.InternalError(fmt.Errorf("commit debit tx: %w", err))
	}
	return entry, wallet, pool, nil
}

// authorizeExternal calls the card network with a timeout and one retry on
// transport errors. Declines are returned as-is, never retried.
func (s *PurchaseServiceImpl) authorizeExternal(ctx context.Context, req ports.NetworkAuthRequest) (*ports.NetworkAuthResult, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		res, err := s.network.Authorize(callCtx, req)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("card network authorize failed")
	}
	return nil, lastErr
}

// capture performs the settlement capture. Failures are reported in the
// response status, never rolled back.
func (s *PurchaseServiceImpl) capture(ctx context.Context, authorizationID string, amount float64) (string, string) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	res, err := s.network.Capture(callCtx, authorizationID, amount)
	if err != nil {
		s.log.Error().Err(err).Str("authorization_id", authorizationID).Msg("capture failed after debit")
		return "", "CAPTURE_FAILED"
	}
	return res.CaptureID, res.Status
}

// Refund reverses all or part of a settled purchase. The refunded value runs
// back through the credit reconciler, so it can itself be auto-staked.
//
// The cumulative cap check, the credit and the status flip share one
// transaction with the wallet row locked, so concurrent refunds of the same
// purchase serialize and the second reads the first's refund before its own
// cap check.
func (s *PurchaseServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
	original, err := s.ledgerRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup transaction: %w", err))
	}
	if original == nil || original.OwnerID != req.OwnerID {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !original.IsRefundable() {
		return nil, apperror.ErrInvalidRefund()
	}

	amount := original.Amount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin refund tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, tx, req.OwnerID)
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

	refunded, err := s.ledgerRepo.SumRefundedForPurchase(ctx, tx, original.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum prior refunds: %w", err))
	}
	if amount+refunded > original.Amount+balanceTolerance {
		return nil, apperror.ErrRefundAmountExceedsOriginal()
	}

	credit, err := s.reconciler.CreditFunds(ctx, tx, wallet, pool, amount, domain.LedgerKindRefund, map[string]any{
		"original_transaction_id": original.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	// Flip the original to REFUNDED once fully reversed.
	if refunded+amount >= original.Amount-balanceTolerance {
		if err := s.ledgerRepo.MarkRefunded(ctx, tx, original.ID); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("mark purchase refunded: %w", err))
		}
		original.Status = domain.LedgerStatusRefunded
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit refund: %w", err))
	}

	s.log.Info().
		Str("owner_id", req.OwnerID.String()).
		Str("original_transaction_id", original.ID.String()).
		Float64("amount", amount).
		Msg("refund processed")

	return &ports.RefundResult{
		Original: original,
		Credit:   credit,
		Amount:   amount,
	}, nil
}
