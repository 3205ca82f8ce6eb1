package ports

import (
	"context"
	"time"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Yield / staking (the rate engine and share ledger) ---

// YieldService owns the lending pool exchange rate and APR and accrues
// interest over elapsed wall-clock time. Accrual is driven externally (the
// scheduler or the explicit trigger endpoint), never implicitly per call.
type YieldService interface {
	Accrue(ctx context.Context, now time.Time) (*AccrualResult, error)
	SetAPR(ctx context.Context, apr float64) error
	PoolStats(ctx context.Context) (*PoolStats, error)
}

// AccrualResult reports one accrual window.
type AccrualResult struct {
	ExchangeRate   float64   `json:"exchange_rate"`
	InterestEarned float64   `json:"interest_earned"`
	SecondsElapsed float64   `json:"seconds_elapsed"`
	AccruedAt      time.Time `json:"accrued_at"`
}

// PoolStats is the public view of the pool for dashboards.
type PoolStats struct {
	APRRate             float64   `json:"apr_rate"`
	APY                 float64   `json:"apy"`
	ExchangeRate        float64   `json:"exchange_rate"`
	TotalPrincipal      float64   `json:"total_principal"`
	TotalInterestEarned float64   `json:"total_interest_earned"`
	LastAccrualAt       time.Time `json:"last_accrual_at"`
}

// StakingService converts between fiat value and pool shares. Both methods
// mutate the passed pool and persist it inside the caller's transaction; the
// caller holds the pool row lock.
type StakingService interface {
	IssueShares(ctx context.Context, tx pgx.Tx, pool *domain.LendingPool, amount float64) (float64, error)
	RedeemShares(ctx context.Context, tx pgx.Tx, pool *domain.LendingPool, shares float64) (float64, error)
}

// --- Wallet credit/debit reconciliation ---

// WalletService is the single entry point for adding value to a wallet and
// for wallet preference/read operations. Credit applies the wallet's
// auto-stake policy and never fails for a positive amount except on storage
// errors: a pool rejection falls back to a liquid credit.
type WalletService interface {
	Credit(ctx context.Context, ownerID uuid.UUID, amount float64, kind domain.LedgerKind, meta map[string]any) (*CreditResult, error)
	Topup(ctx context.Context, ownerID uuid.UUID, amount float64, currency string) (*CreditResult, error)
	SetAutoStake(ctx context.Context, ownerID uuid.UUID, enabled bool) (*domain.WalletAccount, error)
	Snapshot(ctx context.Context, ownerID uuid.UUID) (*WalletSnapshot, error)
	Ledger(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

// CreditResult reports how a credit was applied.
type CreditResult struct {
	Entry        *domain.LedgerEntry `json:"entry"`
	Staked       bool                `json:"staked"`
	SharesIssued float64             `json:"shares_issued,omitempty"`
	Wallet       *WalletSnapshot     `json:"wallet"`
}

// WalletSnapshot is the post-operation wallet view with derived values.
type WalletSnapshot struct {
	WalletID         uuid.UUID `json:"wallet_id"`
	Balance          float64   `json:"balance"`
	Shares           float64   `json:"shares"`
	ExchangeRate     float64   `json:"exchange_rate"`
	StakedValue      float64   `json:"staked_value"`
	TotalAvailable   float64   `json:"total_available"`
	AutoStakeEnabled bool      `json:"auto_stake_enabled"`
	YieldEarned      float64   `json:"yield_earned"`
	Currency         string    `json:"currency"`
}

// FundsReconciler moves value in and out of a wallet inside the caller's
// transaction, with both the wallet and pool rows locked; mutations are
// persisted in-tx. EnsureLiquid is the auto-unstake path that tops up the
// liquid balance from staked value until the required amount is covered, or
// fails with InsufficientFunds / AutoUnstakeFailed. CreditFunds is the in-tx
// credit path applying the wallet's auto-stake policy.
type FundsReconciler interface {
	EnsureLiquid(ctx context.Context, tx pgx.Tx, wallet *domain.WalletAccount, pool *domain.LendingPool, required float64) (*UnstakeResult, error)
	CreditFunds(ctx context.Context, tx pgx.Tx, wallet *domain.WalletAccount, pool *domain.LendingPool, amount float64, kind domain.LedgerKind, meta map[string]any) (*CreditResult, error)
}

// UnstakeResult reports what EnsureLiquid had to do.
type UnstakeResult struct {
	Performed    bool    `json:"performed"`
	Amount       float64 `json:"amount,omitempty"`
	SharesBurned float64 `json:"shares_burned,omitempty"`
	YieldPortion float64 `json:"yield_portion,omitempty"`
}

// --- Purchase authorization ---

// PurchaseService orchestrates a point-of-sale purchase end to end and the
// refund path back through the credit reconciler.
type PurchaseService interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// AuthorizeRequest holds validated input for a purchase authorization.
type AuthorizeRequest struct {
	OwnerID    uuid.UUID
	CardNumber string
	MerchantID uuid.UUID
	Amount     float64
	Currency   string // Empty = merchant's pricing currency
}

// AuthorizeResult is the assembled outcome of a settled purchase.
type AuthorizeResult struct {
	Transaction     *domain.LedgerEntry `json:"transaction"`
	AuthorizationID string              `json:"authorization_id"`
	CaptureID       string              `json:"capture_id,omitempty"`
	CaptureStatus   string              `json:"capture_status"`
	SettlementAmt   float64             `json:"settlement_amount"`
	FXQuote         *domain.FXQuote     `json:"fx_quote,omitempty"`
	Unstake         *UnstakeResult      `json:"auto_unstake,omitempty"`
	Missions        []MissionUpdate     `json:"missions,omitempty"`
	Wallet          *WalletSnapshot     `json:"wallet"`
}

// RefundRequest holds validated input for a refund.
type RefundRequest struct {
	OwnerID       uuid.UUID
	TransactionID uuid.UUID
	Amount        *float64 // nil = full refund
}

// RefundResult reports a processed refund.
type RefundResult struct {
	Original *domain.LedgerEntry `json:"original"`
	Credit   *CreditResult       `json:"credit"`
	Amount   float64             `json:"amount"`
}

// --- Missions ---

// MissionService advances mission enrollments on settled purchases and pays
// out rewards through the wallet credit path the moment a mission completes.
type MissionService interface {
	Enroll(ctx context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error)
	EvaluatePurchase(ctx context.Context, ownerID uuid.UUID, purchase PurchaseEvent) ([]MissionUpdate, error)
	ListEnrollments(ctx context.Context, ownerID uuid.UUID) ([]EnrollmentView, error)
}

// PurchaseEvent is the settled-purchase fact missions are evaluated against.
type PurchaseEvent struct {
	Amount           float64
	Currency         string
	MerchantID       uuid.UUID
	MerchantCategory string
	MerchantCountry  string
}

// MissionUpdate reports one enrollment's change from an evaluation.
type MissionUpdate struct {
	MissionID     uuid.UUID `json:"mission_id"`
	MissionName   string    `json:"mission_name"`
	Progress      float64   `json:"progress"`
	TargetValue   float64   `json:"target_value"`
	Completed     bool      `json:"completed"`
	RewardClaimed bool      `json:"reward_claimed"`
	RewardAmount  float64   `json:"reward_amount,omitempty"`
}

// EnrollmentView joins an enrollment with its mission definition.
type EnrollmentView struct {
	Mission  *domain.Mission             `json:"mission"`
	Progress *domain.UserMissionProgress `json:"progress"`
}

// --- Identity ---

// AuthService defines registration and login for wallet owners.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry
}

// RegisterResult holds the provisioning outcome. CardNumber is the full PAN,
// shown only once at registration and never stored.
type RegisterResult struct {
	User       *domain.User `json:"user"`
	WalletID   uuid.UUID    `json:"wallet_id"`
	CardNumber string       `json:"card_number"`
	CardLast4  string       `json:"card_last4"`
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
