package ports

import (
	"context"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallet accounts.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking; every balance/share mutation goes through such a block.
type WalletRepository interface {
	Create(ctx context.Context, w *domain.WalletAccount) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error)
	GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error)
	// UpdateFunds writes the wallet's balance, shares, yield counter and
	// share cost basis within a transaction.
	UpdateFunds(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error
	SetAutoStake(ctx context.Context, ownerID uuid.UUID, enabled bool) error
}

// PoolRepository defines persistence operations for the lending pool.
// The pool is a single row addressed by an explicit, injected ID.
type PoolRepository interface {
	Create(ctx context.Context, p *domain.LendingPool) error
	Get(ctx context.Context, id uuid.UUID) (*domain.LendingPool, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.LendingPool, error)
	Update(ctx context.Context, tx pgx.Tx, p *domain.LendingPool) error
}

// LedgerRepository defines persistence for the append-only ledger.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
	// MarkRefunded flips a purchase entry's status to REFUNDED (one-way).
	MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	// SumRefundedForPurchase returns the total refunded so far against a
	// purchase. Runs inside the caller's transaction so the sum is read under
	// the same locks that guard the refund credit.
	SumRefundedForPurchase(ctx context.Context, tx pgx.Tx, originalID uuid.UUID) (float64, error)
}

// MissionRepository defines persistence for missions and enrollments.
type MissionRepository interface {
	GetMission(ctx context.Context, id uuid.UUID) (*domain.Mission, error)
	CreateProgress(ctx context.Context, p *domain.UserMissionProgress) error
	GetProgress(ctx context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error)
	// GetProgressForUpdate fetches one enrollment with a row lock. Must be
	// called within a transaction.
	GetProgressForUpdate(ctx context.Context, tx pgx.Tx, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error)
	ListOpenProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error)
	ListProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error)
	// UpdateProgress writes an enrollment's progress and completion flags.
	// The write only lands on a not-yet-completed row, so completion is
	// one-way even without the row lock.
	UpdateProgress(ctx context.Context, tx pgx.Tx, p *domain.UserMissionProgress) error
	// MarkRewardClaimed flips the claim flag on a completed enrollment
	// exactly once.
	MarkRewardClaimed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// CardRepository defines persistence for payment cards.
type CardRepository interface {
	Create(ctx context.Context, c *domain.Card) error
	GetByNumberHash(ctx context.Context, hash string) (*domain.Card, error)
}

// MerchantRepository defines read access to the merchant directory.
type MerchantRepository interface {
	Create(ctx context.Context, m *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
}

// UserRepository defines persistence for wallet owners.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
