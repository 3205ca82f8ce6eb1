package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletAccount is a user's custodial wallet. Balance is the liquid portion;
// Shares is a claim on the lending pool whose fiat value depends on the pool's
// current exchange rate. Balance and Shares must never go negative.
type WalletAccount struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"owner_id"`
	Balance          float64   `json:"balance"`
	Shares           float64   `json:"shares"`
	AutoStakeEnabled bool      `json:"auto_stake_enabled"`
	// AvgIssueRate is the share-weighted average exchange rate at which the
	// current shares were issued; zero when the wallet holds no shares.
	AvgIssueRate float64 `json:"avg_issue_rate"`
	YieldEarned  float64 `json:"yield_earned"` // Informational running total
	Currency         string    `json:"currency"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StakedValue returns the fiat value of the wallet's shares at the given
// exchange rate.
func (w *WalletAccount) StakedValue(exchangeRate float64) float64 {
	return w.Shares * exchangeRate
}

// TotalAvailable returns liquid balance plus staked value.
func (w *WalletAccount) TotalAvailable(exchangeRate float64) float64 {
	return w.Balance + w.StakedValue(exchangeRate)
}

// IssueRateBasis returns the cost basis used to split a redemption into
// principal and realized yield. Falls back to the launch rate of 1.0 for
// wallets whose shares predate basis tracking.
func (w *WalletAccount) IssueRateBasis() float64 {
	if w.AvgIssueRate > 0 {
		return w.AvgIssueRate
	}
	return 1.0
}
