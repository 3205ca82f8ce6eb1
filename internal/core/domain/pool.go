package domain

import (
	"time"

	"github.com/google/uuid"
)

// LendingPool is the single pooled lending position all staked wallets share.
// ExchangeRate is the fiat price of one share; it starts at 1.0 and never
// decreases while the APR is non-negative. ExchangeRate and TotalPrincipal are
// only updated together, at accrual time.
type LendingPool struct {
	ID                  uuid.UUID `json:"id"`
	APRRate             float64   `json:"apr_rate"` // [0, 1]
	ExchangeRate        float64   `json:"exchange_rate"`
	TotalPrincipal      float64   `json:"total_principal"`
	TotalInterestEarned float64   `json:"total_interest_earned"`
	LastAccrualAt       time.Time `json:"last_accrual_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CanRedeem reports whether the pool holds enough principal to pay out the
// given number of shares at the current rate. A small tolerance absorbs
// floating point drift from issue/redeem round trips.
func (p *LendingPool) CanRedeem(shares float64) bool {
	return shares*p.ExchangeRate <= p.TotalPrincipal+redeemTolerance
}

const redeemTolerance = 1e-9
