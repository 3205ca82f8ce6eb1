package dto

import (
	"time"

	"yield-wallet/internal/core/ports"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// RegisterResponse is returned once at registration. CardNumber is the only
// time the full PAN is ever shown.
type RegisterResponse struct {
	UserID     string `json:"user_id"`
	WalletID   string `json:"wallet_id"`
	CardNumber string `json:"card_number"`
	CardLast4  string `json:"card_last4"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// TopupRequest is the request body for a wallet top-up.
type TopupRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"omitempty,currency"`
}

// AutoStakeRequest toggles the wallet's auto-stake preference.
type AutoStakeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// LedgerQuery bounds the ledger listing.
type LedgerQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// AuthorizeRequest is the request body for a point-of-sale purchase.
type AuthorizeRequest struct {
	CardNumber string  `json:"card_number" binding:"required,len=16,numeric"`
	MerchantID string  `json:"merchant_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"omitempty,currency"`
}

// RefundRequest is the request body for refunding a purchase. Amount omitted
// means a full refund.
type RefundRequest struct {
	TransactionID string   `json:"transaction_id" binding:"required,uuid"`
	Amount        *float64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
}

// EnrollRequest is the request body for a mission enrollment.
type EnrollRequest struct {
	MissionID string `json:"mission_id" binding:"required,uuid"`
}

// AccrueRequest optionally pins the accrual timestamp; zero means now.
type AccrueRequest struct {
	Now *time.Time `json:"now,omitempty"`
}

// SetAPRRequest is the request body for updating the pool APR.
type SetAPRRequest struct {
	APR *float64 `json:"apr" binding:"required,gte=0,lte=1"`
}

// WalletResponse is the wallet view returned from wallet and purchase
// endpoints.
type WalletResponse struct {
	WalletID         string  `json:"wallet_id"`
	Balance          float64 `json:"balance"`
	Shares           float64 `json:"shares"`
	ExchangeRate     float64 `json:"exchange_rate"`
	StakedValue      float64 `json:"staked_value"`
	TotalAvailable   float64 `json:"total_available"`
	AutoStakeEnabled bool    `json:"auto_stake_enabled"`
	YieldEarned      float64 `json:"yield_earned"`
	Currency         string  `json:"currency"`
}

// WalletFromSnapshot maps a service snapshot to the response shape.
func WalletFromSnapshot(s *ports.WalletSnapshot) *WalletResponse {
	if s == nil {
		return nil
	}
	return &WalletResponse{
		WalletID:         s.WalletID.String(),
		Balance:          s.Balance,
		Shares:           s.Shares,
		ExchangeRate:     s.ExchangeRate,
		StakedValue:      s.StakedValue,
		TotalAvailable:   s.TotalAvailable,
		AutoStakeEnabled: s.AutoStakeEnabled,
		YieldEarned:      s.YieldEarned,
		Currency:         s.Currency,
	}
}
