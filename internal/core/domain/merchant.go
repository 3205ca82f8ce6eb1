package domain

import (
	"time"

	"github.com/google/uuid"
)

// MerchantStatus represents the state of a merchant record.
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "ACTIVE"
	MerchantStatusSuspended MerchantStatus = "SUSPENDED"
)

// Merchant is a point-of-sale counterparty from the externally managed
// merchant directory. Currency is the merchant's pricing currency; purchases
// in it are converted to the wallet's settlement currency before funds check.
type Merchant struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	Country   string         `json:"country"`
	Currency  string         `json:"currency"`
	Status    MerchantStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsActive returns true if the merchant can accept purchases.
func (m *Merchant) IsActive() bool {
	return m.Status == MerchantStatusActive
}
