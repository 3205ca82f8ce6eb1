package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerKind classifies a ledger entry.
type LedgerKind string

const (
	LedgerKindTopup         LedgerKind = "TOPUP"
	LedgerKindPurchase      LedgerKind = "PURCHASE"
	LedgerKindRefund        LedgerKind = "REFUND"
	LedgerKindStake         LedgerKind = "STAKE"
	LedgerKindUnstake       LedgerKind = "UNSTAKE"
	LedgerKindYield         LedgerKind = "YIELD"
	LedgerKindMissionReward LedgerKind = "MISSION_REWARD"
)

// LedgerStatus is the settlement state of a ledger entry.
type LedgerStatus string

const (
	LedgerStatusCompleted LedgerStatus = "COMPLETED"
	LedgerStatusRefunded  LedgerStatus = "REFUNDED"
)

// LedgerEntry is an append-only record of value movement on a wallet.
// Entries are never mutated after creation, except for the one-way
// COMPLETED -> REFUNDED status flip on a refunded purchase.
type LedgerEntry struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Kind        LedgerKind     `json:"kind"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	MerchantID  *uuid.UUID     `json:"merchant_id,omitempty"`
	Description string         `json:"description"`
	Status      LedgerStatus   `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"` // FX quote, auto-unstake audit detail
	CreatedAt   time.Time      `json:"created_at"`
}

// IsRefundable reports whether this entry is a purchase that can be refunded.
func (e *LedgerEntry) IsRefundable() bool {
	return e.Kind == LedgerKindPurchase && e.Status == LedgerStatusCompleted
}
