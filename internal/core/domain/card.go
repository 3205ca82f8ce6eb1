package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// CardStatus represents the state of a payment card.
type CardStatus string

const (
	CardStatusActive CardStatus = "ACTIVE"
	CardStatusFrozen CardStatus = "FROZEN"
)

// Card is a payment card linked to a wallet owner. The PAN is never stored;
// only its SHA-256 hash (for lookup) and the last four digits (for display).
type Card struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	NumberHash string     `json:"-"`
	Last4      string     `json:"last4"`
	Status     CardStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsActive returns true if the card can authorize purchases.
func (c *Card) IsActive() bool {
	return c.Status == CardStatusActive
}

// HashCardNumber derives the lookup hash for a card number.
func HashCardNumber(number string) string {
	sum := sha256.Sum256([]byte(number))
	return hex.EncodeToString(sum[:])
}

// CardLast4 returns the last four digits of a card number.
func CardLast4(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
