package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a wallet owner. Each user has exactly one wallet.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Argon2id, never expose
	CreatedAt    time.Time `json:"created_at"`
}
