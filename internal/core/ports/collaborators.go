package ports

//go:generate mockgen -destination=mocks/collaborators_mock.go -package=mocks yield-wallet/internal/core/ports FXService,CardNetwork

import (
	"context"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// FXService is the currency-rate collaborator. Rates are always positive;
// Convert applies the configured markup when includeMarkup is true.
type FXService interface {
	GetRate(ctx context.Context, from, to string) (float64, error)
	Convert(ctx context.Context, amount float64, from, to string, includeMarkup bool) (*domain.FXQuote, error)
}

// CardNetwork is the external card-network collaborator. Calls are bounded,
// synchronous, and carry no transactional guarantees: an authorization that
// succeeds here has not yet debited the wallet.
type CardNetwork interface {
	Authorize(ctx context.Context, req NetworkAuthRequest) (*NetworkAuthResult, error)
	Capture(ctx context.Context, authorizationID string, amount float64) (*NetworkCaptureResult, error)
}

// NetworkAuthRequest is the authorize call payload.
type NetworkAuthRequest struct {
	CardLast4  string
	OwnerID    uuid.UUID
	MerchantID uuid.UUID
	Amount     float64
	Currency   string
}

// NetworkAuthResult is the authorize call outcome. Approved false is a
// decline, not an error.
type NetworkAuthResult struct {
	Approved        bool   `json:"approved"`
	AuthorizationID string `json:"authorization_id"`
	Status          string `json:"status"`
}

// NetworkCaptureResult is the capture call outcome.
type NetworkCaptureResult struct {
	CaptureID string `json:"capture_id"`
	Status    string `json:"status"`
}
