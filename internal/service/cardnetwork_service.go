package service

import (
	"context"
	"fmt"
	"time"

	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SimulatedCardNetwork implements ports.CardNetwork with deterministic local
// behavior: authorizations above the single-transaction limit are declined,
// everything else is approved. It honors context cancellation so the bounded
// call contract holds.
type SimulatedCardNetwork struct {
	singleTxLimit float64
	log           zerolog.Logger
}

// NewSimulatedCardNetwork creates a card network simulator.
func NewSimulatedCardNetwork(singleTxLimit float64, log zerolog.Logger) *SimulatedCardNetwork {
	return &SimulatedCardNetwork{
		singleTxLimit: singleTxLimit,
		log:           log,
	}
}

// Authorize approves or declines a purchase. A decline is a normal result,
// not an error.
func (n *SimulatedCardNetwork) Authorize(ctx context.Context, req ports.NetworkAuthRequest) (*ports.NetworkAuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("network authorize: %w", err)
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	if n.singleTxLimit > 0 && req.Amount > n.singleTxLimit {
		n.log.Info().
			Float64("amount", req.Amount).
			Float64("limit", n.singleTxLimit).
			Msg("simulated network declined over-limit authorization")
		return &ports.NetworkAuthResult{
			Approved: false,
			Status:   "DECLINED_LIMIT",
		}, nil
	}

	return &ports.NetworkAuthResult{
		Approved:        true,
		AuthorizationID: fmt.Sprintf("AUTH-%s-%d", uuid.New().String()[:8], time.Now().UnixMilli()),
		Status:          "APPROVED",
	}, nil
}

// Capture settles a previously approved authorization.
func (n *SimulatedCardNetwork) Capture(ctx context.Context, authorizationID string, amount float64) (*ports.NetworkCaptureResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("network capture: %w", err)
	}
	if authorizationID == "" {
		return nil, apperror.Validation("missing authorization id")
	}

	return &ports.NetworkCaptureResult{
		CaptureID: fmt.Sprintf("CAP-%s-%d", uuid.New().String()[:8], time.Now().UnixMilli()),
		Status:    "CAPTURED",
	}, nil
}
