package domain

import (
	"time"

	"github.com/google/uuid"
)

// MissionType selects the progress rule applied per qualifying purchase.
type MissionType string

const (
	MissionTypeSpendAmount   MissionType = "SPEND_AMOUNT"
	MissionTypeSpendCategory MissionType = "SPEND_CATEGORY"
	MissionTypeSpendMerchant MissionType = "SPEND_MERCHANT"
	MissionTypeMultiCountry  MissionType = "MULTI_COUNTRY"
)

// RewardKind is the currency of a mission reward.
type RewardKind string

const (
	RewardKindCashback RewardKind = "CASHBACK"
	RewardKindPoints   RewardKind = "POINTS"
	RewardKindMiles    RewardKind = "MILES"
)

// Mission is an externally managed campaign definition.
type Mission struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Type           MissionType `json:"type"`
	TargetValue    float64     `json:"target_value"`
	TargetCategory *string     `json:"target_category,omitempty"`
	TargetMerchant *uuid.UUID  `json:"target_merchant,omitempty"`
	RewardAmount   float64     `json:"reward_amount"`
	RewardKind     RewardKind  `json:"reward_kind"`
	IsActive       bool        `json:"is_active"`
	EndDate        *time.Time  `json:"end_date,omitempty"`
}

// IsExpired reports whether the mission's end date has passed.
func (m *Mission) IsExpired(now time.Time) bool {
	return m.EndDate != nil && now.After(*m.EndDate)
}

// UserMissionProgress tracks one user's enrollment in a mission.
// IsCompleted and RewardClaimed are one-way flags: once true, never reset.
type UserMissionProgress struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	MissionID     uuid.UUID  `json:"mission_id"`
	Progress      float64    `json:"progress"`
	IsCompleted   bool       `json:"is_completed"`
	RewardClaimed bool       `json:"reward_claimed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	EnrolledAt    time.Time  `json:"enrolled_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
