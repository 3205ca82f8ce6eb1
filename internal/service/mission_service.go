package service

import (
	"context"
	"fmt"
	"time"

	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MissionServiceImpl implements ports.MissionService. Progress is monotonic
// and completion is one-way: each enrollment is advanced inside its own
// transaction with the progress row locked, so of two concurrent evaluations
// exactly one flips completion and pays the reward.
type MissionServiceImpl struct {
	missionRepo ports.MissionRepository
	walletSvc   ports.WalletService
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewMissionService creates a new MissionServiceImpl.
func NewMissionService(missionRepo ports.MissionRepository, walletSvc ports.WalletService, transactor ports.DBTransactor, log zerolog.Logger) *MissionServiceImpl {
	return &MissionServiceImpl{
		missionRepo: missionRepo,
		walletSvc:   walletSvc,
		transactor:  transactor,
		log:         log,
	}
}

// Enroll creates a progress record for an active, non-expired mission.
func (s *MissionServiceImpl) Enroll(ctx context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	mission, err := s.missionRepo.GetMission(ctx, missionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get mission: %w", err))
	}
	if mission == nil {
		return nil, apperror.ErrNotFound("mission")
	}
	now := time.Now().UTC()
	if !mission.IsActive || mission.IsExpired(now) {
		return nil, apperror.Validation("mission is not open for enrollment")
	}

	existing, err := s.missionRepo.GetProgress(ctx, ownerID, missionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check enrollment: %w", err))
	}
	if existing != nil {
		return nil, apperror.Validation("already enrolled in this mission")
	}

	progress := &domain.UserMissionProgress{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		MissionID:  missionID,
		Progress:   0,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if err := s.missionRepo.CreateProgress(ctx, progress); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create enrollment: %w", err))
	}

	s.log.Info().
		Str("owner_id", ownerID.String()).
		Str("mission_id", missionID.String()).
		Msg("mission enrollment created")
	return progress, nil
}

// EvaluatePurchase advances every open enrollment against a just-settled
// purchase and pays out rewards the instant a mission completes.
func (s *MissionServiceImpl) EvaluatePurchase(ctx context.Context, ownerID uuid.UUID, purchase ports.PurchaseEvent) ([]ports.MissionUpdate, error) {
	enrollments, err := s.missionRepo.ListOpenProgressByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list enrollments: %w", err))
	}

	now := time.Now().UTC()
	var updates []ports.MissionUpdate

	for i := range enrollments {
		update, mission, progressID, err := s.advanceEnrollment(ctx, ownerID, enrollments[i].MissionID, purchase, now)
		if err != nil {
			return nil, err
		}
		if update == nil {
			continue
		}

		// This call flipped completion, so it alone pays the reward. The
		// credit runs after the progress commit; a claim failure leaves the
		// flag false so a later sweep can retry the payout.
		if update.Completed && mission != nil {
			if err := s.claimReward(ctx, ownerID, mission); err != nil {
				s.log.Error().Err(err).
					Str("mission_id", mission.ID.String()).
					Msg("reward claim failed on completion")
			} else if err := s.markRewardClaimed(ctx, progressID); err != nil {
				s.log.Error().Err(err).
					Str("mission_id", mission.ID.String()).
					Msg("failed to record reward claim")
			} else {
				update.RewardClaimed = true
				update.RewardAmount = mission.RewardAmount
			}
		}

		updates = append(updates, *update)
	}

	return updates, nil
}

// advanceEnrollment applies one purchase to one enrollment inside its own
// transaction. The progress row is relocked and re-read, so a concurrent
// evaluation that already completed the mission is observed and skipped.
func (s *MissionServiceImpl) advanceEnrollment(ctx context.Context, ownerID, missionID uuid.UUID, purchase ports.PurchaseEvent, now time.Time) (*ports.MissionUpdate, *domain.Mission, uuid.UUID, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, uuid.Nil, apperror.InternalError(fmt.Errorf("begin progress tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	progress, err := s.missionRepo.GetProgressForUpdate(ctx, tx, ownerID, missionID)
	if err != nil {
		return nil, nil, uuid.Nil, apperror.InternalError(fmt.Errorf("lock progress: %w", err))
	}
	if progress == nil || progress.IsCompleted {
		return nil, nil, uuid.Nil, nil
	}

	mission, err := s.missionRepo.GetMission(ctx, progress.MissionID)
	if err != nil {
		return nil, nil, uuid.Nil, apperror.InternalError(fmt.Errorf("get mission %s: %w", progress.MissionID, err))
	}
	if mission == nil || !mission.IsActive || mission.IsExpired(now) {
		return nil, nil, uuid.Nil, nil
	}

	increment := missionIncrement(mission, purchase)
	if increment <= 0 {
		return nil, nil, uuid.Nil, nil
	}

	progress.Progress += increment
	progress.UpdatedAt = now
	if progress.Progress >= mission.TargetValue {
		progress.IsCompleted = true
		progress.CompletedAt = &now
	}

	if err := s.missionRepo.UpdateProgress(ctx, tx, progress); err != nil {
		return nil, nil, uuid.Nil, apperror.InternalError(fmt.Errorf("update progress: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, uuid.Nil, apperror.InternalError(fmt.Errorf("commit progress: %w", err))
	}

	return &ports.MissionUpdate{
		MissionID:   mission.ID,
		MissionName: mission.Name,
		Progress:    progress.Progress,
		TargetValue: mission.TargetValue,
		Completed:   progress.IsCompleted,
	}, mission, progress.ID, nil
}

// markRewardClaimed flips the one-way claim flag after a successful payout.
func (s *MissionServiceImpl) markRewardClaimed(ctx context.Context, progressID uuid.UUID) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.missionRepo.MarkRewardClaimed(ctx, tx, progressID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// claimReward pays out a completed mission. CASHBACK goes through the credit
// reconciler, so it follows the wallet's auto-stake policy; POINTS and MILES
// are recorded as non-cash rewards without a wallet credit.
func (s *MissionServiceImpl) claimReward(ctx context.Context, ownerID uuid.UUID, mission *domain.Mission) error {
	if mission.RewardKind != domain.RewardKindCashback {
		s.log.Info().
			Str("mission_id", mission.ID.String()).
			Str("reward_kind", string(mission.RewardKind)).
			Float64("amount", mission.RewardAmount).
			Msg("non-cash mission reward claimed")
		return nil
	}

	_, err := s.walletSvc.Credit(ctx, ownerID, mission.RewardAmount, domain.LedgerKindMissionReward, map[string]any{
		"mission_id":   mission.ID.String(),
		"mission_name": mission.Name,
		"reward_kind":  string(mission.RewardKind),
	})
	return err
}

// ListEnrollments returns the user's enrollments joined with their missions.
func (s *MissionServiceImpl) ListEnrollments(ctx context.Context, ownerID uuid.UUID) ([]ports.EnrollmentView, error) {
	enrollments, err := s.missionRepo.ListProgressByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list enrollments: %w", err))
	}

	views := make([]ports.EnrollmentView, 0, len(enrollments))
	for i := range enrollments {
		mission, err := s.missionRepo.GetMission(ctx, enrollments[i].MissionID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get mission: %w", err))
		}
		views = append(views, ports.EnrollmentView{
			Mission:  mission,
			Progress: &enrollments[i],
		})
	}
	return views, nil
}

// missionIncrement applies the type-specific progress rule. MULTI_COUNTRY
// counts qualifying transactions; country uniqueness is a known
// simplification.
func missionIncrement(mission *domain.Mission, purchase ports.PurchaseEvent) float64 {
	switch mission.Type {
	case domain.MissionTypeSpendAmount:
		return purchase.Amount
	case domain.MissionTypeSpendCategory:
		if mission.TargetCategory != nil && *mission.TargetCategory == purchase.MerchantCategory {
			return purchase.Amount
		}
	case domain.MissionTypeSpendMerchant:
		if mission.TargetMerchant != nil && *mission.TargetMerchant == purchase.MerchantID {
			return purchase.Amount
		}
	case domain.MissionTypeMultiCountry:
		return 1
	}
	return 0
}
