package postgres

import (
	"context"
	"errors"
	"fmt"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MissionRepo implements ports.MissionRepository.
type MissionRepo struct {
	pool Pool
}

// NewMissionRepo creates a new MissionRepo.
func NewMissionRepo(pool Pool) *MissionRepo {
	return &MissionRepo{pool: pool}
}

const missionColumns = `id, name, type, target_value, target_category, target_merchant, reward_amount, reward_kind, is_active, end_date`

const progressColumns = `id, owner_id, mission_id, progress, is_completed, reward_claimed, completed_at, enrolled_at, updated_at`

func scanMission(row pgx.Row) (*domain.Mission, error) {
	m := &domain.Mission{}
	err := row.Scan(
		&m.ID, &m.Name, &m.Type, &m.TargetValue, &m.TargetCategory,
		&m.TargetMerchant, &m.RewardAmount, &m.RewardKind, &m.IsActive, &m.EndDate,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanProgress(row pgx.Row) (*domain.UserMissionProgress, error) {
	p := &domain.UserMissionProgress{}
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.MissionID, &p.Progress, &p.IsCompleted,
		&p.RewardClaimed, &p.CompletedAt, &p.EnrolledAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetMission fetches a mission definition.
func (r *MissionRepo) GetMission(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = $1`

	m, err := scanMission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

// CreateProgress inserts an enrollment record.
func (r *MissionRepo) CreateProgress(ctx context.Context, p *domain.UserMissionProgress) error {
	query := `INSERT INTO user_mission_progress (id, owner_id, mission_id, progress, is_completed, reward_claimed, completed_at, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OwnerID, p.MissionID, p.Progress, p.IsCompleted,
		p.RewardClaimed, p.CompletedAt, p.EnrolledAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mission progress: %w", err)
	}
	return nil
}

// GetProgress fetches one owner's enrollment in one mission.
func (r *MissionRepo) GetProgress(ctx context.Context, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_mission_progress WHERE owner_id = $1 AND mission_id = $2`

	p, err := scanProgress(r.pool.QueryRow(ctx, query, ownerID, missionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mission progress: %w", err)
	}
	return p, nil
}

// GetProgressForUpdate fetches one enrollment with a row lock. Must be called
// within a transaction.
func (r *MissionRepo) GetProgressForUpdate(ctx context.Context, tx pgx.Tx, ownerID, missionID uuid.UUID) (*domain.UserMissionProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_mission_progress WHERE owner_id = $1 AND mission_id = $2 FOR UPDATE`

	p, err := scanProgress(tx.QueryRow(ctx, query, ownerID, missionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mission progress for update: %w", err)
	}
	return p, nil
}

// ListOpenProgressByOwner returns the owner's not-yet-completed enrollments.
func (r *MissionRepo) ListOpenProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_mission_progress WHERE owner_id = $1 AND is_completed = FALSE`
	return r.listProgress(ctx, query, ownerID)
}

// ListProgressByOwner returns all of the owner's enrollments.
func (r *MissionRepo) ListProgressByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_mission_progress WHERE owner_id = $1 ORDER BY enrolled_at DESC`
	return r.listProgress(ctx, query, ownerID)
}

func (r *MissionRepo) listProgress(ctx context.Context, query string, ownerID uuid.UUID) ([]domain.UserMissionProgress, error) {
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list mission progress: %w", err)
	}
	defer rows.Close()

	var out []domain.UserMissionProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission progress: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mission progress: %w", err)
	}
	return out, nil
}

// UpdateProgress writes an enrollment's progress and completion flags within
// a transaction. The write only lands on a not-yet-completed row; completion
// stays one-way even if the caller raced past the row lock.
func (r *MissionRepo) UpdateProgress(ctx context.Context, tx pgx.Tx, p *domain.UserMissionProgress) error {
	query := `UPDATE user_mission_progress SET progress = $1, is_completed = $2,
		completed_at = $3, updated_at = $4 WHERE id = $5 AND is_completed = FALSE`

	tag, err := tx.Exec(ctx, query,
		p.Progress, p.IsCompleted, p.CompletedAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update mission progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mission progress not open: %s", p.ID)
	}
	return nil
}

// MarkRewardClaimed flips the claim flag on a completed enrollment exactly once.
func (r *MissionRepo) MarkRewardClaimed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `UPDATE user_mission_progress SET reward_claimed = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_completed = TRUE AND reward_claimed = FALSE`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark reward claimed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no unclaimed completed progress: %s", id)
	}
	return nil
}
