package postgres

import (
	"context"
	"errors"
	"fmt"

	"yield-wallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

// Create inserts a card. Only the number hash and last four digits are
// persisted.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (id, owner_id, number_hash, last4, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.OwnerID, c.NumberHash, c.Last4, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByNumberHash fetches a card by its number hash.
func (r *CardRepo) GetByNumberHash(ctx context.Context, hash string) (*domain.Card, error) {
	query := `SELECT id, owner_id, number_hash, last4, status, created_at FROM cards WHERE number_hash = $1`

	c := &domain.Card{}
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&c.ID, &c.OwnerID, &c.NumberHash, &c.Last4, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by hash: %w", err)
	}
	return c, nil
}
