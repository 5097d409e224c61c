package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/pockettcg/collector/collector/database/models"
)

// UserCardRepository is the ownership row-store: one row per (user, card)
// with quantity and trade policy.
type UserCardRepository interface {
	List(ctx context.Context, userID string, offset, limit int) ([]*models.UserCard, error)
	Upsert(ctx context.Context, row *models.UserCard) error
	Delete(ctx context.Context, userID, cardID string) error
	BulkReplace(ctx context.Context, userID string, rows []*models.UserCard) error
}

type userCardRepository struct {
	db *bun.DB
}

func NewUserCardRepository(db *bun.DB) UserCardRepository {
	return &userCardRepository{db: db}
}

// List returns one page of a user's rows, ordered by card id so pagination
// is stable across calls.
func (r *userCardRepository) List(ctx context.Context, userID string, offset, limit int) ([]*models.UserCard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var rows []*models.UserCard
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("card_id ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user cards: %w", err)
	}
	return rows, nil
}

func (r *userCardRepository) Upsert(ctx context.Context, row *models.UserCard) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	now := time.Now()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id, card_id) DO UPDATE").
		Set("quantity = EXCLUDED.quantity").
		Set("minimum_keep_count = EXCLUDED.minimum_keep_count").
		Set("allow_trade = EXCLUDED.allow_trade").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert user card: %w", err)
	}
	return nil
}

func (r *userCardRepository) Delete(ctx context.Context, userID, cardID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	_, err := r.db.NewDelete().
		Model((*models.UserCard)(nil)).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user card: %w", err)
	}
	return nil
}

// BulkReplace swaps a user's entire collection in one transaction: delete
// everything, then insert the new rows.
func (r *userCardRepository) BulkReplace(ctx context.Context, userID string, rows []*models.UserCard) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.UserCard)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear user collection: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		now := time.Now()
		for _, row := range rows {
			row.UserID = userID
			row.CreatedAt = now
			row.UpdatedAt = now
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert user collection: %w", err)
		}
		return nil
	})
}
