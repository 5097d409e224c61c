package repositories

import (
	"context"

	"github.com/pockettcg/collector/collector/database/models"
	"github.com/pockettcg/collector/collector/ledger"
)

// LedgerStore adapts the user-card repository to the ledger's remote-store
// contract, translating between row models and ledger records.
type LedgerStore struct {
	repo UserCardRepository
}

func NewLedgerStore(repo UserCardRepository) *LedgerStore {
	return &LedgerStore{repo: repo}
}

func (s *LedgerStore) List(ctx context.Context, userID string, offset, limit int) ([]ledger.Row, error) {
	rows, err := s.repo.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledger.Row{
			CardID: row.CardID,
			Record: ledger.Record{
				Quantity:    row.Quantity,
				MinimumKeep: row.MinimumKeep,
				AllowTrade:  row.AllowTrade,
			},
		})
	}
	return out, nil
}

func (s *LedgerStore) Upsert(ctx context.Context, userID, cardID string, rec ledger.Record) error {
	return s.repo.Upsert(ctx, &models.UserCard{
		UserID:      userID,
		CardID:      cardID,
		Quantity:    rec.Quantity,
		MinimumKeep: rec.MinimumKeep,
		AllowTrade:  rec.AllowTrade,
	})
}

func (s *LedgerStore) Delete(ctx context.Context, userID, cardID string) error {
	return s.repo.Delete(ctx, userID, cardID)
}

func (s *LedgerStore) ReplaceAll(ctx context.Context, userID string, rows []ledger.Row) error {
	out := make([]*models.UserCard, 0, len(rows))
	for _, row := range rows {
		out = append(out, &models.UserCard{
			UserID:      userID,
			CardID:      row.CardID,
			Quantity:    row.Quantity,
			MinimumKeep: row.MinimumKeep,
			AllowTrade:  row.AllowTrade,
		})
	}
	return s.repo.BulkReplace(ctx, userID, out)
}
