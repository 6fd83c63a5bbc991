package sqlite

import (
	"context"
	"fmt"

	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/domain/reward"
	"github.com/artpar/familyhub/ports"
)

// RewardStore implements ports.RewardStore using SQLite.
type RewardStore struct {
	db *DB
}

// NewRewardStore creates a new SQLite reward store.
func NewRewardStore(db *DB) *RewardStore {
	return &RewardStore{db: db}
}

// Record stores one coin award.
func (s *RewardStore) Record(ctx context.Context, tx reward.Transaction) error {
	q, err := s.db.query("insert-reward-transaction")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, tx.ID, tx.CoupleID, tx.CoinsEarned, tx.Activity, storage.FormatTime(tx.CreatedAt)); err != nil {
		return fmt.Errorf("insert reward transaction: %w", err)
	}
	return nil
}

type rewardRow struct {
	ID          string `db:"id"`
	CoupleID    string `db:"couple_id"`
	CoinsEarned int    `db:"coins_earned"`
	Activity    string `db:"activity"`
	CreatedAt   string `db:"created_at"`
}

// ListByCouple returns a couple's awards oldest first.
func (s *RewardStore) ListByCouple(ctx context.Context, coupleID string) ([]reward.Transaction, error) {
	q, err := s.db.query("list-reward-transactions-by-couple")
	if err != nil {
		return nil, err
	}
	var rows []rewardRow
	if err := s.db.SelectContext(ctx, &rows, q, coupleID); err != nil {
		return nil, fmt.Errorf("list reward transactions: %w", err)
	}

	out := make([]reward.Transaction, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, reward.Transaction{
			ID:          r.ID,
			CoupleID:    r.CoupleID,
			CoinsEarned: r.CoinsEarned,
			Activity:    r.Activity,
			CreatedAt:   created,
		})
	}
	return out, nil
}

// Ensure interface compliance.
var _ ports.RewardStore = (*RewardStore)(nil)
