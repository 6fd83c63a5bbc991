package memory

import (
	"context"
	"sync"

	"github.com/artpar/familyhub/domain/reward"
	"github.com/artpar/familyhub/ports"
)

// RewardStore is an in-memory implementation of ports.RewardStore.
type RewardStore struct {
	mu  sync.RWMutex
	txs []reward.Transaction

	// Err, when set, is returned by Record.
	Err error
}

// NewRewardStore creates a new in-memory reward store.
func NewRewardStore() *RewardStore {
	return &RewardStore{}
}

// Record stores one coin award.
func (s *RewardStore) Record(ctx context.Context, tx reward.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.txs = append(s.txs, tx)
	return nil
}

// ListByCouple returns a couple's awards oldest first.
func (s *RewardStore) ListByCouple(ctx context.Context, coupleID string) ([]reward.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []reward.Transaction{}
	for _, tx := range s.txs {
		if tx.CoupleID == coupleID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Ensure interface compliance.
var _ ports.RewardStore = (*RewardStore)(nil)
