// Package reward provides the coin ledger value type.
package reward

import "time"

// MemoryCoins is the default award for recording a memory.
const MemoryCoins = 10

// Transaction is one coin award (immutable value type).
type Transaction struct {
	ID          string    `json:"id"`
	CoupleID    string    `json:"couple_id"`
	CoinsEarned int       `json:"coins_earned"`
	Activity    string    `json:"activity"`
	CreatedAt   time.Time `json:"created_at"`
}

// New builds a transaction.
// This is a PURE function.
func New(id, coupleID string, coins int, activity string, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		CoupleID:    coupleID,
		CoinsEarned: coins,
		Activity:    activity,
		CreatedAt:   now,
	}
}
