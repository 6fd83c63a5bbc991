// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/artpar/familyhub/ports"
)

// UUID generates random version 4 UUIDs for record ids.
type UUID struct{}

// New returns a new UUID string.
func (UUID) New() string {
	return uuid.NewString()
}

// Sequential generates predictable ids such as "rec-1", "rec-2" for tests.
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential creates a sequential generator whose ids start with prefix.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next id.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

// Reset restarts numbering at 1.
func (s *Sequential) Reset() {
	s.n.Store(0)
}

// Valid reports whether id is a well-formed UUID.
func Valid(id string) bool {
	return uuid.Validate(id) == nil
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
