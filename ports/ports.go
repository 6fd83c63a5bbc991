// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/domain/activity"
	"github.com/artpar/familyhub/domain/reward"
)

// ErrNotFound is returned by stores when no row has the requested id.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// Row is one stored record keyed by column name. Values are driver values:
// serialized columns hold text and dates hold TimeLayout text.
type Row = map[string]any

// RecordStore persists schema-defined entities in their tables.
type RecordStore interface {
	// FindMany returns rows of table matching every clause of f, in order.
	// f.Tags is not applied here.
	FindMany(ctx context.Context, table string, f query.Filter, order []schema.OrderBy) ([]Row, error)

	// Get returns one row or ErrNotFound.
	Get(ctx context.Context, table, id string) (Row, error)

	// Insert stores a new row. The row carries its own id.
	Insert(ctx context.Context, table string, row Row) error

	// Update sets the given columns of one row. Returns ErrNotFound when
	// no row has id.
	Update(ctx context.Context, table, id string, row Row) error

	// Delete removes one row. Returns ErrNotFound when no row has id.
	Delete(ctx context.Context, table, id string) error
}

// ActivityStore reads scheduled activities and applies status transitions.
type ActivityStore interface {
	// ListForCouple returns the scheduled activities of every child of the
	// couple with their templates, ordered by scheduled time.
	ListForCouple(ctx context.Context, coupleID string) ([]activity.Scheduled, error)

	// Get returns one scheduled activity or ErrNotFound.
	Get(ctx context.Context, id string) (activity.Scheduled, error)

	// Apply writes the transition atomically: the status change and, when
	// present, the storybook entry commit together or not at all.
	Apply(ctx context.Context, t activity.Transition) error
}

// RewardStore records coin awards.
type RewardStore interface {
	Record(ctx context.Context, tx reward.Transaction) error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics receives service-level counters.
type Metrics interface {
	ValidationFailed(entity, operation string)
	CodecFailed(column string)
	CoinsAwarded(n int)
}
