// Package memory provides in-memory implementations of storage ports.
// They mirror the SQLite adapters closely enough to back service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/ports"
)

// RecordStore is an in-memory implementation of ports.RecordStore.
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]ports.Row // table -> id -> row
	order  map[string][]string             // table -> ids in insertion order
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		tables: make(map[string]map[string]ports.Row),
		order:  make(map[string][]string),
	}
}

// FindMany returns copies of matching rows sorted by order.
func (s *RecordStore) FindMany(ctx context.Context, table string, f query.Filter, order []schema.OrderBy) ([]ports.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []ports.Row{}
	for _, id := range s.order[table] {
		row, ok := s.tables[table][id]
		if !ok || !matches(row, f.Clauses) {
			continue
		}
		out = append(out, copyRow(row))
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range order {
			c := compare(out[i][o.Column], out[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

// Get returns a copy of one row.
func (s *RecordStore) Get(ctx context.Context, table, id string) (ports.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.tables[table][id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return copyRow(row), nil
}

// Insert stores a new row.
func (s *RecordStore) Insert(ctx context.Context, table string, row ports.Row) error {
	id, _ := row[storage.ColumnID].(string)
	if id == "" {
		return fmt.Errorf("insert %s: row has no id", table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[table] == nil {
		s.tables[table] = make(map[string]ports.Row)
	}
	if _, exists := s.tables[table][id]; exists {
		return fmt.Errorf("insert %s: duplicate id %q", table, id)
	}
	s.tables[table][id] = copyRow(row)
	s.order[table] = append(s.order[table], id)
	return nil
}

// Update sets the given columns of one row.
func (s *RecordStore) Update(ctx context.Context, table, id string, row ports.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tables[table][id]
	if !ok {
		return ports.ErrNotFound
	}
	for col, v := range row {
		existing[col] = v
	}
	return nil
}

// Delete removes one row.
func (s *RecordStore) Delete(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table][id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.tables[table], id)
	ids := s.order[table]
	for i, v := range ids {
		if v == id {
			s.order[table] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func matches(row ports.Row, clauses []query.Clause) bool {
	for _, c := range clauses {
		v := row[c.Column]
		want := storage.FormatValue(c.Value)
		if v == nil || want == nil {
			return false
		}
		cmp := compare(v, want)
		switch c.Op {
		case query.OpEquals:
			if cmp != 0 {
				return false
			}
		case query.OpGte:
			if cmp < 0 {
				return false
			}
		case query.OpLte:
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders values the way SQLite does for the types stored here:
// NULL first, then numbers (bools as 0/1), then text.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, fb := number(a), number(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 2
	default:
		return 1
	}
}

func number(v any) float64 {
	switch n := v.(type) {
	case bool:
		if n {
			return 1
		}
		return 0
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func copyRow(row ports.Row) ports.Row {
	out := make(ports.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Ensure interface compliance.
var _ ports.RecordStore = (*RecordStore)(nil)
