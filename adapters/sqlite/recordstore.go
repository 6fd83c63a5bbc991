package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/storage"
	"github.com/artpar/familyhub/ports"
)

// RecordStore implements ports.RecordStore using SQLite.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new SQLite record store.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// FindMany returns matching rows in order.
func (s *RecordStore) FindMany(ctx context.Context, table string, f query.Filter, order []schema.OrderBy) ([]ports.Row, error) {
	q, args, err := storage.BuildSelectSQL(table, f, order)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := []ports.Row{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, textColumns(row))
	}
	return out, rows.Err()
}

// Get returns one row by id.
func (s *RecordStore) Get(ctx context.Context, table, id string) (ports.Row, error) {
	q, err := storage.BuildGetSQL(table)
	if err != nil {
		return nil, err
	}

	row := make(map[string]any)
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(q), id).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return textColumns(row), nil
}

// Insert stores a new row.
func (s *RecordStore) Insert(ctx context.Context, table string, row ports.Row) error {
	q, args, err := storage.BuildInsertSQL(table, row)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update sets the given columns of one row.
func (s *RecordStore) Update(ctx context.Context, table, id string, row ports.Row) error {
	q, args, err := storage.BuildUpdateSQL(table, id, row)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return requireRow(res)
}

// Delete removes one row.
func (s *RecordStore) Delete(ctx context.Context, table, id string) error {
	q, err := storage.BuildDeleteSQL(table)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return requireRow(res)
}

// textColumns turns driver byte slices into strings.
func textColumns(row ports.Row) ports.Row {
	for col, v := range row {
		if b, ok := v.([]byte); ok {
			row[col] = string(b)
		}
	}
	return row
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Ensure interface compliance.
var _ ports.RecordStore = (*RecordStore)(nil)
