// Package storage maps validated entity values onto table rows and builds the
// parameterized SQL used by the relational adapters.
package storage

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
)

// TimeLayout is the stored text form of dates. Fixed width keeps lexical
// order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Implicit columns present on every record table.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ToRow renames validated field values to their storage columns and converts
// dates to TimeLayout text. Fields not in fields are dropped.
// This is a PURE function.
func ToRow(fields schema.Fields, value map[string]any) map[string]any {
	row := make(map[string]any, len(value))
	for _, f := range fields {
		v, ok := value[f.Name]
		if !ok {
			continue
		}
		row[f.ColumnName()] = FormatValue(v)
	}
	return row
}

// FormatValue converts a normalized value into a driver argument.
func FormatValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return FormatTime(t)
	default:
		return v
	}
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ColumnTypes maps every known column of ent to its field type.
func ColumnTypes(ent schema.Entity) map[string]schema.FieldType {
	types := map[string]schema.FieldType{
		ColumnID:        schema.FieldTypeString,
		ColumnCreatedAt: schema.FieldTypeDate,
		ColumnUpdatedAt: schema.FieldTypeDate,
	}
	for _, group := range []schema.Fields{ent.Create, ent.Update, ent.Stored} {
		for _, f := range group {
			types[f.ColumnName()] = f.Type
		}
	}
	return types
}

// FromRow converts driver values read from storage into response values:
// byte slices become strings and SQLite integers in bool columns become bools.
func FromRow(types map[string]schema.FieldType, row map[string]any) map[string]any {
	for col, v := range row {
		switch t := v.(type) {
		case []byte:
			row[col] = string(t)
		case int64:
			if types[col] == schema.FieldTypeBool {
				row[col] = t != 0
			} else if types[col] == schema.FieldTypeNumber {
				row[col] = float64(t)
			}
		case time.Time:
			row[col] = FormatTime(t)
		}
	}
	return row
}

// BuildSelectSQL generates a filtered, ordered SELECT over table.
// Only Filter.Clauses are pushed down; Filter.Tags is applied by the caller.
func BuildSelectSQL(table string, f query.Filter, order []schema.OrderBy) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}

	var (
		conditions []string
		args       []any
	)
	for _, c := range f.Clauses {
		if err := checkIdent(c.Column); err != nil {
			return "", nil, err
		}
		switch c.Op {
		case query.OpEquals, query.OpGte, query.OpLte:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
		conditions = append(conditions, fmt.Sprintf("%s %s ?", c.Column, c.Op))
		args = append(args, FormatValue(c.Value))
	}

	sql := "SELECT * FROM " + table
	if len(conditions) > 0 {
		sql += " WHERE " + strings.Join(conditions, " AND ")
	}

	if len(order) > 0 {
		terms := make([]string, 0, len(order))
		for _, o := range order {
			if err := checkIdent(o.Column); err != nil {
				return "", nil, err
			}
			terms = append(terms, o.String())
		}
		sql += " ORDER BY " + strings.Join(terms, ", ")
	}

	return sql, args, nil
}

// BuildInsertSQL generates an INSERT for row. Columns are sorted so the
// statement text is deterministic.
func BuildInsertSQL(table string, row map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	cols := sortedColumns(row)
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no columns", table)
	}

	args := make([]any, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		if err := checkIdent(c); err != nil {
			return "", nil, err
		}
		args[i] = row[c]
		placeholders[i] = "?"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// BuildUpdateSQL generates an UPDATE of the given columns for one id.
func BuildUpdateSQL(table, id string, row map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	cols := sortedColumns(row)
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("update %s: no columns", table)
	}

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		if err := checkIdent(c); err != nil {
			return "", nil, err
		}
		sets[i] = c + " = ?"
		args = append(args, row[c])
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	return sql, args, nil
}

// BuildGetSQL generates a single-row lookup by id.
func BuildGetSQL(table string) (string, error) {
	if err := checkIdent(table); err != nil {
		return "", err
	}
	return "SELECT * FROM " + table + " WHERE id = ?", nil
}

// BuildDeleteSQL generates a single-row delete by id.
func BuildDeleteSQL(table string) (string, error) {
	if err := checkIdent(table); err != nil {
		return "", err
	}
	return "DELETE FROM " + table + " WHERE id = ?", nil
}

func sortedColumns(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
