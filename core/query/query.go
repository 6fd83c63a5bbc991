// Package query turns URL query strings into validator input and turns
// validated query values into a schema-derived Filter.
package query

import (
	"net/url"
	"strings"

	"github.com/artpar/familyhub/core/schema"
)

// FromValues flattens a URL query into a string map. When a key repeats
// the last value wins.
// This is a PURE function.
func FromValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		out[key] = vals[len(vals)-1]
	}
	return out
}

// ClauseOp is the comparison a Clause performs.
type ClauseOp string

const (
	OpEquals ClauseOp = "="
	OpGte    ClauseOp = ">="
	OpLte    ClauseOp = "<="
)

// Clause restricts one column.
type Clause struct {
	Field  string
	Column string
	Op     ClauseOp
	Value  any
}

// Filter is the complete restriction for a list request. Clauses are applied
// by the store; Tags is applied to fetched rows by MatchAnyTag.
type Filter struct {
	Clauses []Clause
	Tags    []string
}

// Clause returns the clause for field, if any.
func (f Filter) Clause(field string) (Clause, bool) {
	for _, c := range f.Clauses {
		if c.Field == field {
			return c, true
		}
	}
	return Clause{}, false
}

// Build derives a Filter from a query schema and a validated value.
// Absent fields and sentinel values produce nothing. A field with Requires
// produces a clause only when the named field is present too.
// This is a PURE function.
func Build(s schema.Schema, value map[string]any) Filter {
	var f Filter

	for _, field := range s.Fields {
		v, ok := active(field, value)
		if !ok {
			continue
		}
		if field.Requires != "" {
			other, _ := s.Fields.Get(field.Requires)
			if _, ok := active(other, value); !ok {
				continue
			}
		}

		switch field.Filter {
		case schema.FilterEquals:
			f.Clauses = append(f.Clauses, Clause{Field: field.Name, Column: field.ColumnName(), Op: OpEquals, Value: v})
		case schema.FilterGte:
			f.Clauses = append(f.Clauses, Clause{Field: field.Name, Column: field.ColumnName(), Op: OpGte, Value: v})
		case schema.FilterLte:
			f.Clauses = append(f.Clauses, Clause{Field: field.Name, Column: field.ColumnName(), Op: OpLte, Value: v})
		case schema.FilterFlag:
			if b, _ := v.(bool); b {
				f.Clauses = append(f.Clauses, Clause{Field: field.Name, Column: field.ColumnName(), Op: OpEquals, Value: true})
			}
		case schema.FilterTagsAny:
			if s, ok := v.(string); ok {
				f.Tags = SplitTags(s)
			}
		}
	}

	return f
}

// active returns the value of field when it should restrict the list.
func active(field schema.Field, value map[string]any) (any, bool) {
	v, ok := value[field.Name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && field.Sentinel != "" && s == field.Sentinel {
		return nil, false
	}
	return v, true
}

// SplitTags splits a comma-separated tag list, dropping empty entries.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// MatchAnyTag reports whether rowTags contains at least one of want.
// An empty want matches everything.
func MatchAnyTag(rowTags []any, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, rt := range rowTags {
		s, ok := rt.(string)
		if !ok {
			continue
		}
		for _, w := range want {
			if s == w {
				return true
			}
		}
	}
	return false
}
