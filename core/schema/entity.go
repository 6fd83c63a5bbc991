package schema

import (
	"fmt"
	"strings"
)

// Operation identifies which input shape of an entity is requested.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpQuery  Operation = "query"
)

// Operations lists every operation in lookup order.
var Operations = []Operation{OpCreate, OpUpdate, OpQuery}

// Entity is a parsed entity definition.
type Entity struct {
	// Name is the registry key (e.g. "grocery_list").
	Name string `yaml:"entity"`

	// Table is the storage table.
	Table string `yaml:"table"`

	// Path is the URL collection segment (e.g. "grocery-lists").
	Path string `yaml:"path,omitempty"`

	Description string `yaml:"description,omitempty"`

	// Scope names the query field that partitions rows by tenant.
	Scope string `yaml:"scope,omitempty"`

	// Order is the default list ordering, e.g. ["date desc", "created_at desc"].
	Order []string `yaml:"order,omitempty"`

	Create Fields `yaml:"create,omitempty"`

	// Update is normally derived from Create. Set it only for entities
	// whose update shape is unrelated to creation.
	Update Fields `yaml:"update,omitempty"`

	Query Fields `yaml:"query,omitempty"`

	// Stored lists server-managed columns that are not accepted as input.
	Stored Fields `yaml:"stored,omitempty"`
}

// Schema is one (entity, operation) input shape.
type Schema struct {
	Entity    string
	Operation Operation
	Fields    Fields
}

// QueryMode reports whether inputs arrive as query-string text.
func (s Schema) QueryMode() bool {
	return s.Operation == OpQuery
}

// Schema builds the input shape for op. The second result is false when
// the entity does not support op.
func (e Entity) Schema(op Operation) (Schema, bool) {
	var fields Fields
	switch op {
	case OpCreate:
		fields = e.Create
	case OpUpdate:
		if len(e.Update) > 0 {
			fields = e.Update
		} else {
			fields = partial(e.Create)
		}
	case OpQuery:
		fields = e.Query
	}
	if len(fields) == 0 {
		return Schema{}, false
	}
	return Schema{Entity: e.Name, Operation: op, Fields: fields}, true
}

// partial makes every top-level field optional and drops top-level defaults.
// Nested element defaults are kept so that new array elements are complete.
func partial(fields Fields) Fields {
	out := make(Fields, len(fields))
	for i, f := range fields {
		f.Required = false
		f.Default = nil
		out[i] = f
	}
	return out
}

// OrderBy is one ordering term.
type OrderBy struct {
	Column string
	Desc   bool
}

func (o OrderBy) String() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// ParseOrder parses "column [asc|desc]".
func ParseOrder(s string) (OrderBy, error) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return OrderBy{Column: parts[0]}, nil
	case 2:
		switch strings.ToLower(parts[1]) {
		case "asc":
			return OrderBy{Column: parts[0]}, nil
		case "desc":
			return OrderBy{Column: parts[0], Desc: true}, nil
		}
	}
	return OrderBy{}, fmt.Errorf("invalid order %q", s)
}

// Ordering returns the parsed default ordering.
// Definitions are validated on parse, so malformed terms never reach here.
func (e Entity) Ordering() []OrderBy {
	out := make([]OrderBy, 0, len(e.Order))
	for _, s := range e.Order {
		if o, err := ParseOrder(s); err == nil {
			out = append(out, o)
		}
	}
	return out
}

// CodecColumn pairs a storage column with its serialized-column kind.
type CodecColumn struct {
	Column string
	Codec  string
}

// CodecColumns lists every column of the entity that holds serialized data.
func (e Entity) CodecColumns() []CodecColumn {
	var out []CodecColumn
	seen := make(map[string]bool)
	for _, group := range []Fields{e.Create, e.Update, e.Stored} {
		for _, f := range group {
			if f.Codec == "" || seen[f.ColumnName()] {
				continue
			}
			seen[f.ColumnName()] = true
			out = append(out, CodecColumn{Column: f.ColumnName(), Codec: f.Codec})
		}
	}
	return out
}

// CollectionPath returns the URL segment of the entity: its configured
// path, or the dashed plural of its name.
func (e Entity) CollectionPath() string {
	if e.Path != "" {
		return e.Path
	}
	return strings.ReplaceAll(e.Name, "_", "-") + "s"
}

// ScopeField returns the tenancy field of the query schema, if any.
func (e Entity) ScopeField() (Field, bool) {
	if e.Scope == "" {
		return Field{}, false
	}
	return e.Query.Get(e.Scope)
}
