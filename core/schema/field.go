package schema

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Field defines a single accepted input field.
type Field struct {
	// Name is the input key. Set from the YAML mapping key.
	Name string `yaml:"-" json:"name"`

	// Type is the field type. See FieldType constants.
	Type FieldType `yaml:"type" json:"type"`

	// Label is the human-readable name used in error messages.
	// Derived from Name when empty.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`

	// Description documents the field in the generated API document.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Required indicates this field must be present.
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Nullable allows an explicit null.
	Nullable bool `yaml:"nullable,omitempty" json:"nullable,omitempty"`

	// Default is substituted when the field is absent.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Values lists valid values for enum type fields.
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	// Sentinel is a literal accepted in addition to Values meaning "no filter".
	Sentinel string `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`

	// Items describes the elements of an array field.
	Items *Field `yaml:"items,omitempty" json:"items,omitempty"`

	// Fields describes the members of an object field.
	Fields Fields `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Constraints defines validation rules for this field.
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`

	// Column is the storage column. Defaults to the snake_case Name.
	Column string `yaml:"column,omitempty" json:"column,omitempty"`

	// Codec names the serialized-column kind for array and object fields.
	Codec string `yaml:"codec,omitempty" json:"codec,omitempty"`

	// Filter is the clause a query field produces.
	Filter FilterOp `yaml:"filter,omitempty" json:"filter,omitempty"`

	// Requires names another query field that must also be present
	// before this field produces a clause.
	Requires string `yaml:"requires,omitempty" json:"requires,omitempty"`
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeBool   FieldType = "bool"
	FieldTypeDate   FieldType = "date"
	FieldTypeEnum   FieldType = "enum"   // Requires Values
	FieldTypeArray  FieldType = "array"  // Requires Items
	FieldTypeObject FieldType = "object" // Free-form without Fields
)

// FilterOp identifies how a query field restricts a list.
type FilterOp string

const (
	FilterNone    FilterOp = ""
	FilterEquals  FilterOp = "equals"
	FilterGte     FilterOp = "gte"
	FilterLte     FilterOp = "lte"
	FilterFlag    FilterOp = "flag"     // only a true value restricts
	FilterTagsAny FilterOp = "tags_any" // applied after fetch
)

// Kind returns the noun used in type-mismatch messages.
func (t FieldType) Kind() string {
	switch t {
	case FieldTypeNumber:
		return "number"
	case FieldTypeBool:
		return "boolean"
	case FieldTypeDate:
		return "date"
	case FieldTypeArray:
		return "array"
	case FieldTypeObject:
		return "object"
	default:
		return "string"
	}
}

// DisplayName returns the label used in error messages.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return Humanize(f.Name)
}

// ColumnName returns the storage column for the field.
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return SnakeCase(f.Name)
}

// IsFreeForm reports whether an object field accepts any members.
func (f Field) IsFreeForm() bool {
	return f.Type == FieldTypeObject && len(f.Fields) == 0
}

// HasDefault reports whether a default is configured.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// AcceptsValue reports whether v is a permitted enum value or the sentinel.
func (f Field) AcceptsValue(v string) bool {
	if f.Sentinel != "" && v == f.Sentinel {
		return true
	}
	for _, allowed := range f.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// Fields is an ordered list of fields. In YAML it is a mapping whose key
// order is preserved.
type Fields []Field

// UnmarshalYAML decodes a mapping node while keeping key order.
func (fs *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	out := make(Fields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var f Field
		if err := val.Decode(&f); err != nil {
			return fmt.Errorf("field %s: %w", key.Value, err)
		}
		f.Name = key.Value
		out = append(out, f)
	}
	*fs = out
	return nil
}

// Get returns the field with the given name.
func (fs Fields) Get(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Humanize turns "totalBudget" into "Total budget".
func Humanize(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return name
	}
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}

// SnakeCase turns "totalBudget" into "total_budget".
func SnakeCase(name string) string {
	words := splitWords(name)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "_")
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = nil
			}
		case unicode.IsUpper(r) && len(cur) > 0:
			words = append(words, string(cur))
			cur = []rune{r}
		default:
			cur = append(cur, r)
		}
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}
