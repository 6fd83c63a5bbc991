package schema

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse parses an entity definition from YAML bytes.
func Parse(data []byte) (Entity, error) {
	var ent Entity
	if err := yaml.Unmarshal(data, &ent); err != nil {
		return Entity{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := Validate(ent); err != nil {
		return Entity{}, fmt.Errorf("validate entity %q: %w", ent.Name, err)
	}

	return ent, nil
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Validate validates an entity definition.
func Validate(ent Entity) error {
	var errs []string

	if ent.Name == "" {
		errs = append(errs, "entity name is required")
	} else if !identifierPattern.MatchString(ent.Name) {
		errs = append(errs, fmt.Sprintf("entity name %q is not a valid identifier", ent.Name))
	}

	if ent.Table == "" {
		errs = append(errs, "table is required")
	}

	if len(ent.Create) == 0 && len(ent.Update) == 0 && len(ent.Query) == 0 {
		errs = append(errs, "at least one of create, update or query is required")
	}

	for _, s := range ent.Order {
		if _, err := ParseOrder(s); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if ent.Scope != "" {
		if _, ok := ent.Query.Get(ent.Scope); !ok {
			errs = append(errs, fmt.Sprintf("scope %q is not a query field", ent.Scope))
		}
	}

	for _, group := range []struct {
		name   string
		fields Fields
	}{{"create", ent.Create}, {"update", ent.Update}, {"query", ent.Query}, {"stored", ent.Stored}} {
		for _, f := range group.fields {
			errs = append(errs, validateField(group.name+"."+f.Name, f)...)
		}
	}

	for _, f := range ent.Query {
		errs = append(errs, validateQueryField(ent.Query, f)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateField validates a single field definition and its children.
func validateField(path string, f Field) []string {
	var errs []string

	if f.Name != "" && !identifierPattern.MatchString(f.Name) {
		errs = append(errs, fmt.Sprintf("field %q: name is not a valid identifier", path))
	}

	switch f.Type {
	case FieldTypeString, FieldTypeNumber, FieldTypeBool, FieldTypeDate:
	case FieldTypeEnum:
		if len(f.Values) == 0 {
			errs = append(errs, fmt.Sprintf("field %q: enum type requires values", path))
		}
	case FieldTypeArray:
		if f.Items == nil {
			errs = append(errs, fmt.Sprintf("field %q: array type requires items", path))
		} else {
			errs = append(errs, validateField(path+".items", *f.Items)...)
		}
	case FieldTypeObject:
		for _, child := range f.Fields {
			errs = append(errs, validateField(path+"."+child.Name, child)...)
		}
	default:
		errs = append(errs, fmt.Sprintf("field %q: unknown type %q", path, f.Type))
	}

	if f.Required && f.HasDefault() {
		errs = append(errs, fmt.Sprintf("field %q: required fields cannot have a default", path))
	}

	if f.Codec != "" && f.Type != FieldTypeArray && f.Type != FieldTypeObject {
		errs = append(errs, fmt.Sprintf("field %q: codec requires an array or object type", path))
	}

	for _, c := range f.Constraints {
		if err := validateConstraintDef(c); err != nil {
			errs = append(errs, fmt.Sprintf("field %q: %v", path, err))
		}
	}

	return errs
}

func validateConstraintDef(c Constraint) error {
	switch c.Type {
	case ConstraintMin:
		if _, err := toFloat64(c.Value); err != nil {
			return fmt.Errorf("constraint %s requires a numeric value", c.Type)
		}
	case ConstraintMinLength, ConstraintMaxLength, ConstraintMinItems:
		if _, err := toInt(c.Value); err != nil {
			return fmt.Errorf("constraint %s requires an integer value", c.Type)
		}
	case ConstraintPositive, ConstraintURL:
	default:
		return fmt.Errorf("unknown constraint %q", c.Type)
	}
	return nil
}

func validateQueryField(query Fields, f Field) []string {
	var errs []string
	switch f.Filter {
	case FilterNone, FilterEquals, FilterGte, FilterLte:
	case FilterFlag:
		if f.Type != FieldTypeBool {
			errs = append(errs, fmt.Sprintf("query field %q: flag filter requires a bool", f.Name))
		}
	case FilterTagsAny:
		if f.Type != FieldTypeString {
			errs = append(errs, fmt.Sprintf("query field %q: tags_any filter requires a string", f.Name))
		}
	default:
		errs = append(errs, fmt.Sprintf("query field %q: unknown filter %q", f.Name, f.Filter))
	}
	if f.Type == FieldTypeArray || f.Type == FieldTypeObject {
		errs = append(errs, fmt.Sprintf("query field %q: query fields must be scalar", f.Name))
	}
	if f.Requires != "" {
		if _, ok := query.Get(f.Requires); !ok {
			errs = append(errs, fmt.Sprintf("query field %q: requires unknown field %q", f.Name, f.Requires))
		}
	}
	return errs
}
