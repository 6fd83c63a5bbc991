// Package validation checks raw input against entity schemas and produces a
// normalized value with defaults applied, or the complete list of failures.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/familyhub/core/schema"
)

// Validator validates input data against the schema registry.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry *schema.Registry
}

// New creates a validator over reg.
func New(reg *schema.Registry) *Validator {
	return &Validator{registry: reg}
}

// Registry returns the registry the validator reads from.
func (v *Validator) Registry() *schema.Registry {
	return v.registry
}

// Validate looks up (entity, op) and validates raw against it.
// The error is non-nil only for an unknown schema; bad input is reported
// through the result.
func (v *Validator) Validate(entity string, op schema.Operation, raw any) (schema.ValidationResult, error) {
	s, err := v.registry.Lookup(entity, op)
	if err != nil {
		return schema.ValidationResult{}, err
	}
	return ValidateSchema(s, raw), nil
}

// ValidateSchema walks s and raw together and collects every failure.
// Query schemas accept text for number and bool fields.
// This is a PURE function.
func ValidateSchema(s schema.Schema, raw any) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}

	obj, ok := asObject(raw)
	if !ok {
		result.AddError("", schema.CodeInvalidType, "Input must be an object")
		return result
	}

	w := walker{result: &result, queryMode: s.QueryMode()}
	value := w.object(s.Fields, obj, "")

	if result.Valid {
		result.Value = value
	}
	return result
}

type walker struct {
	result    *schema.ValidationResult
	queryMode bool
}

// object validates each declared field. Undeclared keys are dropped.
func (w walker) object(fields schema.Fields, obj map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(fields))

	for _, f := range fields {
		path := joinPath(prefix, f.Name)
		raw, present := obj[f.Name]

		if !present {
			if f.Required {
				w.result.AddError(path, schema.CodeRequired, f.DisplayName()+" is required")
			} else if f.HasDefault() {
				out[f.Name] = cloneDefault(f.Default)
			}
			continue
		}

		if raw == nil {
			if f.Nullable {
				out[f.Name] = nil
			} else {
				w.typeError(path, f)
			}
			continue
		}

		if val, ok := w.field(f, raw, path); ok {
			out[f.Name] = val
		}
	}

	return out
}

// field normalizes one present, non-null value and checks its constraints.
func (w walker) field(f schema.Field, raw any, path string) (any, bool) {
	if f.Sentinel != "" {
		if s, ok := raw.(string); ok && s == f.Sentinel {
			return s, true
		}
	}

	var val any
	switch f.Type {
	case schema.FieldTypeString:
		s, ok := raw.(string)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		val = s

	case schema.FieldTypeNumber:
		n, ok := w.number(raw)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		val = n

	case schema.FieldTypeBool:
		b, ok := w.boolean(raw)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		val = b

	case schema.FieldTypeDate:
		t, ok := parseDate(raw)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		val = t

	case schema.FieldTypeEnum:
		s, ok := raw.(string)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		if !f.AcceptsValue(s) {
			w.result.AddError(path, schema.CodeInvalidEnum,
				fmt.Sprintf("%s must be one of: %s", f.DisplayName(), strings.Join(f.Values, ", ")))
			return nil, false
		}
		val = s

	case schema.FieldTypeArray:
		return w.array(f, raw, path)

	case schema.FieldTypeObject:
		obj, ok := asObject(raw)
		if !ok {
			w.typeError(path, f)
			return nil, false
		}
		if f.IsFreeForm() {
			val = deepCopy(obj)
		} else {
			val = w.object(f.Fields, obj, path)
		}

	default:
		w.result.AddError(path, schema.CodeInvalidType, fmt.Sprintf("%s has unsupported type %q", f.DisplayName(), f.Type))
		return nil, false
	}

	w.constraints(f, val, path)
	return val, true
}

// array checks the element count first, then every element.
func (w walker) array(f schema.Field, raw any, path string) (any, bool) {
	items, ok := asArray(raw)
	if !ok {
		w.typeError(path, f)
		return nil, false
	}

	w.constraints(f, items, path)

	elem := *f.Items
	if elem.Label == "" && elem.Name == "" {
		elem.Label = singular(f.DisplayName())
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := joinPath(path, strconv.Itoa(i))
		if item == nil {
			if elem.Nullable {
				out = append(out, nil)
			} else {
				w.typeError(itemPath, elem)
			}
			continue
		}
		if val, ok := w.field(elem, item, itemPath); ok {
			out = append(out, val)
		}
	}
	return out, true
}

func (w walker) constraints(f schema.Field, val any, path string) {
	for _, c := range f.Constraints {
		if err := schema.ValidateConstraint(path, val, c); err != nil {
			w.result.Errors = append(w.result.Errors, *err)
			w.result.Valid = false
		}
	}
}

func (w walker) typeError(path string, f schema.Field) {
	kind := f.Type.Kind()
	article := "a"
	if strings.ContainsRune("aeiou", rune(kind[0])) {
		article = "an"
	}
	w.result.AddError(path, schema.CodeInvalidType, fmt.Sprintf("%s must be %s %s", f.DisplayName(), article, kind))
}

// number accepts Go numerics, json.Number-like values and, for queries,
// numeric text. NaN and infinities are never numbers here.
func (w walker) number(raw any) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		if !w.queryMode {
			return 0, false
		}
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func (w walker) boolean(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		if !w.queryMode {
			return false, false
		}
		switch v {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// parseDate accepts an ISO-8601 datetime string or a time.Time.
func parseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func asArray(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func cloneDefault(v any) any {
	return deepCopy(v)
}

// deepCopy copies maps and slices so normalized output never aliases input
// or schema defaults.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// singular derives an element label from an array label: "Ingredients"
// becomes "Ingredient", "Snacks" becomes "Snack".
func singular(label string) string {
	switch {
	case strings.HasSuffix(label, "ies"):
		return strings.TrimSuffix(label, "ies") + "y"
	case strings.HasSuffix(label, "ss"):
		return label
	case strings.HasSuffix(label, "s"):
		return strings.TrimSuffix(label, "s")
	}
	return label + " item"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
