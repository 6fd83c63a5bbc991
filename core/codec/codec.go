// Package codec converts structured column values to and from the JSON text
// stored in serialized columns.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// ErrMalformed marks stored text that is not a valid encoding for its kind.
var ErrMalformed = errors.New("malformed column data")

// ErrUnknownKind is returned for a kind with no registered shape.
var ErrUnknownKind = errors.New("unknown column kind")

// Error is raised when a serialized column cannot be encoded or decoded.
// It signals corrupt data or schema drift rather than bad client input.
type Error struct {
	Kind   string
	Column string // empty when not decoding a stored row
	Op     string // "encode" or "decode"
	Err    error
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("codec %s %s (column %s): %v", e.Op, e.Kind, e.Column, e.Err)
	}
	return fmt.Sprintf("codec %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Shape is the top-level JSON shape of a column kind.
type Shape int

const (
	ShapeArray Shape = iota
	ShapeObject
)

// Column kinds.
const (
	KindItems          = "items"
	KindTags           = "tags"
	KindIngredients    = "ingredients"
	KindNutrition      = "nutrition"
	KindMeals          = "meals"
	KindPartners       = "partners"
	KindAIReasoning    = "ai_reasoning"
	KindCompletionData = "completion_data"
)

var shapes = map[string]Shape{
	KindItems:          ShapeArray,
	KindTags:           ShapeArray,
	KindIngredients:    ShapeArray,
	KindNutrition:      ShapeObject,
	KindMeals:          ShapeObject,
	KindPartners:       ShapeArray,
	KindAIReasoning:    ShapeObject,
	KindCompletionData: ShapeObject,
}

// Kinds returns every registered kind, sorted.
func Kinds() []string {
	out := make([]string, 0, len(shapes))
	for k := range shapes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ShapeOf returns the shape of kind.
func ShapeOf(kind string) (Shape, error) {
	s, ok := shapes[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s, nil
}

// Encode renders v as the canonical text for kind.
// A nil object encodes to SQL NULL, reported as ok=false. A nil array
// encodes to "[]" so that absence and emptiness stay distinct only for objects.
func Encode(kind string, v any) (text string, ok bool, err error) {
	shape, err := ShapeOf(kind)
	if err != nil {
		return "", false, &Error{Kind: kind, Op: "encode", Err: err}
	}

	if v == nil {
		if shape == ShapeArray {
			return "[]", true, nil
		}
		return "", false, nil
	}

	if !matchesShape(shape, v) {
		return "", false, &Error{Kind: kind, Op: "encode", Err: fmt.Errorf("%w: expected %s, got %T", ErrMalformed, shape, v)}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", false, &Error{Kind: kind, Op: "encode", Err: err}
	}
	return string(data), true, nil
}

// Decode parses stored text for kind. A column that was never written
// (valid=false) decodes to an empty array or to nil for object kinds.
// Anything else that is not well-formed JSON of the right shape is an *Error.
func Decode(kind string, text string, valid bool) (any, error) {
	shape, err := ShapeOf(kind)
	if err != nil {
		return nil, &Error{Kind: kind, Op: "decode", Err: err}
	}

	if !valid {
		if shape == ShapeArray {
			return []any{}, nil
		}
		return nil, nil
	}

	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, &Error{Kind: kind, Op: "decode", Err: fmt.Errorf("%w: empty text", ErrMalformed)}
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, &Error{Kind: kind, Op: "decode", Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	if v == nil {
		// Literal "null" in an object column is the same as never written.
		if shape == ShapeObject {
			return nil, nil
		}
		return nil, &Error{Kind: kind, Op: "decode", Err: fmt.Errorf("%w: null array", ErrMalformed)}
	}

	if !matchesShape(shape, v) {
		return nil, &Error{Kind: kind, Op: "decode", Err: fmt.Errorf("%w: expected %s, got %T", ErrMalformed, shape, v)}
	}
	return v, nil
}

// DecodeString is Decode for a column known to be written.
func DecodeString(kind, text string) (any, error) {
	return Decode(kind, text, true)
}

// EncodeString is Encode for a value known to be present.
func EncodeString(kind string, v any) (string, error) {
	text, _, err := Encode(kind, v)
	return text, err
}

func (s Shape) String() string {
	if s == ShapeObject {
		return "object"
	}
	return "array"
}

func matchesShape(shape Shape, v any) bool {
	switch v.(type) {
	case []any, []string, []map[string]any:
		return shape == ShapeArray
	case map[string]any, map[string]string:
		return shape == ShapeObject
	}
	return false
}
