package codec

import (
	"errors"
	"fmt"

	"github.com/artpar/familyhub/core/schema"
)

// EncodeRow replaces every structured value in row that belongs to a
// serialized column with its stored text. Columns absent from row are left
// absent so partial updates do not touch them.
func EncodeRow(cols []schema.CodecColumn, row map[string]any) error {
	for _, c := range cols {
		v, present := row[c.Column]
		if !present {
			continue
		}
		text, ok, err := Encode(c.Codec, v)
		if err != nil {
			return withColumn(err, c.Column)
		}
		if ok {
			row[c.Column] = text
		} else {
			row[c.Column] = nil
		}
	}
	return nil
}

// DecodeRow replaces stored text in row with structured values.
// Missing and NULL columns decode as never written.
func DecodeRow(cols []schema.CodecColumn, row map[string]any) error {
	for _, c := range cols {
		var (
			v   any
			err error
		)
		switch raw := row[c.Column].(type) {
		case nil:
			v, err = Decode(c.Codec, "", false)
		case string:
			v, err = Decode(c.Codec, raw, true)
		case []byte:
			v, err = Decode(c.Codec, string(raw), true)
		case []any, map[string]any:
			v = raw
		default:
			v, err = nil, &Error{Kind: c.Codec, Op: "decode", Err: fmt.Errorf("%w: unexpected stored type %T", ErrMalformed, raw)}
		}
		if err != nil {
			return withColumn(err, c.Column)
		}
		row[c.Column] = v
	}
	return nil
}

func withColumn(err error, column string) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Column = column
		return ce
	}
	return err
}
