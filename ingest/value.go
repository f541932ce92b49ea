package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/teranos/jolt/errors"
)

// Object is a JSON object that remembers the order its keys were read in.
//
// Values produced by Parse are one of: nil, bool, string, json.Number,
// []any or *Object.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// SyntaxError describes where a JSON parse failed.
type SyntaxError struct {
	Msg    string
	Offset int64 // 0-based offset of the offending byte
	Line   int   // 1-based
	Column int   // 1-based, in bytes
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Msg, e.Line, e.Column)
}

// Parse parses text as exactly one JSON value.
//
// The text is validated first so failures carry an offset, line and column;
// the value tree is then built with jsonparser so objects keep key order.
func Parse(text []byte) (any, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(text, &raw); err != nil {
		return nil, newSyntaxError(text, err)
	}

	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON value")
	}
	return convert(value, dataType)
}

// ParseString is Parse for string input
func ParseString(text string) (any, error) {
	return Parse([]byte(text))
}

func convert(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		obj, err := convertObject(value)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read JSON object")
		}
		return obj, nil

	case jsonparser.Array:
		arr := make([]any, 0)
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, cbErr error) {
			if inner != nil {
				return
			}
			if cbErr != nil {
				inner = cbErr
				return
			}
			child, err := convert(v, t)
			if err != nil {
				inner = err
				return
			}
			arr = append(arr, child)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read JSON array")
		}
		return arr, nil

	case jsonparser.String:
		if s, err := jsonparser.ParseString(value); err == nil {
			return s, nil
		}
		return unquote(value)

	case jsonparser.Number:
		return json.Number(string(value)), nil

	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read JSON boolean")
		}
		return b, nil

	case jsonparser.Null:
		return nil, nil

	default:
		return nil, errors.Newf("unsupported JSON value type %s", dataType)
	}
}

// convertObject walks the members of a validated object in input order.
// Keys go through encoding/json so every escape it accepts, lone
// surrogates included, decodes the same way.
func convertObject(value []byte) (*Object, error) {
	obj := NewObject()
	dec := json.NewDecoder(bytes.NewReader(value))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Newf("unexpected object key %v", tok)
		}

		var member json.RawMessage
		if err := dec.Decode(&member); err != nil {
			return nil, errors.Wrapf(err, "member %q", key)
		}
		v, dataType, _, err := jsonparser.Get(member)
		if err != nil {
			return nil, errors.Wrapf(err, "member %q", key)
		}
		child, err := convert(v, dataType)
		if err != nil {
			return nil, err
		}
		obj.Set(key, child)
	}
	return obj, nil
}

// unquote decodes the body of a JSON string that jsonparser could not
// unescape, such as one holding a lone surrogate escape
func unquote(body []byte) (string, error) {
	quoted := make([]byte, 0, len(body)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, body...)
	quoted = append(quoted, '"')

	var s string
	if err := json.Unmarshal(quoted, &s); err != nil {
		return "", errors.Wrap(err, "failed to unescape JSON string")
	}
	return s, nil
}

// newSyntaxError converts an encoding/json failure into a SyntaxError with
// line and column resolved against text.
func newSyntaxError(text []byte, err error) error {
	var offset int64
	msg := err.Error()

	var se *json.SyntaxError
	if errors.As(err, &se) {
		// encoding/json counts the offending byte as read
		offset = se.Offset - 1
		msg = se.Error()
	} else {
		offset = int64(len(text)) - 1
	}
	if offset < 0 {
		offset = 0
	}

	line, col := position(text, offset)
	return errors.WithStack(&SyntaxError{Msg: msg, Offset: offset, Line: line, Column: col})
}

// position resolves a byte offset to a 1-based line and column
func position(text []byte, offset int64) (int, int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	head := text[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	col := len(head) - bytes.LastIndexByte(head, '\n')
	return line, col
}

// TypeName names the JSON type of v for error messages
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any:
		return "array"
	case *Object, map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
