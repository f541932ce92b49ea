package ingest

import (
	"encoding/json"
	"io"

	"github.com/teranos/jolt/errors"
)

// ParseDocument parses the entire input as one JSON value.
//
// On failure the returned error is marked with errors.ErrDocumentParse and
// still unwraps to a *SyntaxError. No partial value is ever returned.
func ParseDocument(text []byte) (any, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrDocumentParse)
	}
	return v, nil
}

// decodeDocument is the streaming form of ParseDocument used for files.
//
// It decodes exactly one value and then requires end of input, so a JSONL or
// log file is rejected after its first record or first bad byte instead of
// being read into memory. Errors from the reader itself are returned wrapped
// in errors.ErrIngestion; an input holding only whitespace returns
// errors.ErrEmptyInput.
func decodeDocument(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		switch {
		case err == io.EOF:
			return nil, errors.ErrEmptyInput
		case isDecodeFailure(err):
			return nil, errors.Mark(errors.Wrap(err, "decode document"), errors.ErrDocumentParse)
		default:
			return nil, errors.Mark(errors.Wrap(err, "read input"), errors.ErrIngestion)
		}
	}

	// Anything but EOF after the first value means this is not one document
	tok, err := dec.Token()
	switch {
	case err == io.EOF:
	case err == nil:
		return nil, errors.Mark(
			errors.Newf("unexpected %v after top-level value at offset %d", tok, dec.InputOffset()),
			errors.ErrDocumentParse)
	case isDecodeFailure(err):
		return nil, errors.Mark(errors.Wrap(err, "decode document"), errors.ErrDocumentParse)
	default:
		return nil, errors.Mark(errors.Wrap(err, "read input"), errors.ErrIngestion)
	}

	return ParseDocument(raw)
}

// isDecodeFailure separates malformed JSON from reader failures
func isDecodeFailure(err error) bool {
	if err == io.ErrUnexpectedEOF {
		return true
	}
	var se *json.SyntaxError
	return errors.As(err, &se)
}
