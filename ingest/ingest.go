// Package ingest turns JSON documents, JSONL streams and log text with
// embedded JSON into an ordered sequence of records.
//
// Ingest first tries to read the whole input as a single JSON value. Only if
// that fails does it fall back to line mode, where each line is classified
// by an Engine:
//
//	{"a":1}                  -> {"a":1}
//	12:00:01 INFO {"a":1}    -> {"_line":"12:00:01 INFO","a":1}
//	{  /  "k": 1  /  }       -> {"k":1}   (three lines, one record)
//	plain text               -> {"_line":"plain text"}
//	{"a": }                  -> {"_line":"{\"a\": }"}, counted as degraded
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"time"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/logger"
)

// Mode records which path produced a Result
type Mode string

const (
	ModeDocument Mode = "document"
	ModeLines    Mode = "lines"
)

// DefaultMaxLineBytes bounds a single line in line mode
const DefaultMaxLineBytes = 64 << 20

// Options tunes line mode.
type Options struct {
	// FlushDangling keeps an unterminated multi-line object as one degraded
	// record instead of dropping it at end of input.
	FlushDangling bool
	// AnnotateErrors adds ErrorField with the parse error to degraded records.
	AnnotateErrors bool
	// MaxLineBytes bounds a single line; 0 means DefaultMaxLineBytes.
	MaxLineBytes int
}

// Result is the outcome of one ingestion.
type Result struct {
	Mode Mode
	// Records in input order. In document mode this holds exactly one value.
	Records []any
	// Degraded counts lines or blocks that failed to parse and were kept as raw text
	Degraded int
	// Lines is the number of lines read in line mode
	Lines int
}

// Values returns the record sequence seen by callers: a document that is an
// array yields its elements, any other document yields itself.
func (r *Result) Values() []any {
	if r.Mode == ModeDocument && len(r.Records) == 1 {
		if arr, ok := r.Records[0].([]any); ok {
			return arr
		}
	}
	return r.Records
}

// Data returns the value handed to evaluation: the document itself in
// document mode, the record slice in line mode.
func (r *Result) Data() any {
	if r.Mode == ModeDocument && len(r.Records) == 1 {
		return r.Records[0]
	}
	return r.Records
}

// Ingest reads src and returns its records.
//
// The whole-document attempt is made exactly once before falling back to
// line mode. Parse failures never surface: they are absorbed into degraded
// records. Read failures are returned marked with errors.ErrIngestion and
// input with no content returns errors.ErrEmptyInput.
func Ingest(ctx context.Context, src Source, opts Options) (*Result, error) {
	log := logger.LoggerFromContext(logger.WithSource(ctx, src.Name())).Named("ingest")
	start := time.Now()

	doc, err := readDocument(src)
	switch {
	case err == nil:
		if logger.ShouldOutput(logger.Verbosity, logger.OutputSummary) {
			log.Infow("ingested whole document", logger.FieldMode, ModeDocument,
				logger.FieldDurationMS, time.Since(start).Milliseconds())
		}
		return &Result{Mode: ModeDocument, Records: []any{doc}}, nil
	case errors.IsRecoverable(err):
		if logger.ShouldOutput(logger.Verbosity, logger.OutputFallback) {
			log.Debugw("not a single JSON document, falling back to line mode", logger.FieldError, err.Error())
		}
	default:
		return nil, err
	}

	res, err := ingestLines(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	if logger.ShouldOutput(logger.Verbosity, logger.OutputSummary) {
		log.Infow("ingested lines",
			logger.FieldMode, res.Mode,
			logger.FieldLines, res.Lines,
			logger.FieldCount, len(res.Records),
			logger.FieldDegraded, res.Degraded,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
	return res, nil
}

// readDocument runs the whole-document attempt for either kind of source
func readDocument(src Source) (any, error) {
	if bs, ok := src.(BufferedSource); ok {
		data, err := bs.Bytes()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, errors.WithHint(errors.ErrEmptyInput, "pipe JSON on stdin or pass a file path")
		}
		return ParseDocument(data)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := decodeDocument(rc)
	if errors.Is(err, errors.ErrEmptyInput) {
		return nil, errors.WithHintf(err, "%s holds no data", src.Name())
	}
	return doc, err
}

// ingestLines streams src through an Engine
func ingestLines(ctx context.Context, src Source, opts Options) (*Result, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	initial := 64 * 1024
	if initial > maxLine {
		initial = maxLine
	}

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, initial), maxLine)

	engine := NewEngine(opts)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			// An open block is discarded exactly as at end of input
			return nil, errors.Wrap(err, "ingestion cancelled")
		}
		engine.Feed(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		err = errors.Mark(errors.Wrapf(err, "failed reading %s", src.Name()), errors.ErrIngestion)
		if errors.Is(err, bufio.ErrTooLong) {
			err = errors.WithHintf(err, "raise ingest.max_line_bytes above %d", maxLine)
		}
		return nil, err
	}

	return engine.Finish(), nil
}
