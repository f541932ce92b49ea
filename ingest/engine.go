package ingest

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/logger"
)

// Reserved record fields
const (
	// RawLineField holds the non-JSON prefix of a log line, or the whole
	// text of a line that could not be parsed.
	RawLineField = "_line"
	// ErrorField holds the parse error of a degraded line when
	// Options.AnnotateErrors is set.
	ErrorField = "_error"
)

const (
	blockOpen  = "{"
	blockClose = "}"
)

// Classification is the decision the engine took for one line.
type Classification int

const (
	ClassSkipped   Classification = iota // empty after trimming
	ClassContainer                       // single-line object or array, parsed
	ClassDegraded                        // JSON-looking, failed to parse
	ClassText                            // no JSON content
	ClassOpen                            // started a multi-line block
	ClassBlock                           // appended to the open block
	ClassClosed                          // closed the open block
)

var classNames = map[Classification]string{
	ClassSkipped:   "skipped",
	ClassContainer: "container",
	ClassDegraded:  "degraded",
	ClassText:      "text",
	ClassOpen:      "open",
	ClassBlock:     "block",
	ClassClosed:    "closed",
}

func (c Classification) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// Engine classifies lines into records.
//
// It holds at most one open multi-line block: a line that is exactly "{"
// opens it, a line that is exactly "}" closes it, and everything between is
// accumulated verbatim. Brace depth is not tracked, so nested pretty-printed
// objects close at the first lone "}". An Engine is not safe for concurrent
// use; drive it from one goroutine with Feed and Finish.
type Engine struct {
	opts Options
	log  *zap.SugaredLogger

	block      []string // nil when no block is open
	blockStart int

	lineNo   int
	records  []any
	degraded int
}

// NewEngine returns an engine with no open block
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts,
		log:  logger.ComponentLogger("ingest.engine"),
	}
}

// Feed classifies one input line. The line is trimmed of surrounding
// whitespace first; empty lines are discarded.
func (e *Engine) Feed(raw string) Classification {
	e.lineNo++
	line := strings.TrimSpace(raw)
	if line == "" {
		return ClassSkipped
	}

	class := e.classify(line)
	if logger.ShouldOutput(logger.Verbosity, logger.OutputClassification) {
		e.log.Debugw("line classified", logger.FieldLine, e.lineNo, "class", class.String())
	}
	return class
}

func (e *Engine) classify(line string) Classification {
	if e.block != nil {
		e.block = append(e.block, line)
		if line != blockClose {
			return ClassBlock
		}
		e.closeBlock()
		return ClassClosed
	}

	if prefix, body, ok := splitContainer(line); ok {
		value, err := ParseString(body)
		if err != nil {
			e.degrade(line, err, e.lineNo)
			return ClassDegraded
		}
		e.emit(withPrefix(value, prefix))
		return ClassContainer
	}

	if line == blockOpen {
		e.block = []string{line}
		e.blockStart = e.lineNo
		return ClassOpen
	}

	e.emit(e.rawRecord(line, nil))
	return ClassText
}

// closeBlock parses the accumulated block and clears it whatever the outcome
func (e *Engine) closeBlock() {
	text := strings.Join(e.block, "\n")
	start := e.blockStart
	e.block = nil
	e.blockStart = 0

	value, err := ParseString(text)
	if err != nil {
		e.degrade(text, err, start)
		return
	}
	e.emit(value)
}

// Finish ends the stream and returns the accumulated result. A block that
// is still open is dropped, or kept as one degraded record when
// Options.FlushDangling is set.
func (e *Engine) Finish() *Result {
	if e.block != nil {
		text := strings.Join(e.block, "\n")
		if e.opts.FlushDangling {
			e.degrade(text, errors.New("unterminated multi-line object"), e.blockStart)
		} else if logger.ShouldOutput(logger.Verbosity, logger.OutputDegraded) {
			e.log.Debugw("dropping unterminated multi-line object",
				logger.FieldLine, e.blockStart,
				logger.FieldLines, len(e.block))
		}
		e.block = nil
	}

	return &Result{
		Mode:     ModeLines,
		Records:  e.records,
		Degraded: e.degraded,
		Lines:    e.lineNo,
	}
}

// Open reports whether a multi-line block is being accumulated
func (e *Engine) Open() bool {
	return e.block != nil
}

func (e *Engine) emit(record any) {
	e.records = append(e.records, record)
}

// degrade keeps text as a raw record after a failed parse attempt
func (e *Engine) degrade(text string, cause error, line int) {
	e.degraded++
	if logger.ShouldOutput(logger.Verbosity, logger.OutputDegraded) {
		fields := []interface{}{logger.FieldLine, line, logger.FieldError, cause.Error()}
		var se *SyntaxError
		if errors.As(cause, &se) {
			fields = append(fields, logger.FieldOffset, se.Offset)
		}
		e.log.Debugw("line degraded to raw text", fields...)
	}
	e.emit(e.rawRecord(text, errors.Mark(cause, errors.ErrLineParse)))
}

func (e *Engine) rawRecord(text string, cause error) *Object {
	obj := NewObject()
	obj.Set(RawLineField, text)
	if cause != nil && e.opts.AnnotateErrors {
		obj.Set(ErrorField, cause.Error())
	}
	return obj
}

// splitContainer detects a complete single-line container. An object may
// follow a non-JSON prefix, which is returned trimmed; an array must start
// the line.
func splitContainer(line string) (prefix, body string, ok bool) {
	if i := strings.IndexByte(line, '{'); i >= 0 && strings.HasSuffix(line, "}") {
		return strings.TrimSpace(line[:i]), line[i:], true
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return "", line, true
	}
	return "", "", false
}

// withPrefix records a log prefix on an object under RawLineField, first in
// key order, unless the object already defines that field.
func withPrefix(value any, prefix string) any {
	obj, ok := value.(*Object)
	if !ok || prefix == "" {
		return value
	}
	if _, exists := obj.Get(RawLineField); exists {
		return obj
	}

	out := NewObject()
	out.Set(RawLineField, prefix)
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}
