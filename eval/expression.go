package eval

import (
	"context"
	"strconv"
	"strings"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/ingest"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokDot
	tokPipe
	tokLBracket
	tokRBracket
	tokInt
	tokIdent
	tokString
)

type token struct {
	kind   tokenKind
	text   string // identifier name or unquoted string
	num    int
	pos    int
	spaced bool // preceded by whitespace
}

type stepKind int

const (
	stepKey stepKind = iota
	stepIndex
	stepIterate
)

type step struct {
	kind  stepKind
	key   string
	index int
}

type stage struct {
	pos    int
	helper string // empty for a path stage
	path   []step
}

// Expression is a compiled pipeline. The zero value is the identity.
type Expression struct {
	src    string
	stages []stage
}

var _ Evaluator = (*Expression)(nil)

// Compile parses src. An empty or blank src compiles to the identity.
// Helper names are resolved at evaluation time; use Check to resolve them early.
func Compile(src string) (*Expression, error) {
	toks, perr := lex(src)
	if perr != nil {
		return nil, errors.Mark(perr, errors.ErrInvalidExpression)
	}

	p := &parser{src: src, toks: toks}
	stages, perr := p.pipeline()
	if perr != nil {
		return nil, errors.Mark(perr, errors.ErrInvalidExpression)
	}
	return &Expression{src: src, stages: stages}, nil
}

// MustCompile is Compile for expressions known to be valid
func MustCompile(src string) *Expression {
	x, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return x
}

func (x *Expression) String() string { return x.src }

// Helpers returns the helper names the expression calls, in order
func (x *Expression) Helpers() []string {
	var names []string
	for _, s := range x.stages {
		if s.helper != "" {
			names = append(names, s.helper)
		}
	}
	return names
}

// Check reports the first helper that reg cannot resolve
func (x *Expression) Check(reg *Registry) error {
	for _, s := range x.stages {
		if s.helper == "" {
			continue
		}
		if _, err := reg.Lookup(s.helper); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs the pipeline over data
func (x *Expression) Evaluate(ctx context.Context, data any, reg *Registry) (any, error) {
	v := data
	for _, s := range x.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.helper == "" {
			out, err := applyPath(v, s.path)
			if err != nil {
				return nil, errors.Wrapf(err, "at column %d", s.pos+1)
			}
			v = out
			continue
		}

		fn, err := reg.Lookup(s.helper)
		if err != nil {
			return nil, err
		}
		out, err := fn(ctx, v)
		if err != nil {
			return nil, errors.Wrapf(err, "helper %s", s.helper)
		}
		v = out
	}
	return v, nil
}

// applyPath walks steps from v. Until the first iteration step there is a
// single current value and missing keys or indexes yield null; after it the
// remaining steps apply to every element and elements that do not match are
// dropped.
func applyPath(v any, steps []step) (any, error) {
	current := []any{v}
	fanned := false

	for _, st := range steps {
		next := make([]any, 0, len(current))
		for _, item := range current {
			switch st.kind {
			case stepIterate:
				elems, err := iterate(item)
				if err != nil {
					if fanned {
						continue
					}
					return nil, err
				}
				next = append(next, elems...)

			case stepKey, stepIndex:
				var (
					out   any
					found bool
					err   error
				)
				if st.kind == stepKey {
					out, found, err = getKey(item, st.key)
				} else {
					out, found, err = getIndex(item, st.index)
				}
				if fanned {
					if err == nil && found {
						next = append(next, out)
					}
					continue
				}
				if err != nil {
					return nil, err
				}
				next = append(next, out)
			}
		}
		if st.kind == stepIterate {
			fanned = true
		}
		current = next
	}

	if fanned {
		return current, nil
	}
	return current[0], nil
}

func getKey(v any, key string) (any, bool, error) {
	switch x := v.(type) {
	case *ingest.Object:
		out, ok := x.Get(key)
		return out, ok, nil
	case map[string]any:
		out, ok := x[key]
		return out, ok, nil
	case nil:
		return nil, false, nil
	default:
		return nil, false, errors.NewInvalidRequestError("cannot index %s with key %q", ingest.TypeName(v), key)
	}
}

func getIndex(v any, i int) (any, bool, error) {
	switch x := v.(type) {
	case []any:
		if i < 0 {
			i += len(x)
		}
		if i < 0 || i >= len(x) {
			return nil, false, nil
		}
		return x[i], true, nil
	case nil:
		return nil, false, nil
	default:
		return nil, false, errors.NewInvalidRequestError("cannot index %s with a number", ingest.TypeName(v))
	}
}

func iterate(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case *ingest.Object:
		out := make([]any, 0, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, pair.Value)
		}
		return out, nil
	case map[string]any:
		return sortedValues(x), nil
	default:
		return nil, errors.NewInvalidRequestError("cannot iterate over %s", ingest.TypeName(v))
	}
}

func lex(src string) ([]token, *ParseError) {
	var toks []token
	i := 0
	for {
		start := i
		for i < len(src) && isSpace(src[i]) {
			i++
		}
		spaced := i > start
		if i >= len(src) {
			toks = append(toks, token{kind: tokEOF, pos: i, spaced: spaced})
			return toks, nil
		}

		t := token{pos: i, spaced: spaced}
		c := src[i]
		switch {
		case c == '.':
			t.kind = tokDot
			i++
		case c == '|':
			t.kind = tokPipe
			i++
		case c == '[':
			t.kind = tokLBracket
			i++
		case c == ']':
			t.kind = tokRBracket
			i++
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return nil, newParseError(src, i, "unterminated string")
			}
			s, err := strconv.Unquote(src[i : j+1])
			if err != nil {
				return nil, newParseError(src, i, "invalid string literal")
			}
			t.kind, t.text = tokString, s
			i = j + 1
		case c == '-' || isDigit(c):
			j := i + 1
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			n, err := strconv.Atoi(src[i:j])
			if err != nil {
				return nil, newParseError(src, i, "invalid number %q", src[i:j])
			}
			t.kind, t.num = tokInt, n
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			t.kind, t.text = tokIdent, src[i:j]
			i = j
		default:
			return nil, newParseError(src, i, "unexpected character %q", c)
		}
		toks = append(toks, t)
	}
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) pipeline() ([]stage, *ParseError) {
	if p.peek().kind == tokEOF {
		return nil, nil
	}

	var stages []stage
	for {
		s, err := p.stage()
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)

		t := p.next()
		switch t.kind {
		case tokEOF:
			return stages, nil
		case tokPipe:
		default:
			return nil, newParseError(p.src, t.pos, "expected '|' or end of expression").
				withSuggestions("separate stages with '|'", "quote keys that contain spaces: .\"my key\"")
		}
	}
}

func (p *parser) stage() (stage, *ParseError) {
	t := p.peek()
	switch t.kind {
	case tokIdent:
		p.next()
		return stage{pos: t.pos, helper: t.text}, nil
	case tokDot, tokLBracket:
		path, err := p.path()
		if err != nil {
			return stage{}, err
		}
		return stage{pos: t.pos, path: path}, nil
	case tokEOF:
		return stage{}, newParseError(p.src, t.pos, "expected a path or helper name")
	default:
		return stage{}, newParseError(p.src, t.pos, "expected a path or helper name").
			withSuggestions("paths start with '.', e.g. .items[0]")
	}
}

func (p *parser) path() ([]step, *ParseError) {
	var steps []step
	first := true

	for {
		t := p.peek()
		if !first && t.spaced {
			return steps, nil
		}

		switch t.kind {
		case tokDot:
			p.next()
			n := p.peek()
			if !n.spaced {
				switch n.kind {
				case tokIdent, tokString:
					p.next()
					steps = append(steps, step{kind: stepKey, key: n.text})
					first = false
					continue
				case tokLBracket:
					first = false
					continue
				case tokInt:
					return nil, newParseError(p.src, n.pos, "expected a key after '.'").
						withSuggestions("index arrays with brackets: .[" + strconv.Itoa(n.num) + "]")
				}
			}
			if first {
				// lone '.' is the identity
				return steps, nil
			}
			return nil, newParseError(p.src, n.pos, "expected a key after '.'")

		case tokLBracket:
			p.next()
			n := p.next()
			switch n.kind {
			case tokRBracket:
				steps = append(steps, step{kind: stepIterate})
				first = false
				continue
			case tokInt:
				steps = append(steps, step{kind: stepIndex, index: n.num})
			case tokString:
				steps = append(steps, step{kind: stepKey, key: n.text})
			default:
				return nil, newParseError(p.src, n.pos, "expected an index, a quoted key or ']'")
			}
			if c := p.next(); c.kind != tokRBracket {
				return nil, newParseError(p.src, c.pos, "expected ']'")
			}
			first = false

		default:
			return steps, nil
		}
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return r > 127 || !isIdentPart(byte(r))
	}) < 0
}
