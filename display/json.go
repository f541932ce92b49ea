package display

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/logger"
)

// Mode selects how values are laid out
type Mode string

const (
	ModeRaw     Mode = "raw"     // strings unquoted, everything else compact
	ModeCompact Mode = "compact" // one value per line, no whitespace
	ModePretty  Mode = "pretty"  // two-space indent
	ModeLines   Mode = "lines"   // arrays print one compact element per line
)

// Stringifier selects object key order
type Stringifier string

const (
	StringifierStable  Stringifier = "stable"  // keys sorted, recursively
	StringifierDefault Stringifier = "default" // keys in input order
)

// Color selects whether output is colorized
type Color string

const (
	ColorAuto   Color = "auto"
	ColorAlways Color = "always"
	ColorNever  Color = "never"
)

var (
	modes        = []Mode{ModeRaw, ModeCompact, ModePretty, ModeLines}
	stringifiers = []Stringifier{StringifierStable, StringifierDefault}
	colors       = []Color{ColorAuto, ColorAlways, ColorNever}
)

// Options controls Write and Marshal
type Options struct {
	Mode        Mode
	Stringifier Stringifier
	Color       Color
}

// DefaultOptions are used for zero fields
var DefaultOptions = Options{Mode: ModePretty, Stringifier: StringifierDefault, Color: ColorAuto}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = DefaultOptions.Mode
	}
	if o.Stringifier == "" {
		o.Stringifier = DefaultOptions.Stringifier
	}
	if o.Color == "" {
		o.Color = DefaultOptions.Color
	}
	return o
}

// ParseMode validates an output mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range modes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", errors.NewInvalidRequestError("unknown output mode %q (supported: raw, compact, pretty, lines)", s)
}

// ParseStringifier validates a stringifier name
func ParseStringifier(s string) (Stringifier, error) {
	for _, st := range stringifiers {
		if string(st) == strings.ToLower(s) {
			return st, nil
		}
	}
	return "", errors.NewInvalidRequestError("unknown stringifier %q (supported: stable, default)", s)
}

// ParseColor validates a color setting
func ParseColor(s string) (Color, error) {
	for _, c := range colors {
		if string(c) == strings.ToLower(s) {
			return c, nil
		}
	}
	return "", errors.NewInvalidRequestError("unknown color setting %q (supported: auto, always, never)", s)
}

// Write prints v to w according to opts, followed by a newline.
func Write(w io.Writer, v any, opts Options) error {
	opts = opts.withDefaults()
	enc := &encoder{
		sorted: opts.Stringifier == StringifierStable,
		color:  UseColor(w, opts.Color),
	}

	switch opts.Mode {
	case ModeRaw:
		if s, ok := v.(string); ok {
			enc.buf.WriteString(s)
			enc.buf.WriteByte('\n')
			break
		}
		if err := enc.line(v); err != nil {
			return err
		}
	case ModeLines:
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				if err := enc.line(item); err != nil {
					return err
				}
			}
			break
		}
		if err := enc.line(v); err != nil {
			return err
		}
	case ModePretty:
		enc.indent = "  "
		if err := enc.line(v); err != nil {
			return err
		}
	default:
		if err := enc.line(v); err != nil {
			return err
		}
	}

	_, err := w.Write(enc.buf.Bytes())
	return err
}

// Marshal encodes v without color or trailing newline. Pretty mode indents;
// every other mode is compact.
func Marshal(v any, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	enc := &encoder{sorted: opts.Stringifier == StringifierStable}
	if opts.Mode == ModePretty {
		enc.indent = "  "
	}
	if err := enc.value(v, 0); err != nil {
		return nil, err
	}
	return enc.buf.Bytes(), nil
}

// MarshalCompact encodes v compactly in input key order
func MarshalCompact(v any) ([]byte, error) {
	return Marshal(v, Options{Mode: ModeCompact, Stringifier: StringifierDefault})
}

// UseColor resolves c for w: auto means color only on a terminal
func UseColor(w io.Writer, c Color) bool {
	switch c {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return logger.IsTerminal(w)
}

const (
	colorReset   = "\x1b[0m"
	colorKey     = "\x1b[34;1m"
	colorString  = "\x1b[32m"
	colorNumber  = "\x1b[36m"
	colorLiteral = "\x1b[35m"
)

type encoder struct {
	buf    bytes.Buffer
	indent string
	sorted bool
	color  bool
}

func (e *encoder) line(v any) error {
	if err := e.value(v, 0); err != nil {
		return err
	}
	e.buf.WriteByte('\n')
	return nil
}

func (e *encoder) value(v any, depth int) error {
	switch x := v.(type) {
	case nil:
		e.paint(colorLiteral, "null")
	case bool:
		if x {
			e.paint(colorLiteral, "true")
		} else {
			e.paint(colorLiteral, "false")
		}
	case json.Number:
		e.paint(colorNumber, x.String())
	case string:
		e.paint(colorString, quote(x))
	case []any:
		return e.array(x, depth)
	case *orderedmap.OrderedMap[string, any]:
		keys := make([]string, 0, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		return e.object(keys, func(k string) any { v, _ := x.Get(k); return v }, depth)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		// plain maps have no input order
		sort.Strings(keys)
		return e.object(keys, func(k string) any { return x[k] }, depth)
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		data, err := json.Marshal(x)
		if err != nil {
			return errors.Wrap(err, "failed to encode number")
		}
		e.paint(colorNumber, string(data))
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %T", x)
		}
		e.buf.Write(data)
	}
	return nil
}

func (e *encoder) array(arr []any, depth int) error {
	if len(arr) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.value(item, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

func (e *encoder) object(keys []string, get func(string) any, depth int) error {
	if len(keys) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	if e.sorted {
		sort.Strings(keys)
	}
	e.buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		e.paint(colorKey, quote(k))
		e.buf.WriteByte(':')
		if e.indent != "" {
			e.buf.WriteByte(' ')
		}
		if err := e.value(get(k), depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

func (e *encoder) paint(color, s string) {
	if !e.color {
		e.buf.WriteString(s)
		return
	}
	e.buf.WriteString(color)
	e.buf.WriteString(s)
	e.buf.WriteString(colorReset)
}

// quote JSON-encodes s without HTML escaping
func quote(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
