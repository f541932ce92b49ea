package eval

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/teranos/jolt/display"
	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/ingest"
	"github.com/teranos/jolt/stats"
)

type builtin struct {
	name    string
	summary string
	fn      Helper
}

var builtins = []builtin{
	{"len", "length of an array, object or string", helperLen},
	{"keys", "object keys in input order, or array indexes", helperKeys},
	{"values", "object values in input order", helperValues},
	{"first", "first element of an array", arrayHelper(func(a []any) (any, error) { return at(a, 0), nil })},
	{"last", "last element of an array", arrayHelper(func(a []any) (any, error) { return at(a, len(a)-1), nil })},
	{"sum", "sum of the numbers in an array", numbersHelper(func(s stats.Summary) any { return s.Sum }, 0.0)},
	{"min", "smallest number in an array", numbersHelper(func(s stats.Summary) any { return s.Min }, nil)},
	{"max", "largest number in an array", numbersHelper(func(s stats.Summary) any { return s.Max }, nil)},
	{"mean", "arithmetic mean of an array of numbers", numbersHelper(func(s stats.Summary) any { return s.Mean }, nil)},
	{"stats", "count, min, max, sum, mean, stddev and percentiles of an array of numbers", helperStats},
	{"sort", "sort an array: null, booleans, numbers, strings, arrays, objects", arrayHelper(helperSort)},
	{"uniq", "drop repeated elements, keeping the first", arrayHelper(helperUniq)},
	{"flatten", "flatten nested arrays by one level", arrayHelper(helperFlatten)},
	{"compact", "drop nulls from an array or object", helperCompact},
	{"raw", "records kept as raw text lines", arrayHelper(func(a []any) (any, error) { return filter(a, isRawRecord), nil })},
	{"json", "records parsed as JSON", arrayHelper(func(a []any) (any, error) {
		return filter(a, func(v any) bool { return !isRawRecord(v) }), nil
	})},
}

func arrayHelper(fn func([]any) (any, error)) Helper {
	return func(_ context.Context, input any) (any, error) {
		arr, ok := input.([]any)
		if !ok {
			return nil, errors.NewInvalidRequestError("expected an array, got %s", ingest.TypeName(input))
		}
		return fn(arr)
	}
}

// numbersHelper summarises an array of numbers; empty returns when it has none
func numbersHelper(pick func(stats.Summary) any, empty any) Helper {
	return func(_ context.Context, input any) (any, error) {
		nums, err := stats.Numbers(input)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return empty, nil
		}
		s, err := stats.Describe(nums)
		if err != nil {
			return nil, err
		}
		return pick(s), nil
	}
}

func helperLen(_ context.Context, input any) (any, error) {
	switch x := input.(type) {
	case nil:
		return 0, nil
	case string:
		return utf8.RuneCountInString(x), nil
	case []any:
		return len(x), nil
	case *ingest.Object:
		return x.Len(), nil
	case map[string]any:
		return len(x), nil
	default:
		return nil, errors.NewInvalidRequestError("%s has no length", ingest.TypeName(input))
	}
}

func helperKeys(_ context.Context, input any) (any, error) {
	switch x := input.(type) {
	case *ingest.Object:
		keys := make([]any, 0, x.Len())
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		return keys, nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for k := range x {
			names = append(names, k)
		}
		sort.Strings(names)
		keys := make([]any, len(names))
		for i, k := range names {
			keys[i] = k
		}
		return keys, nil
	case []any:
		idx := make([]any, len(x))
		for i := range x {
			idx[i] = i
		}
		return idx, nil
	default:
		return nil, errors.NewInvalidRequestError("%s has no keys", ingest.TypeName(input))
	}
}

func helperValues(_ context.Context, input any) (any, error) {
	return iterate(input)
}

func helperStats(_ context.Context, input any) (any, error) {
	nums, err := stats.Numbers(input)
	if err != nil {
		return nil, err
	}
	s, err := stats.Describe(nums)
	if err != nil {
		return nil, errors.WithHint(err, "stats needs at least one number, e.g. .[].duration | stats")
	}

	obj := ingest.NewObject()
	obj.Set("count", s.Count)
	obj.Set("min", s.Min)
	obj.Set("max", s.Max)
	obj.Set("sum", s.Sum)
	obj.Set("mean", s.Mean)
	obj.Set("stddev", s.Stddev)
	obj.Set("p50", s.P50)
	obj.Set("p90", s.P90)
	obj.Set("p95", s.P95)
	obj.Set("p99", s.P99)
	return obj, nil
}

func helperSort(arr []any) (any, error) {
	out := append([]any(nil), arr...)
	if out == nil {
		out = []any{}
	}
	sort.SliceStable(out, func(i, j int) bool { return compare(out[i], out[j]) < 0 })
	return out, nil
}

func helperUniq(arr []any) (any, error) {
	seen := make(map[string]bool, len(arr))
	out := make([]any, 0, len(arr))
	for _, v := range arr {
		key, err := display.Marshal(v, display.Options{Mode: display.ModeCompact, Stringifier: display.StringifierStable})
		if err != nil {
			return nil, err
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		out = append(out, v)
	}
	return out, nil
}

func helperFlatten(arr []any) (any, error) {
	out := make([]any, 0, len(arr))
	for _, v := range arr {
		if inner, ok := v.([]any); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func helperCompact(_ context.Context, input any) (any, error) {
	switch x := input.(type) {
	case []any:
		return filter(x, func(v any) bool { return v != nil }), nil
	case *ingest.Object:
		out := ingest.NewObject()
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value != nil {
				out.Set(pair.Key, pair.Value)
			}
		}
		return out, nil
	default:
		return nil, errors.NewInvalidRequestError("cannot compact %s", ingest.TypeName(input))
	}
}

// isRawRecord reports whether v is a line that was kept as text: an object
// holding only the raw line and, optionally, its parse error.
func isRawRecord(v any) bool {
	obj, ok := v.(*ingest.Object)
	if !ok {
		return false
	}
	if _, ok := obj.Get(ingest.RawLineField); !ok {
		return false
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key != ingest.RawLineField && pair.Key != ingest.ErrorField {
			return false
		}
	}
	return true
}

func filter(arr []any, keep func(any) bool) []any {
	out := make([]any, 0, len(arr))
	for _, v := range arr {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func at(arr []any, i int) any {
	if i < 0 || i >= len(arr) {
		return nil
	}
	return arr[i]
}

func sortedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// rank orders JSON types for sorting
func rank(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 2
		}
		return 1
	case json.Number, float64, float32, int, int64:
		return 3
	case string:
		return 4
	case []any:
		return 5
	default:
		return 6
	}
}

func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case 3:
		fa, fb := number(a), number(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 4:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	case 5:
		xa, xb := a.([]any), b.([]any)
		for i := 0; i < len(xa) && i < len(xb); i++ {
			if c := compare(xa[i], xb[i]); c != 0 {
				return c
			}
		}
		return len(xa) - len(xb)
	case 6:
		opts := display.Options{Mode: display.ModeCompact, Stringifier: display.StringifierStable}
		ea, _ := display.Marshal(a, opts)
		eb, _ := display.Marshal(b, opts)
		return compare(string(ea), string(eb))
	}
	return 0
}

func number(v any) float64 {
	switch x := v.(type) {
	case json.Number:
		f, _ := strconv.ParseFloat(string(x), 64)
		return f
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}
