package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/ingest"
)

func TestRegistry(t *testing.T) {
	reg := NewEmptyRegistry()
	assert.Empty(t, reg.Names())

	double := func(_ context.Context, in any) (any, error) { return []any{in, in}, nil }
	require.NoError(t, reg.Register("double", double))

	err := reg.Register("double", double)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	assert.Error(t, reg.Register("not valid", double))
	assert.Error(t, reg.Register("9lives", double))
	assert.Error(t, reg.Register("nil_fn", nil))

	fn, err := reg.Lookup("double")
	require.NoError(t, err)
	out, err := fn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "x"}, out)

	_, err = reg.Lookup("missing")
	assert.True(t, errors.Is(err, errors.ErrHelperNotFound))
}

func TestBuiltinNames(t *testing.T) {
	want := []string{
		"compact", "first", "flatten", "json", "keys", "last", "len", "max", "mean",
		"min", "raw", "sort", "stats", "sum", "uniq", "values",
	}
	reg := NewRegistry()
	assert.Equal(t, want, reg.Names())
	for _, name := range want {
		assert.NotEmpty(t, reg.Summary(name), name)
	}
}

func TestSuggest(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		in   string
		want string
	}{
		{"sumn", "sum"},
		{"flat", "flatten"},
		{"uniqe", "uniq"},
		{"STATS", "stats"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Contains(t, reg.Suggest(tt.in), tt.want)
		})
	}
	assert.LessOrEqual(t, len(reg.Suggest("s")), 3)
}

func TestBuiltins(t *testing.T) {
	records := `[
		{"_line": "boot"},
		{"_line": "12:00 INFO", "ms": 5},
		{"_line": "{\"a\": }", "_error": "bad"},
		{"ms": 15},
		null
	]`
	data := mustParse(t, records)

	tests := []struct {
		expr string
		in   any
		want string
	}{
		{"len", data, `5`},
		{"raw | len", data, `2`},
		{"json | len", data, `3`},
		{"compact | len", data, `4`},
		{"compact | .[].ms | sum", data, `20`},
		{".[].ms | mean", data, `10`},
		{".[].ms | min", data, `5`},
		{".[].ms | max", data, `15`},
		{"first | keys", data, `["_line"]`},
		{"last", data, `null`},
		{"keys", mustParse(t, `[4,5]`), `[0,1]`},
		{"keys", mustParse(t, `{"b":1,"a":2}`), `["b","a"]`},
		{"values", mustParse(t, `{"b":1,"a":2}`), `[1,2]`},
		{"len", mustParse(t, `"héllo"`), `5`},
		{"len", nil, `0`},
		{"sort", mustParse(t, `[3,"b",null,[1],true,{"k":1},1.5,"a",false]`), `[null,false,true,1.5,3,"a","b",[1],{"k":1}]`},
		{"uniq", mustParse(t, `[1,2,1,{"a":1,"b":2},{"b":2,"a":1},"1"]`), `[1,2,{"a":1,"b":2},"1"]`},
		{"flatten", mustParse(t, `[[1,[2]],3,[]]`), `[1,[2],3]`},
		{"compact", mustParse(t, `{"a":null,"b":0}`), `{"b":0}`},
		{"sum", mustParse(t, `[]`), `0`},
		{"max", mustParse(t, `[]`), `null`},
		{"first", mustParse(t, `[]`), `null`},
		{"stats | .p50", mustParse(t, `[1,2,3,4]`), `2.5`},
		{"stats | keys", mustParse(t, `[1]`), `["count","min","max","sum","mean","stddev","p50","p90","p95","p99"]`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, tt.expr, tt.in))
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		helper string
		in     any
	}{
		{"len", true},
		{"keys", "s"},
		{"values", mustParse(t, `1`)},
		{"sort", ingest.NewObject()},
		{"compact", "s"},
		{"stats", mustParse(t, `[]`)},
		{"sum", mustParse(t, `["x"]`)},
	}
	for _, tt := range tests {
		t.Run(tt.helper, func(t *testing.T) {
			fn, err := reg.Lookup(tt.helper)
			require.NoError(t, err)
			_, err = fn(ctx, tt.in)
			assert.Error(t, err)
		})
	}
}

func TestRegisterAliases(t *testing.T) {
	reg := NewRegistry()
	err := RegisterAliases(reg, map[string]string{
		"latency": ".[].ms | compact",
		"p50":     "latency | stats | .p50",
		"slowest": "latency | max",
	})
	require.NoError(t, err)
	assert.Contains(t, reg.Summary("latency"), ".[].ms | compact")

	data := mustParse(t, `[{"ms":3},{"ms":9},{"x":1},{"ms":6}]`)
	assert.Equal(t, `6`, runWith(t, reg, "p50", data))
	assert.Equal(t, `9`, runWith(t, reg, "slowest", data))
}

func TestRegisterAliasesErrors(t *testing.T) {
	t.Run("bad expression", func(t *testing.T) {
		err := RegisterAliases(NewRegistry(), map[string]string{"bad": ".["})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidExpression))
		assert.Contains(t, err.Error(), `"bad"`)
	})

	t.Run("unknown helper", func(t *testing.T) {
		err := RegisterAliases(NewRegistry(), map[string]string{"x": "nope"})
		assert.True(t, errors.Is(err, errors.ErrHelperNotFound))
	})

	t.Run("shadows builtin", func(t *testing.T) {
		err := RegisterAliases(NewRegistry(), map[string]string{"len": "."})
		assert.True(t, errors.IsInvalidRequestError(err))
	})

	t.Run("cycle", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, RegisterAliases(reg, map[string]string{"ping": "pong", "pong": "ping"}))
		_, err := MustCompile("ping").Evaluate(context.Background(), nil, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recursed more than")
	})
}

func runWith(t *testing.T, reg *Registry, expr string, data any) string {
	t.Helper()
	out, err := MustCompile(expr).Evaluate(context.Background(), data, reg)
	require.NoError(t, err)
	return compactOf(t, out)
}
