package commands

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/jolt/am"
	"github.com/teranos/jolt/display"
	"github.com/teranos/jolt/errors"
)

const mixedLog = `boot ok
12:00:01 INFO {"a":1}
{"b":2}
{
  "c": 3
}
{"d": }
`

// isolate keeps user and project configuration out of the test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	for _, key := range am.KnownKeys() {
		env := am.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	t.Cleanup(am.Reset)
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name:  "mixed log identity",
			stdin: mixedLog,
			args:  []string{"-o", "compact"},
			want:  `[{"_line":"boot ok"},{"_line":"12:00:01 INFO","a":1},{"b":2},{"c":3},{"_line":"{\"d\": }"}]` + "\n",
		},
		{
			name:  "document path",
			stdin: `{"users":[{"name":"ada"},{"name":"bob"}]}`,
			args:  []string{".users[].name", "-o", "lines"},
			want:  "\"ada\"\n\"bob\"\n",
		},
		{
			name:  "raw string",
			stdin: `{"users":[{"name":"ada"}]}`,
			args:  []string{".users[-1].name", "-o", "raw"},
			want:  "ada\n",
		},
		{
			name:  "helpers over lines",
			stdin: mixedLog,
			args:  []string{"raw | len", "-o", "compact"},
			want:  "2\n",
		},
		{
			name:  "pretty sorted",
			stdin: `{"b":1,"a":[true,null]}`,
			args:  []string{"--sort-keys"},
			want:  "{\n  \"a\": [\n    true,\n    null\n  ],\n  \"b\": 1\n}\n",
		},
		{
			name:  "annotate errors",
			stdin: "{\"d\": }\n{\"e\":1}\n",
			args:  []string{"raw | first | keys", "--annotate-errors", "-o", "compact"},
			want:  `["_line","_error"]` + "\n",
		},
		{
			name:  "flush dangling",
			stdin: "{\"a\":1}\n{\n\"b\": 2\n",
			args:  []string{"len", "--flush-dangling", "-o", "compact"},
			want:  "2\n",
		},
		{
			name:  "dangling dropped by default",
			stdin: "{\"a\":1}\n{\n\"b\": 2\n",
			args:  []string{"len", "-o", "compact"},
			want:  "1\n",
		},
		{
			name:  "stdin dash",
			stdin: "[1,2,3]",
			args:  []string{"sum", "-", "-o", "compact"},
			want:  "6\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			stdout, _, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestQueryFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "app.log.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("{\"ms\":10}\n{\"ms\":30}\nnoise\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	stdout, _, err := run(t, "", "json | .[].ms | max", path, "-o", "compact")
	require.NoError(t, err)
	assert.Equal(t, "30\n", stdout)
}

func TestQueryUsesConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, am.ProjectConfigName), []byte(`
[output]
mode = "compact"

[helpers]
total = ".[].n | sum"
`), 0o644))

	stdout, _, err := run(t, `[{"n":1},{"n":2}]`, "total")
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout)

	t.Setenv("JOLT_OUTPUT_MODE", "pretty")
	stdout, _, err = run(t, `{"n":1}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": 1\n}\n", stdout, "environment overrides the project file")

	stdout, _, err = run(t, `{"n":1}`, "-o", "compact")
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n", stdout, "flags override the environment")
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		is       error
		contains string
	}{
		{name: "bad expression", stdin: "{}", args: []string{".a .b"}, is: errors.ErrInvalidExpression},
		{name: "unknown helper", stdin: "{}", args: []string{"summ"}, is: errors.ErrHelperNotFound},
		{name: "empty input", stdin: "\n\n", is: errors.ErrEmptyInput},
		{name: "missing file", args: []string{".", "does-not-exist.json"}, is: errors.ErrIngestion},
		{name: "bad output mode", stdin: "{}", args: []string{"-o", "xml"}, contains: "unknown output mode"},
		{name: "type error", stdin: `{"a":1}`, args: []string{".a.b"}, contains: "evaluating"},
		{name: "too many args", args: []string{".", "a", "b"}, contains: "accepts at most 2 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, err := run(t, tt.stdin, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestInvalidConfigIsFatal(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, am.ProjectConfigName), []byte("[helpers]\nbroken = \".[\"\n"), 0o644))

	_, _, err := run(t, "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestDebugLogsDegradedLines(t *testing.T) {
	isolate(t)

	stdout, stderr, err := run(t, mixedLog, "len", "--debug", "-o", "compact")
	require.NoError(t, err)
	assert.Equal(t, "5\n", stdout)
	assert.Contains(t, stderr, "lines kept as raw text")
	assert.Contains(t, stderr, "falling back to line mode")

	_, stderr, err = run(t, mixedLog, "len")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestPrintError(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "{}", ".a .b")
	require.Error(t, err)
	var buf bytes.Buffer
	PrintError(&buf, err, display.ColorNever)
	assert.Contains(t, buf.String(), ".a .b")
	assert.Contains(t, buf.String(), "^")

	_, _, err = run(t, "{}", "summ")
	require.Error(t, err)
	buf.Reset()
	PrintError(&buf, err, display.ColorNever)
	assert.Contains(t, buf.String(), `unknown helper "summ"`)
	assert.Contains(t, buf.String(), "did you mean 'sum'?")
}

func TestPrintErrorStyling(t *testing.T) {
	isolate(t)

	failures := map[string][]string{
		"expression": {".a .b"},
		"helper":     {"summ"},
	}
	for name, args := range failures {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, "{}", args...)
			require.Error(t, err)

			tests := []struct {
				color  display.Color
				styled bool
			}{
				{color: display.ColorNever, styled: false},
				{color: display.ColorAuto, styled: false}, // a buffer is not a terminal
				{color: display.ColorAlways, styled: true},
			}
			for _, tt := range tests {
				var buf bytes.Buffer
				PrintError(&buf, err, tt.color)
				assert.NotEmpty(t, buf.String())
				assert.Equal(t, tt.styled, strings.Contains(buf.String(), "\x1b["), "color %s: %q", tt.color, buf.String())
			}
		})
	}
}

func TestErrorColor(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "{}", "summ", "--color", "never")
	require.Error(t, err)
	assert.Equal(t, display.ColorNever, ErrorColor(), "flag is bound to output.color")

	isolate(t)
	t.Setenv("JOLT_OUTPUT_COLOR", "always")
	_, _, err = run(t, "{}", "summ")
	require.Error(t, err)
	assert.Equal(t, display.ColorAlways, ErrorColor())

	isolate(t)
	_, _, err = run(t, "{}", "summ")
	require.Error(t, err)
	assert.Equal(t, display.ColorAuto, ErrorColor())
}
