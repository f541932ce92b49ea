package ingest

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/jolt/errors"
)

// spySource is an unbuffered source that counts how often it is opened
type spySource struct {
	data  string
	opens int
}

func (s *spySource) Name() string { return "spy" }

func (s *spySource) Open() (io.ReadCloser, error) {
	s.opens++
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestIngestDocumentNeverEntersLineMode(t *testing.T) {
	docs := []string{
		`{"a":1,"b":[1,2,3]}`,
		"{\n  \"pretty\": {\n    \"nested\": true\n  }\n}\n",
		`[{"x":1},{"x":2}]`,
		`"just a string"`,
		`  42  `,
		`{"a":"\ud800"}`,
		`{"\udc00key":["\ud83d", "ok"]}`,
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			src := &spySource{data: doc}
			res, err := Ingest(context.Background(), src, Options{})
			require.NoError(t, err)

			assert.Equal(t, 1, src.opens, "line mode must not be entered")
			assert.Equal(t, ModeDocument, res.Mode)

			want, err := ParseString(doc)
			require.NoError(t, err)
			assert.Equal(t, compact(t, want), compact(t, res.Data()))
		})
	}
}

func TestIngestLoneSurrogateDocument(t *testing.T) {
	res, err := Ingest(context.Background(), NewReaderSource("stdin", strings.NewReader(`{"a":"\ud800","b":1}`)), Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeDocument, res.Mode)
	assert.Zero(t, res.Degraded)

	obj, ok := res.Data().(*Object)
	require.True(t, ok)
	a, _ := obj.Get("a")
	assert.Equal(t, "\ufffd", a)
}

func TestIngestFallsBackToLines(t *testing.T) {
	src := &spySource{data: "{\"a\":1}\n{\"b\":2}\n"}
	res, err := Ingest(context.Background(), src, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, src.opens)
	assert.Equal(t, ModeLines, res.Mode)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, recordsJSON(t, res))
	assert.Equal(t, 2, res.Lines)
}

func TestIngestMixedLog(t *testing.T) {
	log := strings.Join([]string{
		"server starting",
		`12:00:01 INFO {"event":"listen","port":8080}`,
		"{",
		`  "config": "loaded"`,
		"}",
		`{"a": }`,
		`{"event":"ready"}`,
		"",
	}, "\n")

	res, err := Ingest(context.Background(), NewReaderSource("stdin", strings.NewReader(log)), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		`{"_line":"server starting"}`,
		`{"_line":"12:00:01 INFO","event":"listen","port":8080}`,
		`{"config":"loaded"}`,
		`{"_line":"{\"a\": }"}`,
		`{"event":"ready"}`,
	}, recordsJSON(t, res))
	assert.Equal(t, 1, res.Degraded)
	assert.Equal(t, res.Records, res.Values())
}

func TestIngestIdempotentReserialize(t *testing.T) {
	doc := `{"z":[1,2.5,{"k":"v"}],"a":null,"m":{"t":true,"e":"é\n"}}`

	first, err := Ingest(context.Background(), NewReaderSource("stdin", strings.NewReader(doc)), Options{})
	require.NoError(t, err)
	require.Equal(t, ModeDocument, first.Mode)

	again, err := Ingest(context.Background(), NewReaderSource("stdin", strings.NewReader(compact(t, first.Data()))), Options{})
	require.NoError(t, err)
	require.Equal(t, ModeDocument, again.Mode)

	assert.Equal(t, compact(t, first.Data()), compact(t, again.Data()))
	assert.JSONEq(t, doc, compact(t, again.Data()))
}

func TestIngestFileSource(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		path := writeFile(t, "doc.json", []byte(`[1,2,3]`))
		res, err := Ingest(context.Background(), NewFileSource(path), Options{})
		require.NoError(t, err)
		assert.Equal(t, ModeDocument, res.Mode)
		assert.Len(t, res.Values(), 3)
	})

	t.Run("lines", func(t *testing.T) {
		path := writeFile(t, "app.log", []byte("boot\n{\"level\":\"info\"}\n{\n\"k\": 1\n"))
		res, err := Ingest(context.Background(), NewFileSource(path), Options{FlushDangling: true})
		require.NoError(t, err)
		assert.Equal(t, ModeLines, res.Mode)
		assert.Equal(t, []string{
			`{"_line":"boot"}`,
			`{"level":"info"}`,
			`{"_line":"{\n\"k\": 1"}`,
		}, recordsJSON(t, res))
		assert.Equal(t, 1, res.Degraded)
	})

	t.Run("truncated document", func(t *testing.T) {
		path := writeFile(t, "cut.json", []byte(`{"a":[1,2`))
		res, err := Ingest(context.Background(), NewFileSource(path), Options{})
		require.NoError(t, err)
		assert.Equal(t, ModeLines, res.Mode)
		// no closing brace, so the line is never attempted as JSON
		assert.Equal(t, []string{`{"_line":"{\"a\":[1,2"}`}, recordsJSON(t, res))
		assert.Equal(t, 0, res.Degraded)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Ingest(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "nope.json")), Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrIngestion))
		assert.NotEmpty(t, errors.GetAllHints(err))
	})
}

func TestIngestEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{name: "stdin", src: NewReaderSource("stdin", strings.NewReader(" \n\t\n"))},
		{name: "nothing", src: NewReaderSource("stdin", strings.NewReader(""))},
		{name: "file", src: NewFileSource(writeFile(t, "empty.json", []byte("\n\n")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(context.Background(), tt.src, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrEmptyInput))
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestIngestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, NewReaderSource("stdin", strings.NewReader("a\nb\n")), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIngestLineTooLong(t *testing.T) {
	input := "short\n" + strings.Repeat("x", 100) + "\n"
	_, err := Ingest(context.Background(), NewReaderSource("stdin", strings.NewReader(input)), Options{MaxLineBytes: 16})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bufio.ErrTooLong))
	assert.True(t, errors.Is(err, errors.ErrIngestion))
	assert.Contains(t, errors.FlattenHints(err), "max_line_bytes")
}

func TestResultDataAndValues(t *testing.T) {
	arr := []any{"a", "b"}
	doc := &Result{Mode: ModeDocument, Records: []any{arr}}
	assert.Equal(t, arr, doc.Values())
	assert.Equal(t, arr, doc.Data())

	obj := NewObject()
	single := &Result{Mode: ModeDocument, Records: []any{obj}}
	assert.Equal(t, []any{obj}, single.Values())
	assert.Same(t, obj, single.Data())

	lines := &Result{Mode: ModeLines, Records: []any{obj, "x"}}
	assert.Equal(t, lines.Records, lines.Values())
	assert.Equal(t, lines.Records, lines.Data())
	assert.Equal(t, `[{},"x"]`, compact(t, lines.Data()))
}
