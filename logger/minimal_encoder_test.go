package logger

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

// TestMinimalEncoderNeverDiscardsFields ensures the minimal encoder never
// silently discards log fields.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder(true)

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "ingest",
		Message:    "Testing field preservation",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String("source", "app.log"), "source=app.log"},
		{zap.String("error", "invalid character '}' looking for beginning of value"), "error=invalid character '}' looking for beginning of value"},
		{zap.Int("line", 42), "line=42"},
		{zap.Int64("offset", 9999999), "offset=9999999"},
		{zap.Bool("flush_dangling", true), "flush_dangling=true"},
		{zap.Float64("ratio", 0.25), "ratio=0.25"},
		{zap.Strings("modes", []string{"document", "lines"}), "modes=[document lines]"},
		{zap.Error(nil), ""}, // nil error shouldn't crash
	}

	var allFields []zapcore.Field
	for _, tf := range testFields {
		allFields = append(allFields, tf.field)
	}

	buf, err := encoder.EncodeEntry(entry, allFields)
	require.NoError(t, err)

	output := buf.String()
	cleanOutput := stripANSI(output)
	assert.NotEqual(t, output, cleanOutput, "color encoder should emit escape codes")

	for _, tf := range testFields {
		if tf.mustFind != "" {
			assert.Contains(t, cleanOutput, tf.mustFind)
		}
	}
}

func TestMinimalEncoderContextFields(t *testing.T) {
	encoder := newMinimalEncoder(false)
	encoder.AddString("source", "stdin")

	clone := encoder.Clone()
	clone.AddInt("lines", 3)

	entry := zapcore.Entry{
		Level:   zapcore.WarnLevel,
		Time:    time.Now(),
		Message: "dangling block dropped",
	}

	buf, err := clone.EncodeEntry(entry, []zapcore.Field{zap.Int("line", 7)})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "dangling block dropped")
	assert.Contains(t, out, "source=stdin")
	assert.Contains(t, out, "lines=3")
	assert.Contains(t, out, "line=7")
	assert.True(t, strings.HasSuffix(out, "\n"))

	// The parent is unaffected by fields added to the clone
	_, found := encoder.Fields["lines"]
	assert.False(t, found)
}

func TestMinimalEncoderFieldOrderIsSorted(t *testing.T) {
	encoder := newMinimalEncoder(false)

	buf, err := encoder.EncodeEntry(zapcore.Entry{Time: time.Now(), Message: "m"}, []zapcore.Field{
		zap.Int("zeta", 1),
		zap.Int("alpha", 2),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Less(t, strings.Index(out, "alpha="), strings.Index(out, "zeta="))
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "i.engine", abbreviateName("ingest.engine"))
	assert.Equal(t, "d.render.color", abbreviateName("display.render.color"))
	assert.Equal(t, "cli", abbreviateName("cli"))
}
