package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorTime   = "\x1b[38;5;107m" // muted green
	colorName   = "\x1b[38;5;208m" // warm orange
	colorKey    = "\x1b[38;5;109m" // soft blue
	colorWarn   = "\x1b[38;5;179m"
	colorError  = "\x1b[38;5;167m"
	colorMuted  = "\x1b[38;5;245m"
	colorNormal = "\x1b[38;5;223m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  DEBUG  i.engine  line degraded  line=12 error=..."
//
// Context fields added via With() are kept in the embedded map encoder and
// printed before the per-entry fields; nothing is ever dropped.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

func newMinimalEncoder(color bool) *minimalEncoder {
	return &minimalEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		color:            color,
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := newMinimalEncoder(enc.color)
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	enc.paint(final, colorTime, ent.Time.Format("15:04:05"))

	// Level: only shown when not INFO
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		enc.paint(final, levelColor(ent.Level), ent.Level.CapitalString())
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		enc.paint(final, colorName, abbreviateName(ent.LoggerName))
	}

	final.AppendString("  ")
	enc.paint(final, colorNormal, ent.Message)

	// Merge context and entry fields; entry fields win on conflict
	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}

	if len(all.Fields) > 0 {
		keys := make([]string, 0, len(all.Fields))
		for k := range all.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		final.AppendString(" ")
		for _, k := range keys {
			final.AppendString(" ")
			enc.paint(final, colorKey, k)
			final.AppendString("=")
			final.AppendString(formatFieldValue(all.Fields[k]))
		}
	}

	final.AppendString("\n")
	return final, nil
}

func (enc *minimalEncoder) paint(buf *buffer.Buffer, color, s string) {
	if !enc.color {
		buf.AppendString(s)
		return
	}
	buf.AppendString(color)
	buf.AppendString(s)
	buf.AppendString(colorReset)
}

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorMuted
	case zapcore.WarnLevel:
		return colorBold + colorWarn
	default:
		return colorBold + colorError
	}
}

// abbreviateName shortens component names: ingest.engine -> i.engine
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

func formatFieldValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
