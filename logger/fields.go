package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across jolt.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Input
	FieldSource = "source"
	FieldFile   = "file"
	FieldLine   = "line"
	FieldOffset = "offset"
	FieldCodec  = "codec"
	FieldMode   = "mode"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount    = "count"
	FieldDegraded = "degraded"
	FieldLines    = "lines"
	FieldSize     = "size"

	// Timing
	FieldDurationMS = "duration_ms"
)

type contextKey string

const (
	sourceKey    contextKey = "logger_source"
	componentKey contextKey = "logger_component"
)

// WithSource adds the input source name (file path or "stdin") to the context
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if source, ok := ctx.Value(sourceKey).(string); ok && source != "" {
		fields = append(fields, FieldSource, source)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Engine struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewEngine() *Engine {
//	    return &Engine{logger: logger.ComponentLogger("ingest.engine")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
