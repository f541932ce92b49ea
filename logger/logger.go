package logger

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
	// Verbosity is the -v count the logger was initialized with
	Verbosity int
)

func init() {
	// Initialize with a safe no-op logger at package load time
	// This prevents nil pointer panics if logger is used before Initialize() is called
	Logger = zap.NewNop().Sugar()
}

// Options controls logger construction.
type Options struct {
	// JSON selects zap's production JSON encoder instead of the console encoder
	JSON bool
	// Verbosity is the number of -v flags (see verbosity.go)
	Verbosity int
	// Debug forces at least VerbosityDebug, the level degraded-line diagnostics use
	Debug bool
	// Writer defaults to stderr; stdout is reserved for records
	Writer io.Writer
}

// Initialize sets up the global logger.
// Logs always go to stderr so they never interleave with records on stdout.
func Initialize(opts Options) error {
	JSONOutput = opts.JSON

	verbosity := opts.Verbosity
	if opts.Debug && verbosity < VerbosityDebug {
		verbosity = VerbosityDebug
	}
	Verbosity = verbosity
	level := VerbosityToLevel(verbosity)

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		// JSON structured output for machine consumption
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		// Human-readable console output with minimal, calm formatting
		encoder = newMinimalEncoder(IsTerminal(w))
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	Logger = zap.New(core).Sugar()
	return nil
}

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
