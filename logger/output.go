package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Records on stdout, fatal errors with hints
//	1 (-v)      - + Ingestion summary (mode, record count), config source
//	2 (-vv)     - + Degraded lines, fallback decisions, dropped blocks
//	3 (-vvv)    - + Per-line classification
//	4 (-vvvv)   - + Full record dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Records and evaluation results
	OutputErrors                        // Errors with hints

	// Level 1 (-v) - Informational
	OutputSummary // Ingestion mode, record and degraded counts
	OutputConfig  // Config files merged, effective options

	// Level 2 (-vv) - Detailed
	OutputDegraded // Lines that failed to parse and were kept as raw text
	OutputFallback // Whole-document parse failure that triggered line mode

	// Level 3 (-vvv) - Trace
	OutputClassification // Decision taken for every line

	// Level 4 (-vvvv) - Full dump
	OutputDataDump // Full record contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults: VerbosityUser,
	OutputErrors:  VerbosityUser,

	OutputSummary: VerbosityInfo,
	OutputConfig:  VerbosityInfo,

	OutputDegraded: VerbosityDebug,
	OutputFallback: VerbosityDebug,

	OutputClassification: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:        "results",
	OutputErrors:         "errors",
	OutputSummary:        "summary",
	OutputConfig:         "config",
	OutputDegraded:       "degraded",
	OutputFallback:       "fallback",
	OutputClassification: "classification",
	OutputDataDump:       "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
