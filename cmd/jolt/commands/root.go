// Package commands implements the jolt command line.
package commands

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teranos/jolt/am"
	"github.com/teranos/jolt/display"
	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/eval"
	"github.com/teranos/jolt/ingest"
	"github.com/teranos/jolt/logger"
)

// Flags that override configuration keys
const (
	flagVerbose        = "verbose"
	flagDebug          = "debug"
	flagLogJSON        = "log-json"
	flagFlushDangling  = "flush-dangling"
	flagAnnotateErrors = "annotate-errors"
	flagMaxLineBytes   = "max-line-bytes"
)

// configFlags maps configuration keys to the flags that override them
var configFlags = map[string]string{
	"debug":                  flagDebug,
	"log.json":               flagLogJSON,
	"ingest.flush_dangling":  flagFlushDangling,
	"ingest.annotate_errors": flagAnnotateErrors,
	"ingest.max_line_bytes":  flagMaxLineBytes,
	"output.color":           display.FlagColor,
}

// NewRootCmd builds the jolt command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jolt [expression] [file]",
		Short: "Query JSON, JSONL and log files with embedded JSON",
		Long: `jolt reads a JSON document, JSONL, or log output where only some lines carry
JSON, turns it into records and prints the result of an expression over them.

Input is tried as one JSON document first. If that fails every line is
classified on its own: JSON lines become records, "prefix {json}" lines keep
the prefix in _line, "{" ... "}" blocks are reassembled, and anything else is
kept as {"_line": "text"}.

Expressions are paths and helpers joined by pipes:
  .                      # every record
  .[0].user.name         # a field of the first record
  .[].latency_ms | stats # latency summary over every record
  raw | len              # count lines that were not JSON

Examples:
  jolt < app.log                       # records as a JSON array
  jolt -o lines '.[].msg' app.log.gz   # one message per line
  kubectl logs pod | jolt 'json | len'
  jolt helpers                         # list helpers
  jolt am show                         # show configuration`,
		Args:              cobra.MaximumNArgs(2),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runQuery,
	}

	root.PersistentFlags().CountP(flagVerbose, "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	root.PersistentFlags().Bool(flagDebug, false, "Log degraded lines and fallback decisions")
	root.PersistentFlags().Bool(flagLogJSON, false, "Write logs to stderr as JSON")

	display.AddFlags(root)
	root.Flags().Bool(flagFlushDangling, false, "Keep an unterminated multi-line object as a raw record")
	root.Flags().Bool(flagAnnotateErrors, false, "Add _error with the parse error to raw records")
	root.Flags().Int(flagMaxLineBytes, ingest.DefaultMaxLineBytes, "Longest line accepted in line mode")

	root.AddCommand(newAmCmd())
	root.AddCommand(newHelpersCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// setup binds flags, loads configuration and initializes the logger before any command runs
func setup(cmd *cobra.Command, _ []string) error {
	am.Reset()
	if err := am.BindFlags(cmd.Flags(), presentFlags(cmd.Flags())); err != nil {
		return err
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	verbosity, _ := cmd.Flags().GetCount(flagVerbose)
	if err := logger.Initialize(logger.Options{
		JSON:      cfg.Log.JSON,
		Verbosity: verbosity,
		Debug:     cfg.Debug,
		Writer:    cmd.ErrOrStderr(),
	}); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	log := logger.ComponentLogger("am")
	log.Debugw("logger initialized", "verbosity", logger.LevelName(logger.Verbosity))
	if logger.ShouldOutput(logger.Verbosity, logger.OutputConfig) {
		for _, key := range slices.Sorted(maps.Keys(am.ConfigSources)) {
			src := am.ConfigSources[key]
			log.Infow("config value from file", "key", key, logger.FieldSource, src.Source, logger.FieldFile, src.Path)
		}
	}
	return nil
}

// presentFlags keeps the entries of configFlags that flags defines
func presentFlags(flags *pflag.FlagSet) map[string]string {
	out := make(map[string]string)
	for key, name := range configFlags {
		if flags.Lookup(name) != nil {
			out[key] = name
		}
	}
	return out
}

// newRegistry returns the builtins plus the configured helper aliases
func newRegistry(cfg *am.Config) (*eval.Registry, error) {
	reg := eval.NewRegistry()
	if err := eval.RegisterAliases(reg, cfg.Helpers); err != nil {
		return nil, errors.Wrap(err, "invalid [helpers]")
	}
	return reg, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := logger.WithComponent(cmd.Context(), "query")
	log := logger.LoggerFromContext(ctx)

	cfg, err := am.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	base, err := cfg.DisplayOptions()
	if err != nil {
		return err
	}
	opts, err := display.ResolveOptions(cmd, base)
	if err != nil {
		return err
	}

	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	var src, path string
	if len(args) > 0 {
		src = args[0]
	}
	if len(args) > 1 {
		path = args[1]
	}

	x, err := eval.Compile(src)
	if err != nil {
		return err
	}
	if err := x.Check(reg); err != nil {
		return err
	}

	res, err := ingest.Ingest(ctx, inputSource(cmd, path), cfg.IngestOptions())
	if err != nil {
		return err
	}
	if res.Degraded > 0 {
		log.Debugw("lines kept as raw text", logger.FieldDegraded, res.Degraded, logger.FieldLines, res.Lines)
	}

	if logger.ShouldOutput(logger.Verbosity, logger.OutputDataDump) {
		for i, record := range res.Values() {
			data, _ := display.MarshalCompact(record)
			log.Debugw("record", logger.FieldCount, i, "category", logger.CategoryName(logger.OutputDataDump), "value", string(data))
		}
	}

	out, err := x.Evaluate(ctx, res.Data(), reg)
	if err != nil {
		return errors.Wrapf(err, "evaluating %q", src)
	}
	return display.Write(cmd.OutOrStdout(), out, opts)
}

// inputSource reads path, or stdin when path is empty or "-"
func inputSource(cmd *cobra.Command, path string) ingest.Source {
	if path == "" || path == "-" {
		return ingest.NewReaderSource("stdin", cmd.InOrStdin())
	}
	return ingest.NewFileSource(path)
}
