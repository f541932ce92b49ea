package display

import (
	"github.com/spf13/cobra"
)

// Flag names shared by every command that prints records
const (
	FlagOutput   = "output"
	FlagSortKeys = "sort-keys"
	FlagColor    = "color"
)

// AddFlags registers the output flags on cmd
func AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(FlagOutput, "o", "", "Output mode: raw, compact, pretty, lines (default from config)")
	cmd.Flags().Bool(FlagSortKeys, false, "Sort object keys (stable stringifier)")
	cmd.Flags().String(FlagColor, "", "Colorize output: auto, always, never (default from config)")
}

// ResolveOptions overlays explicitly set flags on base, which normally
// comes from configuration. Flags that were not set leave base untouched.
func ResolveOptions(cmd *cobra.Command, base Options) (Options, error) {
	opts := base
	if cmd == nil {
		return opts.withDefaults(), nil
	}

	if cmd.Flags().Changed(FlagOutput) {
		s, _ := cmd.Flags().GetString(FlagOutput)
		mode, err := ParseMode(s)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}

	if cmd.Flags().Changed(FlagSortKeys) {
		if sorted, _ := cmd.Flags().GetBool(FlagSortKeys); sorted {
			opts.Stringifier = StringifierStable
		} else {
			opts.Stringifier = StringifierDefault
		}
	}

	if cmd.Flags().Changed(FlagColor) {
		s, _ := cmd.Flags().GetString(FlagColor)
		color, err := ParseColor(s)
		if err != nil {
			return opts, err
		}
		opts.Color = color
	}

	return opts.withDefaults(), nil
}
