package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/jolt/am"
	"github.com/teranos/jolt/errors"
)

func newHelpersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "helpers",
		Short: "List helpers available in expressions",
		Long: `List the builtin helpers and the aliases defined under [helpers] in am.toml.

Define an alias:
  jolt am set helpers.latency '.[].latency_ms | stats'`,
		Args: cobra.NoArgs,
		RunE: runHelpers,
	}
}

func runHelpers(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	names := reg.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", width, name, reg.Summary(name))
	}
	return nil
}
