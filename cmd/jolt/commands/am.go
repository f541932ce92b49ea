package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/jolt/am"
	"github.com/teranos/jolt/errors"
)

func newAmCmd() *cobra.Command {
	amCmd := &cobra.Command{
		Use:   "am",
		Short: "Manage jolt configuration",
		Long: `am: manage jolt configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/jolt/am.toml)
3. User config (~/.jolt/am.toml)
4. Project config (nearest am.toml, searching up from the working directory)
5. Environment variables (JOLT_* prefix, e.g. JOLT_OUTPUT_MODE)
6. Command line flags

Examples:
  jolt am show                     # Show current configuration
  jolt am show --format json       # Show configuration in JSON format
  jolt am get output.mode          # Get specific config value
  jolt am set output.mode lines    # Persist a value in ~/.jolt/am.toml
  jolt am set helpers.lat '.[].ms' # Define a helper alias
  jolt am validate                 # Validate current configuration
  jolt am where                    # Show where each value comes from`,
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective jolt configuration from all sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmShow(cmd, format)
		},
	}
	showCmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a specific configuration value using dot notation (e.g., output.mode, helpers.lat)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAmGet,
	}

	var project bool
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a configuration value",
		Long: `Write a configuration value to ~/.jolt/am.toml, or to ./am.toml with --project.
The previous file is kept as .back1 (up to three generations).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmSet(cmd, args, project)
		},
	}
	setCmd.Flags().BoolVar(&project, "project", false, "Write to am.toml in the working directory")

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate configuration",
		Long:  "Validate the effective configuration, or a single am.toml file on top of the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAmValidate,
	}

	whereCmd := &cobra.Command{
		Use:   "where",
		Short: "Show where configuration is loaded from",
		Long: `Show the configuration cascade and which files were checked.

Lists every candidate file, whether it exists, and the source of each
effective setting.`,
		Args: cobra.NoArgs,
		RunE: runAmWhere,
	}

	amCmd.AddCommand(showCmd, getCmd, setCmd, validateCmd, whereCmd)
	return amCmd
}

func runAmShow(cmd *cobra.Command, format string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# jolt configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# jolt configuration\n%s", data)

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	if !am.GetViper().IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q", key),
			"run 'jolt am show' to list every key")
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string, project bool) error {
	path := am.UserConfigPath()
	if project {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to determine working directory")
		}
		path = filepath.Join(wd, am.ProjectConfigName)
	}
	if path == "" {
		return errors.New("could not determine home directory")
	}

	if err := am.SetValue(path, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s (%s)\n", strings.ToLower(args[0]), args[1], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	var cfg *am.Config
	var err error
	if len(args) == 1 {
		cfg, err = am.LoadFromFile(args[0])
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]      Built-in defaults")
	for _, c := range intro.Candidates {
		state := "missing"
		if _, err := os.Stat(c.Path); err == nil {
			state = "found"
		}
		fmt.Fprintf(out, "  %-14s %s (%s)\n", "["+strings.ToUpper(string(c.Source))+"]", c.Path, state)
	}
	fmt.Fprintf(out, "  %-14s %s_* environment variables\n", "[ENVIRONMENT]", am.EnvPrefix)
	fmt.Fprintf(out, "  %-14s command line flags\n", "[FLAG]")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Active configuration:")
	for _, source := range am.SourceOrder {
		var settings []am.SettingInfo
		for _, s := range intro.Settings {
			if s.Source == source {
				settings = append(settings, s)
			}
		}
		if len(settings) == 0 {
			continue
		}

		switch source {
		case am.SourceSystem, am.SourceUser, am.SourceProject:
			fmt.Fprintf(out, "\n%s: %d settings from %s\n", source, len(settings), settings[0].SourcePath)
		default:
			fmt.Fprintf(out, "\n%s: %d settings\n", source, len(settings))
		}
		for _, s := range settings {
			value := fmt.Sprintf("%v", s.Value)
			if len(value) > 50 {
				value = value[:47] + "..."
			}
			if source == am.SourceEnvironment || source == am.SourceFlag {
				fmt.Fprintf(out, "  %s = %s (%s)\n", s.Key, value, s.SourcePath)
				continue
			}
			fmt.Fprintf(out, "  %s = %s\n", s.Key, value)
		}
	}
	return nil
}
