// Package am holds jolt's configuration ("I am"): how records are printed,
// how ingestion treats damaged input, and user-defined helpers.
package am

import (
	"github.com/teranos/jolt/display"
	"github.com/teranos/jolt/ingest"
)

// Config represents the jolt configuration
type Config struct {
	Output  OutputConfig      `mapstructure:"output" json:"output" toml:"output" yaml:"output"`
	Ingest  IngestConfig      `mapstructure:"ingest" json:"ingest" toml:"ingest" yaml:"ingest"`
	Log     LogConfig         `mapstructure:"log" json:"log" toml:"log" yaml:"log"`
	Debug   bool              `mapstructure:"debug" json:"debug" toml:"debug" yaml:"debug"`
	Helpers map[string]string `mapstructure:"helpers" json:"helpers" toml:"helpers" yaml:"helpers"` // name = "expression"

	// Requires is a version constraint the running jolt must satisfy, e.g. ">= 1.2"
	Requires string `mapstructure:"requires" json:"requires,omitempty" toml:"requires,omitempty" yaml:"requires,omitempty"`
}

// OutputConfig configures how results are printed
type OutputConfig struct {
	Mode        string `mapstructure:"mode" json:"mode" toml:"mode" yaml:"mode"`                             // raw, compact, pretty, lines
	Stringifier string `mapstructure:"stringifier" json:"stringifier" toml:"stringifier" yaml:"stringifier"` // stable, default
	Color       string `mapstructure:"color" json:"color" toml:"color" yaml:"color"`                         // auto, always, never
}

// IngestConfig configures line-mode recovery
type IngestConfig struct {
	FlushDangling  bool `mapstructure:"flush_dangling" json:"flush_dangling" toml:"flush_dangling" yaml:"flush_dangling"`
	AnnotateErrors bool `mapstructure:"annotate_errors" json:"annotate_errors" toml:"annotate_errors" yaml:"annotate_errors"`
	MaxLineBytes   int  `mapstructure:"max_line_bytes" json:"max_line_bytes" toml:"max_line_bytes" yaml:"max_line_bytes"`
}

// LogConfig configures diagnostic logging on stderr
type LogConfig struct {
	JSON bool `mapstructure:"json" json:"json" toml:"json" yaml:"json"`
}

// IngestOptions converts the ingest section into ingest.Options
func (c *Config) IngestOptions() ingest.Options {
	return ingest.Options{
		FlushDangling:  c.Ingest.FlushDangling,
		AnnotateErrors: c.Ingest.AnnotateErrors,
		MaxLineBytes:   c.Ingest.MaxLineBytes,
	}
}

// DisplayOptions converts the output section into display.Options.
// Empty values fall back to display defaults.
func (c *Config) DisplayOptions() (display.Options, error) {
	var opts display.Options
	var err error

	if c.Output.Mode != "" {
		if opts.Mode, err = display.ParseMode(c.Output.Mode); err != nil {
			return opts, err
		}
	}
	if c.Output.Stringifier != "" {
		if opts.Stringifier, err = display.ParseStringifier(c.Output.Stringifier); err != nil {
			return opts, err
		}
	}
	if c.Output.Color != "" {
		if opts.Color, err = display.ParseColor(c.Output.Color); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
