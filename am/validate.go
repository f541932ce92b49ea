package am

import (
	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/eval"
	"github.com/teranos/jolt/version"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Empty output values fall back to display defaults
	if _, err := c.DisplayOptions(); err != nil {
		return errors.WithHint(err, "check the [output] section or the JOLT_OUTPUT_* variables")
	}

	if c.Ingest.MaxLineBytes <= 0 {
		return errors.Newf("ingest.max_line_bytes must be > 0, got %d", c.Ingest.MaxLineBytes)
	}

	// Helpers must compile and resolve against the builtins and each other
	if len(c.Helpers) > 0 {
		if err := eval.RegisterAliases(eval.NewRegistry(), c.Helpers); err != nil {
			return errors.Wrap(err, "invalid [helpers]")
		}
	}

	if c.Requires != "" {
		if err := version.Get().Satisfies(c.Requires); err != nil {
			return err
		}
	}

	return nil
}
