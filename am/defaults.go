package am

import (
	"sort"

	"github.com/spf13/viper"

	"github.com/teranos/jolt/ingest"
)

// Default values
const (
	DefaultOutputMode  = "pretty"
	DefaultStringifier = "default"
	DefaultColor       = "auto"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.mode", DefaultOutputMode)
	v.SetDefault("output.stringifier", DefaultStringifier)
	v.SetDefault("output.color", DefaultColor)

	// Parity with plain line mode: dangling blocks are dropped, raw records carry only the text
	v.SetDefault("ingest.flush_dangling", false)
	v.SetDefault("ingest.annotate_errors", false)
	v.SetDefault("ingest.max_line_bytes", ingest.DefaultMaxLineBytes)

	v.SetDefault("debug", false)
	v.SetDefault("log.json", false)
	v.SetDefault("requires", "")
}

// KnownKeys lists every scalar configuration key. Keys under helpers.* are
// user-defined and not listed.
func KnownKeys() []string {
	v := viper.New()
	SetDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}
