package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/jolt/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/jolt/am.toml
	SourceUser        ConfigSource = "user"        // ~/.jolt/am.toml
	SourceProject     ConfigSource = "project"     // nearest am.toml
	SourceEnvironment ConfigSource = "environment" // JOLT_* env vars
	SourceFlag        ConfigSource = "flag"        // command line
)

// SourceOrder lists sources from lowest to highest precedence
var SourceOrder = []ConfigSource{
	SourceDefault,
	SourceSystem,
	SourceUser,
	SourceProject,
	SourceEnvironment,
	SourceFlag,
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource `json:"source"`
	Path   string       `json:"path,omitempty"` // file path, env var or flag name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Candidates []SourceInfo  `json:"candidates"` // files checked, lowest precedence first
	Settings   []SettingInfo `json:"settings"`
}

// GetConfigIntrospection returns every effective setting with the source it
// came from, using the sources tracked during loading
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}

	v := GetViper()
	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, s := range ConfigSources {
		sources[k] = s
	}
	mu.Unlock()

	intro := &ConfigIntrospection{
		Candidates: ConfigPaths(),
		Settings:   make([]SettingInfo, 0),
	}
	flattenSettingsWithSources(v.AllSettings(), "", intro, sources, changedFlags())
	return intro, nil
}

func changedFlags() map[string]string {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]string)
	for key, flag := range boundFlags {
		if flag.Changed {
			out[key] = "--" + flag.Name
		}
	}
	return out
}

// flattenSettingsWithSources flattens settings and assigns each its source
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, intro *ConfigIntrospection, sourceMap map[string]SourceInfo, flags map[string]string) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nested, fullKey, intro, sourceMap, flags)
			continue
		}

		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			info = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(fullKey, ".", "_"))
		if _, set := os.LookupEnv(envKey); set {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}
		if name, ok := flags[fullKey]; ok {
			info = SourceInfo{Source: SourceFlag, Path: name}
		}

		intro.Settings = append(intro.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}
