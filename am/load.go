package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teranos/jolt/errors"
)

// EnvPrefix prefixes environment overrides, e.g. JOLT_OUTPUT_MODE
const EnvPrefix = "JOLT"

// ProjectConfigName is searched for from the working directory upwards
const ProjectConfigName = "am.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records the file that last set each key during loading
	ConfigSources = map[string]SourceInfo{}
	boundFlags    = map[string]*pflag.Flag{}

	systemConfigPath = "/etc/jolt/am.toml"
)

// Load reads the jolt configuration using Viper. The result is cached until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults, ignoring every other source
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// BindFlags makes explicitly set CLI flags override every other source.
// It must run before the first Load. keys maps configuration keys to flag names.
func BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	mu.Lock()
	defer mu.Unlock()

	v := initViper()
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return errors.Newf("no flag %q to bind to %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag %q", name)
		}
		boundFlags[key] = flag
	}
	return nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
	boundFlags = map[string]*pflag.Flag{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// ConfigPaths returns the candidate configuration files in precedence order,
// lowest first, with the source each one represents
func ConfigPaths() []SourceInfo {
	paths := []SourceInfo{{Source: SourceSystem, Path: systemConfigPath}}
	if user := UserConfigPath(); user != "" {
		paths = append(paths, SourceInfo{Source: SourceUser, Path: user})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, SourceInfo{Source: SourceProject, Path: project})
	}
	return paths
}

// UserConfigPath returns ~/.jolt/am.toml, or "" if there is no home directory
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jolt", "am.toml")
}

// findProjectConfig searches for am.toml by walking up the directory tree.
// The user config is never treated as a project config.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	user := UserConfigPath()

	for {
		path := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(path); err == nil && path != user {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// mergeConfigFiles merges configuration files in precedence order
// (system < user < project) into the config layer, below environment
// variables and flags, and records which file set each key
func mergeConfigFiles(v *viper.Viper) {
	for _, candidate := range ConfigPaths() {
		if _, err := os.Stat(candidate.Path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(candidate.Path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}

		settings := fileViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			continue
		}
		for _, key := range fileViper.AllKeys() {
			ConfigSources[key] = candidate
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}
