package am

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/jolt/errors"
	"github.com/teranos/jolt/logger"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// not fatal: the rotation below overwrites it
		logger.Warnw("failed to delete old config backup", logger.FieldFile, back3, logger.FieldError, err.Error())
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

// loadOrInitialize reads a TOML file into a map, or returns an empty map if it doesn't exist
func loadOrInitialize(configPath string) (map[string]interface{}, error) {
	config := make(map[string]interface{})
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configPath)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}
	return config, nil
}

// save writes config to configPath after backing up the previous version
func save(config map[string]interface{}, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// SetValue writes key = value into the TOML file at configPath, creating
// it if needed. Keys must be known configuration keys or helpers.<name>.
// Values are converted to the type of the key's default.
func SetValue(configPath, key, raw string) error {
	key = strings.ToLower(key)
	value, err := typedValue(key, raw)
	if err != nil {
		return err
	}

	config, err := loadOrInitialize(configPath)
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	table := config
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			table[part] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = value

	if err := save(config, configPath); err != nil {
		return err
	}

	logger.Infow("config value saved", logger.FieldOperation, "set", logger.FieldFile, configPath, "key", key)
	return nil
}

// SetUserValue is SetValue on ~/.jolt/am.toml
func SetUserValue(key, raw string) error {
	path := UserConfigPath()
	if path == "" {
		return errors.New("could not determine home directory")
	}
	return SetValue(path, key, raw)
}

// typedValue validates key and converts raw to the type its default has
func typedValue(key, raw string) (interface{}, error) {
	if name, ok := strings.CutPrefix(key, "helpers."); ok {
		if name == "" || strings.Contains(name, ".") {
			return nil, errors.NewInvalidRequestError("invalid helper name in %q", key)
		}
		return raw, nil
	}

	if !slices.Contains(KnownKeys(), key) {
		return nil, errors.WithHintf(
			errors.NewInvalidRequestError("unknown configuration key %q", key),
			"known keys: %s", strings.Join(KnownKeys(), ", "))
	}

	switch key {
	case "ingest.flush_dangling", "ingest.annotate_errors", "debug", "log.json":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewInvalidRequestError("%s expects true or false, got %q", key, raw)
		}
		return b, nil
	case "ingest.max_line_bytes":
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, errors.NewInvalidRequestError("%s expects a positive integer, got %q", key, raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}
