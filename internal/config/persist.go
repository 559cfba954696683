package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "nmsweep"
	configFileName = "config.yaml"
)

// DefaultConfig leaves AgeMonths unset so the front end asks for it.
func DefaultConfig() Config {
	return Config{
		SafeMode: true,
		Theme:    "dark",
		LogLevel: "info",
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads path over the defaults. A missing file is not an
// error.
func LoadConfigFrom(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	var stored fileConfig
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return config, &Error{Field: "config file " + path, Err: err}
	}
	merged := mergeConfig(config, stored)
	if err := merged.Validate(); err != nil {
		return config, err
	}
	return merged, nil
}

func SaveConfig(config Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, config)
}

func SaveConfigTo(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.Roots != nil {
		merged.Roots = stored.Roots
	}
	if stored.AgeMonths != nil {
		merged.AgeMonths = *stored.AgeMonths
	}
	if stored.LastAge != nil {
		merged.LastAge = *stored.LastAge
	}
	if stored.SafeMode != nil {
		merged.SafeMode = *stored.SafeMode
	}
	if stored.Inline != nil {
		merged.Inline = *stored.Inline
	}
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.LogFile != nil {
		merged.LogFile = *stored.LogFile
	}
	return merged
}
