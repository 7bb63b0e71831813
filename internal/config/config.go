// Package config loads the canopy.yaml file used by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "canopy.yaml"

// Config holds the CLI settings. Command flags override the file.
type Config struct {
	Definition      string        `mapstructure:"definition"`
	Diagnostics     string        `mapstructure:"diagnostics"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	Period          time.Duration `mapstructure:"period"`
	AncestorCascade bool          `mapstructure:"ancestor_cascade"`
	HTTPAddr        string        `mapstructure:"http_addr"`
	Redis           Redis         `mapstructure:"redis"`
}

// Redis configures the Redis event source.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	Poll     time.Duration `mapstructure:"poll"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Period:    10 * time.Millisecond,
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// silently falls back to the defaults when it does not exist.
func Load(path string) (Config, error) {
	optional := path == ""
	if optional {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults. Durations may be given
// as strings ("250ms") and scalars are coerced where the type is clear.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		return cfg, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Period <= 0 {
		return cfg, fmt.Errorf("invalid config: period must be positive")
	}
	return cfg, nil
}
