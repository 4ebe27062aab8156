// Package config loads the application configuration from a YAML file,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so values can be written as "24h" or "15m".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// SessionConfig holds session lifetimes and the sweep cadence.
type SessionConfig struct {
	ShortTTL      Duration `yaml:"short_ttl"`
	LongTTL       Duration `yaml:"long_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// Config is the application configuration.
type Config struct {
	DBPath         string        `yaml:"db_path"`
	ListenAddr     string        `yaml:"listen_addr"`
	WebDir         string        `yaml:"web_dir"`
	Locale         string        `yaml:"locale"`
	ModalExitDelay Duration      `yaml:"modal_exit_delay"`
	Session        SessionConfig `yaml:"session"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:         "fintrack.db",
		ListenAddr:     ":8080",
		WebDir:         "web",
		Locale:         "en",
		ModalExitDelay: Duration(200 * time.Millisecond),
		Session: SessionConfig{
			ShortTTL:      Duration(24 * time.Hour),
			LongTTL:       Duration(30 * 24 * time.Hour),
			SweepInterval: Duration(15 * time.Minute),
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// malformed YAML is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
