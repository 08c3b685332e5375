package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override warehouse credentials from the file.
const (
	EnvAccount   = "SNOWWISE_ACCOUNT"
	EnvUser      = "SNOWWISE_USER"
	EnvPassword  = "SNOWWISE_PASSWORD"
	EnvWarehouse = "SNOWWISE_WAREHOUSE"
	EnvRole      = "SNOWWISE_ROLE"
)

// ConfigPath returns the default configuration file path: ~/.snowwise/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the snowwise data directory: ~/.snowwise.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snowwise"
	}
	return filepath.Join(home, ".snowwise")
}

// Load reads and parses the config file at path and applies environment
// overrides. If path is empty, ConfigPath() is used. A missing file yields
// the defaults; an unparsable one is reported and replaced by the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := decode(data, &cfg); err != nil {
			slog.Warn("failed to parse config, using defaults", "path", path, "err", err)
			cfg = DefaultConfig()
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for env, field := range map[string]*string{
		EnvAccount:   &c.Warehouse.Account,
		EnvUser:      &c.Warehouse.User,
		EnvPassword:  &c.Warehouse.Password,
		EnvWarehouse: &c.Warehouse.Warehouse,
		EnvRole:      &c.Warehouse.Role,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*field = v
		}
	}
}

// Save writes cfg to path as YAML. If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
