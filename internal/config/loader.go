package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when CONFIG_PATH is unset. A missing default file is
// not an error: the service can run on environment variables alone.
const DefaultPath = "./config.yaml"

// Load reads configuration with priority ENV > YAML > env-default tags, then
// validates it. The YAML path comes from CONFIG_PATH; an explicitly set path
// must exist.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("CONFIG_PATH")
	if !explicit || path == "" {
		path, explicit = DefaultPath, false
	}

	var cfg Config
	switch _, err := os.Stat(path); {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Describe lists every environment variable the service reads, with its
// default, for the --env-help flag of the commands.
func Describe() (string, error) {
	header := "regpulse reads these environment variables (they override " + DefaultPath + "):"
	return cleanenv.GetDescription(&Config{}, &header)
}
