// Package config loads outline settings from a YAML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/outline/core/errors"
	"github.com/FocuswithJustin/outline/internal/logging"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = ".outline.yaml"

// Environment variables overriding file settings.
const (
	EnvLogLevel  = "OUTLINE_LOG_LEVEL"
	EnvLogFormat = "OUTLINE_LOG_FORMAT"
	EnvCacheSize = "OUTLINE_CACHE_SIZE"
	EnvCompat    = "OUTLINE_COMPAT"
	EnvAuthor    = "OUTLINE_AUTHOR"
)

// Config holds the tool settings.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Cache struct {
		// Size bounds the identity cache; 0 disables it.
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Lookup struct {
		// Compat accepts legacy positional ids such as n0.2.1.
		Compat bool `yaml:"compat"`
	} `yaml:"lookup"`
	Author string `yaml:"author"`
	Output struct {
		EmitIDs bool `yaml:"emit_ids"`
	} `yaml:"output"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Cache.Size = 4096
	return cfg
}

// Load reads path over the defaults, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewParse("yaml", path, 0, err.Error())
		}
	case !os.IsNotExist(err):
		return nil, errors.NewIO("read", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvAuthor); v != "" {
		c.Author = v
	}
	if v := os.Getenv(EnvCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidation(EnvCacheSize, fmt.Sprintf("not a number: %q", v))
		}
		c.Cache.Size = n
	}
	if v := os.Getenv(EnvCompat); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidation(EnvCompat, fmt.Sprintf("not a boolean: %q", v))
		}
		c.Lookup.Compat = b
	}
	return nil
}

// Validate checks the settings for values the tool cannot use.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	if c.Cache.Size < 0 {
		return errors.NewValidation("cache.size", "must not be negative")
	}
	return nil
}
