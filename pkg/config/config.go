// Package config loads inkpipe configuration from TOML or YAML files.
//
// The format is chosen by file extension (.toml, .yaml, .yml). Missing
// values are filled by applyDefaults, so an empty file yields a usable
// development setup: an 800x480 two-level display, in-memory cache and
// in-memory mixup store.
//
//	cfg, err := config.Load("inkpipe.toml")
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// Environment variables consulted by FromEnv.
const (
	EnvConfigPath  = "INKPIPE_CONFIG"
	EnvDevelopment = "INKPIPE_DEV"
)

// Config is the top-level inkpipe configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Display DisplayConfig `toml:"display" yaml:"display"`
	Recipes RecipesConfig `toml:"recipes" yaml:"recipes"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// DisplayConfig describes the default target panel.
type DisplayConfig struct {
	Width     int `toml:"width" yaml:"width"`
	Height    int `toml:"height" yaml:"height"`
	Grayscale int `toml:"grayscale" yaml:"grayscale"` // level count, 2 = monochrome
}

// RecipesConfig locates the recipe catalog.
type RecipesConfig struct {
	Dir         string `toml:"dir" yaml:"dir"`
	Development bool   `toml:"development" yaml:"development"` // serve unpublished recipes
}

// CacheConfig selects the render artifact cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend" yaml:"backend"` // memory | file | redis | none
	Dir       string   `toml:"dir" yaml:"dir"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`

	// Prefix namespaces every cache key, for deployments sharing a backend.
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// StoreConfig selects the mixup persistence backend.
type StoreConfig struct {
	Backend       string `toml:"backend" yaml:"backend"` // memory | file | sqlite | mongo
	Path          string `toml:"path" yaml:"path"`
	MongoURI      string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database" yaml:"mongo_database"`
}

// Duration is a time.Duration written as a string ("15m") in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a TOML or YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported config format: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv loads the file named by INKPIPE_CONFIG, or the defaults when it
// is unset. INKPIPE_DEV=1 forces development mode.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v := os.Getenv(EnvDevelopment); v == "1" || strings.EqualFold(v, "true") {
		cfg.Recipes.Development = true
	}
	return cfg, nil
}

// Validate checks values applyDefaults cannot repair.
func (c *Config) Validate() error {
	if err := errors.ValidateDimensions(c.Display.Width, c.Display.Height); err != nil {
		return err
	}
	if err := errors.ValidateLevels(c.Display.Grayscale); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory", "file", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "memory", "file", "sqlite":
	case "mongo":
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// String summarizes the effective backends for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("display=%dx%d/%d cache=%s store=%s", c.Display.Width, c.Display.Height,
		c.Display.Grayscale, c.Cache.Backend, c.Store.Backend)
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":2300"
	}
	if c.Display.Width <= 0 {
		c.Display.Width = 800
	}
	if c.Display.Height <= 0 {
		c.Display.Height = 480
	}
	if c.Display.Grayscale <= 0 {
		c.Display.Grayscale = 2
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL.Duration <= 0 {
		c.Cache.TTL.Duration = 15 * time.Minute
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		c.Store.Path = "inkpipe.db"
	}
	if c.Store.Backend == "file" && c.Store.Path == "" {
		c.Store.Path = "mixups"
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "inkpipe"
	}
}
