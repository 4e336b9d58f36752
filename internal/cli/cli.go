// Package cli implements the inkpipe command-line interface.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/usetrmnl/inkpipe/pkg/buildinfo"
	"github.com/usetrmnl/inkpipe/pkg/cache"
	"github.com/usetrmnl/inkpipe/pkg/config"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "inkpipe"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance writing logs to w. The raster engine's
// slog output is routed through the same logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	gg.SetLogger(slog.New(logger))
	return &CLI{Logger: logger}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "inkpipe renders recipes for e-ink displays",
		Long:         `inkpipe renders declarative recipe templates into images sized for e-ink panels, dithers them into device bitmaps and composites several recipes into one screen.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml or .yaml); defaults to $"+config.EnvConfigPath)
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the render cache")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.ditherCommand())
	root.AddCommand(c.recipesCommand())
	root.AddCommand(c.mixupCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// App Factory
// =============================================================================

// app bundles the long-lived services a command needs.
type app struct {
	cfg        *config.Config
	registry   *recipe.Registry
	runner     *pipeline.Runner
	compositor *mixup.Compositor
	store      store.Store
	cache      cache.Cache
}

// loadConfig reads --config, falling back to the environment.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath == "" {
		return config.FromEnv()
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if os.Getenv(config.EnvDevelopment) == "1" {
		cfg.Recipes.Development = true
	}
	return cfg, nil
}

// openApp builds the registry, runner, compositor and store from config.
// The caller must call close.
func (c *CLI) openApp(ctx context.Context) (*app, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	reg := recipe.NewRegistry()
	if err := recipe.RegisterBuiltins(reg, nil); err != nil {
		return nil, err
	}
	if cfg.Recipes.Dir != "" {
		n, err := recipe.LoadCatalog(cfg.Recipes.Dir, reg, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("loaded recipe catalog", "dir", cfg.Recipes.Dir, "recipes", n)
	}

	artifacts, err := c.openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		artifacts.Close()
		return nil, err
	}

	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Cache.Prefix)
	}
	resolver := recipe.NewResolver(reg,
		recipe.WithDevelopment(cfg.Recipes.Development),
		recipe.WithKeyer(keyer),
		recipe.WithLogger(c.Logger))
	runner := pipeline.NewRunner(resolver, render.New(c.Logger), artifacts, keyer, c.Logger)
	runner.TTL = cfg.Cache.TTL.Duration

	return &app{
		cfg:        cfg,
		registry:   reg,
		runner:     runner,
		compositor: mixup.New(runner, c.Logger),
		store:      st,
		cache:      artifacts,
	}, nil
}

func (a *app) close() {
	a.store.Close()
	a.cache.Close()
}

// openCache creates the render artifact cache named by cfg.
func (c *CLI) openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cache.DefaultDir(appName); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Prefix: appName + ":"})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "connect to redis at %s", cfg.RedisAddr)
		}
		return rc, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.Backend)
	}
}
