package recipe

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// DefinitionFile is the per-recipe definition file name.
const DefinitionFile = "recipe.toml"

// DefaultTemplate is used when a definition names no template.
const DefaultTemplate = "template.html"

// LoadCatalog registers every recipe found as <dir>/<slug>/recipe.toml.
// Templates are read and compiled lazily on first resolution, so a broken
// template surfaces as a component load failure rather than a startup
// error. Directories with an invalid slug or unreadable definition are
// skipped with a warning. It returns the number of recipes registered.
func LoadCatalog(dir string, reg *Registry, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = discardLogger()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfigNotFound, err, "read recipe dir %s", dir)
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		slug := e.Name()
		if err := errors.ValidateSlug(slug); err != nil {
			logger.Warn("skipping recipe directory", "dir", slug, "err", err)
			continue
		}
		recipeDir := filepath.Join(dir, slug)
		path := filepath.Join(recipeDir, DefinitionFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		var def Definition
		if _, err := toml.DecodeFile(path, &def); err != nil {
			logger.Warn("skipping recipe", "slug", slug, "err", err)
			continue
		}
		def.Slug = slug
		if def.Title == "" {
			def.Title = slug
		}
		if def.Template == "" {
			def.Template = DefaultTemplate
		}

		source, err := sourceFor(def, recipeDir)
		if err != nil {
			logger.Warn("recipe data source disabled", "slug", slug, "err", err)
		}
		reg.Register(def, templateLoader(slug, filepath.Join(recipeDir, filepath.Clean("/"+def.Template))), source)
		n++
	}
	logger.Debug("loaded recipe catalog", "dir", dir, "recipes", n)
	return n, nil
}

func templateLoader(slug, path string) Loader {
	return func() (Component, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeComponentLoadFailure, err, "read template for %s", slug)
		}
		return NewTemplateComponent(slug, string(src))
	}
}

func sourceFor(def Definition, recipeDir string) (DataSource, error) {
	if !def.HasDataFetch {
		return nil, nil
	}
	switch def.Data.Kind {
	case "http":
		if def.Data.URL == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "http data source needs a url")
		}
		return NewHTTPSource(def.Data.URL, time.Duration(def.Data.Timeout)), nil
	case "wasm":
		if def.Data.Module == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "wasm data source needs a module")
		}
		return NewWasmSource(filepath.Join(recipeDir, filepath.Clean("/"+def.Data.Module))), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown data source kind %q", def.Data.Kind)
	}
}
