// Package pkg provides the core libraries for inkpipe, a rendering
// pipeline that turns declarative recipe templates into images for e-ink
// displays.
//
// # Overview
//
// A recipe is a template plus a definition (title, default props, optional
// data source, render settings). inkpipe resolves a recipe into a
// renderable element, lays it out with a small flexbox engine, exports it
// as PNG or SVG, and dithers the raster into the palettized BMP a device
// displays. Several recipes can share one screen through a mixup.
//
// # Architecture
//
// The data flow for one device request:
//
//	recipe slug + params
//	         ↓
//	    [recipe] package (definition, data fetch, fallback)
//	         ↓
//	    [style] + [engine] packages (normalize classes, layout, paint)
//	         ↓
//	    [render] package (raster, PNG, SVG)
//	         ↓
//	    [dither] package (Atkinson, BMP)
//
// [pipeline] ties these together with an artifact cache, and [mixup]
// composites several slot renders onto one canvas before dithering.
//
// # Quick Start
//
//	reg := recipe.NewRegistry()
//	_ = recipe.RegisterBuiltins(reg, nil)
//	runner := pipeline.NewRunner(recipe.NewResolver(reg), nil, nil, nil, nil)
//
//	bmp, _ := runner.RecipeBitmap(ctx, pipeline.BitmapRequest{
//	    Slug: "hello", Width: 800, Height: 480, Levels: 2,
//	})
//	_ = os.WriteFile("hello.bmp", bmp.EncodeBMP(), 0o644)
//
// # Main Packages
//
// ## Rendering
//
// [markup] - Sanitized HTML parsing into a node tree.
//
// [style] - Utility-class normalization: spacing scale, responsive
// breakpoints, dither fill patterns.
//
// [engine] - Box layout, painting onto a raster canvas and SVG export.
//
// [render] - Multi-format rendering of one component, formats in parallel.
//
// [raster] - RGBA helpers: cover fit, resize, overlay, PNG codec.
//
// [dither] - Atkinson error diffusion and BMP encoding.
//
// ## Recipes
//
// [recipe] - Definitions, registry, on-disk catalog, HTTP and WASM data
// sources, and the resolver with its memo caches.
//
// ## Orchestration
//
// [pipeline] - Request validation, artifact caching, device bitmaps.
//
// [mixup] - Layouts, slot geometry and the concurrent compositor.
//
// [server] - HTTP endpoints for devices and previews.
//
// ## Infrastructure
//
// [cache] - Memory, file and Redis artifact caches plus cache keys.
//
// [store] - Mixup persistence: memory, file, SQLite and MongoDB.
//
// [config] - TOML/YAML configuration.
//
// [errors] - Coded errors and their HTTP status mapping.
//
// [observability] - Hooks for render, dither, cache and fetch events.
//
// # Testing
//
//	go test ./pkg/...                                  # All tests
//	INKPIPE_TEST_MONGO_URI=mongodb://... go test ./pkg/store  # Include MongoDB
//
// [recipe]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/recipe
// [style]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/style
// [engine]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/engine
// [render]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/render
// [dither]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/dither
// [pipeline]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/pipeline
// [mixup]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/mixup
// [markup]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/markup
// [raster]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/raster
// [server]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/server
// [cache]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/cache
// [store]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/store
// [config]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/config
// [errors]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/errors
// [observability]: https://pkg.go.dev/github.com/usetrmnl/inkpipe/pkg/observability
package pkg
