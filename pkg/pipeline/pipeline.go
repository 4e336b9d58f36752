// Package pipeline provides the recipe rendering pipeline for inkpipe.
//
// This package implements the complete resolve → render → dither pipeline
// used by the CLI, the HTTP server and the mixup compositor. By centralizing
// this logic, every entry point gets the same fallback and caching behavior.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: look up the recipe, load its component and fetch its props
//  2. Render: produce raster, PNG and SVG outputs at the target size
//  3. Dither: reduce the raster to a packed device bitmap
//
// Resolution never fails: unknown or broken recipes render a NotFound
// screen carrying the requested slug.
//
// # Usage
//
//	runner := pipeline.NewRunner(resolver, renderer, cache, nil, logger)
//	result, err := runner.RenderRecipe(ctx, pipeline.Request{
//	    Slug:    "weather",
//	    Width:   800,
//	    Height:  480,
//	    Formats: []render.Format{render.FormatPNG},
//	})
//	png := result.Output.PNG
//
// Produce a device bitmap:
//
//	bmp, err := runner.RecipeBitmap(ctx, pipeline.BitmapRequest{
//	    Slug: "weather", Width: 800, Height: 480, Levels: 2,
//	})
//	data := bmp.EncodeBMP()
package pipeline

import (
	"time"

	"github.com/usetrmnl/inkpipe/pkg/dither"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 480

	// DefaultLevels is the default number of gray levels.
	DefaultLevels = dither.DefaultLevels

	// DefaultArtifactTTL is how long encoded renders stay cached.
	DefaultArtifactTTL = 15 * time.Minute
)

// =============================================================================
// Requests and Results
// =============================================================================

// Request describes a single-recipe render.
type Request struct {
	Slug    string
	Width   int
	Height  int
	Formats []render.Format
	Params  recipe.Props

	// Validator optionally checks resolved props.
	Validator recipe.Validator

	// Refresh bypasses the artifact cache.
	Refresh bool
}

// Validate checks the request and fills defaults.
func (r *Request) Validate() error {
	if r.Width == 0 && r.Height == 0 {
		r.Width, r.Height = DefaultWidth, DefaultHeight
	}
	if err := errors.ValidateDimensions(r.Width, r.Height); err != nil {
		return err
	}
	if len(r.Formats) == 0 {
		r.Formats = []render.Format{render.FormatPNG}
	}
	for _, f := range r.Formats {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return err
		}
	}
	return nil
}

// BitmapRequest describes a render reduced to a device bitmap.
type BitmapRequest struct {
	Slug   string
	Width  int
	Height int
	Levels int // 0 means DefaultLevels
	Params recipe.Props
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Output holds the rendered formats.
	Output *render.Output

	// Element is the resolved recipe, possibly a NotFound fallback.
	Element recipe.Element

	// CacheHit reports that Output came from the artifact cache.
	CacheHit bool

	// Stats contains timing information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResolveTime time.Duration
	RenderTime  time.Duration
	DitherTime  time.Duration
}
