package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/usetrmnl/inkpipe/pkg/cache"
	"github.com/usetrmnl/inkpipe/pkg/dither"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/observability"
	"github.com/usetrmnl/inkpipe/pkg/raster"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating resolution and caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different requests.
type Runner struct {
	Resolver *recipe.Resolver
	Renderer *render.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	// TTL is how long encoded artifacts stay in Cache.
	TTL time.Duration
}

// NewRunner creates a runner around a resolver and renderer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If renderer is nil, one sharing logger is created.
func NewRunner(resolver *recipe.Resolver, renderer *render.Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if renderer == nil {
		renderer = render.New(logger)
	}
	return &Runner{
		Resolver: resolver,
		Renderer: renderer,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		TTL:      DefaultArtifactTTL,
	}
}

// =============================================================================
// Single Recipe
// =============================================================================

// RenderRecipe resolves and renders one recipe. Resolution never fails:
// an unknown or broken recipe renders its NotFound fallback. The returned
// error is reserved for invalid requests.
//
// Each successfully rendered format is cached on its own, so a later
// request for a different format set reuses what is already encoded.
// Fallback renders and renders from default props after a failed data
// fetch are never cached.
func (r *Runner) RenderRecipe(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	out := &render.Output{
		Width:  req.Width,
		Height: req.Height,
		Scale:  1,
		Errors: make(map[render.Format]error),
	}

	paramsHash := cache.HashParams(req.Params)
	var missing []render.Format
	for _, f := range req.Formats {
		if !req.Refresh && r.loadArtifact(ctx, r.artifactKey(req, paramsHash, f), f, out) {
			continue
		}
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		result.Output = out
		result.Element = recipe.Element{Input: recipe.Input{Slug: req.Slug, Width: req.Width, Height: req.Height}}
		result.CacheHit = true
		r.Logger.Debug("render cache hit", "slug", req.Slug, "formats", req.Formats)
		return result, nil
	}

	resolveStart := time.Now()
	el := r.Resolver.BuildRenderElement(ctx, req.Slug, req.Params, req.Validator)
	el.Input = el.Input.WithSize(req.Width, req.Height)
	result.Element = el
	result.Stats.ResolveTime = time.Since(resolveStart)
	if el.Fallback {
		r.Logger.Warn("rendering fallback", "slug", req.Slug, "err", el.Err)
		// Cached formats belong to the real recipe; render every format
		// from the fallback so the output stays consistent.
		if len(missing) < len(req.Formats) {
			missing = req.Formats
			out.Raster, out.PNG, out.SVG = nil, nil, nil
			clear(out.Errors)
		}
	}

	renderStart := time.Now()
	rendered, err := r.Renderer.Render(ctx, el.Component, el.Input, missing, el.Config.Render)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	merge(out, rendered, missing)
	result.Output = out

	r.Logger.Info("rendered recipe",
		"slug", req.Slug,
		"formats", missing,
		"fallback", el.Fallback,
		"degraded", el.Degraded,
		"duration", result.Stats.RenderTime)

	if !el.Fallback && !el.Degraded {
		for _, f := range missing {
			if rendered.Err(f) == nil {
				r.storeArtifact(ctx, r.artifactKey(req, paramsHash, f), f, rendered)
			}
		}
	}
	return result, nil
}

// RenderSlot renders slug's raster at width x height for compositing.
// The raster may be larger than requested when the recipe doubles its
// resolution; callers resize to fit.
func (r *Runner) RenderSlot(ctx context.Context, slug string, width, height int) (*image.RGBA, error) {
	res, err := r.RenderRecipe(ctx, Request{
		Slug:    slug,
		Width:   width,
		Height:  height,
		Formats: []render.Format{render.FormatRaster},
	})
	if err != nil {
		return nil, err
	}
	if res.Output.Raster == nil {
		if err := res.Output.Err(render.FormatRaster); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeRenderEngineFailure, "no raster for %q", slug)
	}
	return res.Output.Raster, nil
}

// =============================================================================
// Device Bitmaps
// =============================================================================

// RecipeBitmap renders slug at the target size and dithers it. When the
// recipe's raster cannot be produced, the NotFound screen is rendered
// instead; an error means even that failed, or the request was invalid.
func (r *Runner) RecipeBitmap(ctx context.Context, req BitmapRequest) (*dither.Bitmap, error) {
	if req.Levels == 0 {
		req.Levels = DefaultLevels
	}
	if err := errors.ValidateDimensions(req.Width, req.Height); err != nil {
		return nil, err
	}
	if err := errors.ValidateLevels(req.Levels); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDitherInputInvalid, err, "bitmap for %q", req.Slug)
	}

	img, err := r.RenderSlot(ctx, req.Slug, req.Width, req.Height)
	if err != nil {
		r.Logger.Warn("recipe raster failed, rendering fallback", "slug", req.Slug, "err", err)
		img, err = r.fallbackRaster(ctx, req.Slug, req.Width, req.Height, err)
		if err != nil {
			return nil, err
		}
	}
	return r.Dither(ctx, img, req.Width, req.Height, req.Levels)
}

// Dither brings img to width x height and runs one Atkinson pass.
func (r *Runner) Dither(ctx context.Context, img image.Image, width, height, levels int) (*dither.Bitmap, error) {
	if img != nil {
		if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
			img = raster.Resize(img, width, height)
		}
	}
	start := time.Now()
	bmp, err := dither.Atkinson(img, width, height, levels)
	observability.Dither().OnDither(ctx, width, height, levels, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("dithered", "width", width, "height", height, "levels", levels, "duration", time.Since(start))
	return bmp, nil
}

func (r *Runner) fallbackRaster(ctx context.Context, slug string, width, height int, reason error) (*image.RGBA, error) {
	el := recipe.Fallback(slug, reason)
	out, err := r.Renderer.Render(ctx, el.Component, el.Input.WithSize(width, height),
		[]render.Format{render.FormatRaster}, el.Config.Render)
	if err != nil {
		return nil, err
	}
	if out.Raster == nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngineFailure, out.Err(render.FormatRaster), "fallback render for %q", slug)
	}
	return out.Raster, nil
}

// =============================================================================
// Artifact Cache
// =============================================================================

// artifact is the cached form of one rendered format. Rasters are stored
// PNG-encoded.
type artifact struct {
	Scale float64 `json:"scale"`
	Data  []byte  `json:"data"`
}

func (r *Runner) artifactKey(req Request, paramsHash string, f render.Format) string {
	return r.Keyer.RenderKey(req.Slug+"@"+paramsHash, req.Width, req.Height, []string{string(f)})
}

func (r *Runner) loadArtifact(ctx context.Context, key string, f render.Format, out *render.Output) bool {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("render cache read failed", "key", key, "err", err)
	}
	if !ok || err != nil {
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeRender)
		return false
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeRender)
		return false
	}

	switch f {
	case render.FormatRaster:
		img, err := raster.DecodePNG(a.Data)
		if err != nil {
			observability.Cache().OnCacheMiss(ctx, cache.KeyTypeRender)
			return false
		}
		out.Raster = img
	case render.FormatPNG:
		out.PNG = a.Data
	case render.FormatSVG:
		out.SVG = a.Data
	}
	out.Scale = a.Scale
	observability.Cache().OnCacheHit(ctx, cache.KeyTypeRender)
	return true
}

func (r *Runner) storeArtifact(ctx context.Context, key string, f render.Format, out *render.Output) {
	a := artifact{Scale: out.Scale}
	switch f {
	case render.FormatRaster:
		data, err := raster.EncodePNG(out.Raster)
		if err != nil {
			return
		}
		a.Data = data
	case render.FormatPNG:
		a.Data = out.PNG
	case render.FormatSVG:
		a.Data = out.SVG
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Debug("render cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeRender, len(data))
}

// merge copies the formats in fs from src into dst.
func merge(dst, src *render.Output, fs []render.Format) {
	dst.Scale = src.Scale
	for _, f := range fs {
		switch f {
		case render.FormatRaster:
			dst.Raster = src.Raster
		case render.FormatPNG:
			dst.PNG = src.PNG
		case render.FormatSVG:
			dst.SVG = src.SVG
		}
		if err := src.Err(f); err != nil {
			dst.Errors[f] = err
		}
	}
}
