package mixup

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/usetrmnl/inkpipe/pkg/dither"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/observability"
	"github.com/usetrmnl/inkpipe/pkg/raster"
)

// DefaultConcurrency bounds simultaneous slot renders.
const DefaultConcurrency = 4

// SlotRenderer renders one recipe for a slot. The returned raster may be
// any size; the compositor cover-fits it.
type SlotRenderer interface {
	RenderSlot(ctx context.Context, slug string, width, height int) (*image.RGBA, error)
}

// Compositor renders mixups. It is safe for concurrent use.
type Compositor struct {
	Renderer    SlotRenderer
	Logger      *log.Logger
	Concurrency int
}

// New creates a compositor. A nil logger discards output.
func New(renderer SlotRenderer, logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Compositor{
		Renderer:    renderer,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Render composites a persisted mixup.
func (c *Compositor) Render(ctx context.Context, m Mixup, width, height, levels int) (*dither.Bitmap, error) {
	layout, err := LookupLayout(m.LayoutID)
	if err != nil {
		return nil, err
	}
	return c.Composite(ctx, layout, width, height, m.Assignments, levels)
}

// Composite renders the assigned slots of layout onto a white
// width x height canvas and dithers it once. Levels of 0 means
// dither.DefaultLevels.
func (c *Compositor) Composite(ctx context.Context, layout Layout, width, height int, assign Assignment, levels int) (*dither.Bitmap, error) {
	if levels == 0 {
		levels = dither.DefaultLevels
	}
	if err := errors.ValidateLevels(levels); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDitherInputInvalid, err, "mixup %s", layout.ID)
	}
	canvas, err := c.Canvas(ctx, layout, width, height, assign)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	bmp, err := dither.Atkinson(canvas, width, height, levels)
	observability.Dither().OnDither(ctx, width, height, levels, time.Since(start), err)
	return bmp, err
}

// slotResult is one rendered, fitted slot.
type slotResult struct {
	img *image.RGBA
	at  image.Point
}

// Canvas composites the assigned slots without dithering. Slots render
// concurrently; a failing slot is logged and left white.
func (c *Compositor) Canvas(ctx context.Context, layout Layout, width, height int, assign Assignment) (*image.RGBA, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	for id := range assign {
		if _, ok := layout.Slot(id); !ok {
			c.Logger.Debug("ignoring assignment to unknown slot", "layout", layout.ID, "slot", id)
		}
	}

	results := make([]slotResult, len(layout.Slots))
	var g errgroup.Group
	g.SetLimit(max(1, c.Concurrency))
	for i, slot := range layout.Slots {
		slug := assign[slot.ID]
		rect := slot.Rect(width, height)
		if slug == "" || rect.Empty() {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			img, err := c.renderSlot(ctx, slug, rect)
			observability.Render().OnSlotComplete(ctx, slot.ID, slug, time.Since(start), err)
			if err != nil {
				c.Logger.Warn("slot render failed", "slot", slot.ID, "slug", slug, "err", err)
				return nil
			}
			results[i] = slotResult{img: img, at: rect.Min}
			return nil
		})
	}
	_ = g.Wait()

	canvas := raster.NewBlank(width, height, raster.White)
	for _, r := range results {
		if r.img != nil {
			raster.Overlay(canvas, r.img, r.at)
		}
	}
	return canvas, nil
}

// renderSlot renders slug at rect's size and cover-fits the result.
// Panics from the renderer are returned as errors.
func (c *Compositor) renderSlot(ctx context.Context, slug string, rect image.Rectangle) (img *image.RGBA, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrCodeRenderEngineFailure, "slot panic: %v", p)
		}
	}()
	if c.Renderer == nil {
		return nil, fmt.Errorf("no slot renderer")
	}
	src, err := c.Renderer.RenderSlot(ctx, slug, rect.Dx(), rect.Dy())
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New(errors.ErrCodeRenderEngineFailure, "no raster for %q", slug)
	}
	return raster.CoverFit(src, rect.Dx(), rect.Dy())
}
