package render

import (
	"context"
	"fmt"
	"image"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/usetrmnl/inkpipe/pkg/engine"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/observability"
	"github.com/usetrmnl/inkpipe/pkg/raster"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/style"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatRaster Format = "raster" // *image.RGBA for dithering
	FormatPNG    Format = "png"    // PNG-encoded raster export
	FormatSVG    Format = "svg"    // vector export
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatRaster, FormatPNG, FormatSVG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !slices.Contains(AllFormats, f) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want raster, png or svg)", s)
	}
	return f, nil
}

// FormatNames returns the string form of formats for cache keys.
func FormatNames(formats []Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

// Output holds the formats that succeeded. A nil field means the format
// was not requested or failed; Errors records the failures.
type Output struct {
	Raster *image.RGBA
	PNG    []byte
	SVG    []byte

	Width, Height int     // requested logical size
	Scale         float64 // device pixels per logical pixel
	Errors        map[Format]error
}

// Err returns the failure recorded for f, if any.
func (o *Output) Err(f Format) error {
	return o.Errors[f]
}

// Renderer renders components. It holds no per-render state and is safe
// for concurrent use.
type Renderer struct {
	Logger *log.Logger
}

// New creates a renderer. A nil logger discards output.
func New(logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Renderer{Logger: logger}
}

// Scale returns the render scale for settings.
func Scale(settings recipe.RenderSettings) float64 {
	if settings.DoubleForSharperText {
		return 2
	}
	return 1
}

// Render produces the requested formats for in. Width and height are
// validated; every other failure is recovered into Output.Errors.
func (r *Renderer) Render(ctx context.Context, comp recipe.Component, in recipe.Input, formats []Format, settings recipe.RenderSettings) (*Output, error) {
	if err := errors.ValidateDimensions(in.Width, in.Height); err != nil {
		return nil, err
	}
	formats = dedupe(formats)
	for _, f := range formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return nil, err
		}
	}

	out := &Output{
		Width:  in.Width,
		Height: in.Height,
		Scale:  Scale(settings),
		Errors: make(map[Format]error),
	}

	layout := sync.OnceValues(func() (*engine.Box, error) {
		return r.layout(comp, in, out.Scale)
	})
	pixels := sync.OnceValues(func() (*image.RGBA, error) {
		box, err := layout()
		if err != nil {
			return nil, err
		}
		return engine.Rasterize(box)
	})

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, f := range formats {
		g.Go(func() error {
			hooks := observability.Render()
			hooks.OnFormatStart(ctx, in.Slug, string(f))
			start := time.Now()

			err := r.renderFormat(f, out, &mu, layout, pixels)
			if err != nil {
				err = errors.Wrap(errors.ErrCodeRenderEngineFailure, err, "render %s as %s", in.Slug, f)
				r.Logger.Warn("format render failed", "slug", in.Slug, "format", f, "err", err)
				mu.Lock()
				out.Errors[f] = err
				if f == FormatSVG {
					out.SVG = PlaceholderSVG(in.Width, in.Height)
				}
				mu.Unlock()
			}
			hooks.OnFormatComplete(ctx, in.Slug, string(f), time.Since(start), err)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// renderFormat fills one field of out. Panics are converted to errors.
func (r *Renderer) renderFormat(f Format, out *Output, mu *sync.Mutex,
	layout func() (*engine.Box, error), pixels func() (*image.RGBA, error)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	switch f {
	case FormatRaster:
		img, err := pixels()
		if err != nil {
			return err
		}
		img = raster.Clone(img)
		mu.Lock()
		out.Raster = img
		mu.Unlock()
	case FormatPNG:
		img, err := pixels()
		if err != nil {
			return err
		}
		data, err := raster.EncodePNG(img)
		if err != nil {
			return err
		}
		mu.Lock()
		out.PNG = data
		mu.Unlock()
	case FormatSVG:
		box, err := layout()
		if err != nil {
			return err
		}
		data, err := engine.Vector(box)
		if err != nil {
			return err
		}
		mu.Lock()
		out.SVG = data
		mu.Unlock()
	}
	return nil
}

// layout builds, normalizes and lays out the component tree.
func (r *Renderer) layout(comp recipe.Component, in recipe.Input, scale float64) (box *engine.Box, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("component panic: %v", p)
		}
	}()
	if comp == nil {
		return nil, errors.New(errors.ErrCodeComponentLoadFailure, "no component for %q", in.Slug)
	}
	tree, err := comp.Build(in)
	if err != nil {
		return nil, err
	}
	normalized := style.Normalize(tree, in.Width)
	return engine.Layout(normalized, engine.Options{Width: in.Width, Height: in.Height, Scale: scale})
}

// PlaceholderSVG is returned when vector export fails.
func PlaceholderSVG(width, height int) []byte {
	size := max(12, min(width, height)/16)
	return fmt.Appendf(nil, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">
  <rect width="%d" height="%d" fill="#ffffff"/>
  <text x="%d" y="%d" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="%d" fill="#000000">Unable to generate SVG</text>
</svg>
`, width, height, width, height, width, height, width/2, height/2, size)
}

func dedupe(formats []Format) []Format {
	seen := make(map[Format]bool, len(formats))
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
