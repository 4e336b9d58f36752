// Package engine lays out a normalized style tree and paints it.
//
// It is deliberately small: block flow, single-line flex rows and columns,
// box edges, solid fills, baked fill patterns and wrapped text in the Go
// fonts. That covers the utility subset recipe templates are written in.
//
// A render is two steps:
//
//	box, err := engine.Layout(tree, engine.Options{Width: 800, Height: 480, Scale: 2})
//	img, err := engine.Rasterize(box)
//	svg, err := engine.Vector(box)
//
// Options.Scale multiplies every length, so a Scale 2 render is a
// 1600x960 raster of the same layout. Responsive variants are resolved by
// the normalizer against the unscaled width.
package engine

import (
	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// Options configures a layout pass.
type Options struct {
	Width  int     // logical canvas width
	Height int     // logical canvas height
	Scale  float64 // device pixels per logical pixel; 0 means 1
}

// Validate checks canvas dimensions.
func (o Options) Validate() error {
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.Scale < 0 || o.Scale > 4 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, 4], got %v", o.Scale)
	}
	return nil
}

// scale returns the effective scale factor.
func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// PixelWidth is the device canvas width.
func (o Options) PixelWidth() int { return int(float64(o.Width)*o.scale() + 0.5) }

// PixelHeight is the device canvas height.
func (o Options) PixelHeight() int { return int(float64(o.Height)*o.scale() + 0.5) }
