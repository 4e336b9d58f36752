// Package dither reduces continuous-tone rasters to packed device bitmaps
// using Atkinson error diffusion generalized to N gray levels.
//
// Each pixel's quantization error is spread in eighths to six forward
// neighbours; the remaining quarter is dropped, which keeps contrast high
// on e-ink panels:
//
//	        *   1/8 1/8
//	1/8 1/8 1/8
//	    1/8
//
// The pass is sequential and deterministic: identical input always yields
// an identical bitmap.
package dither

import (
	"image"
	"math"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/raster"
)

// DefaultLevels is monochrome.
const DefaultLevels = 2

// neighbours receiving err/8 each, relative to the current pixel.
var neighbours = [6]struct{ dx, dy int }{
	{1, 0}, {2, 0},
	{-1, 1}, {0, 1}, {1, 1},
	{0, 2},
}

// Atkinson dithers img to levels gray levels. The image must already be
// width x height; no resampling happens here.
func Atkinson(img image.Image, width, height, levels int) (*Bitmap, error) {
	if levels < 2 || levels > 256 {
		return nil, errors.New(errors.ErrCodeDitherInputInvalid, "levels must be in [2, 256], got %d", levels)
	}
	if width < 1 || height < 1 {
		return nil, errors.New(errors.ErrCodeDitherInputInvalid, "target size must be positive, got %dx%d", width, height)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeDitherInputInvalid, "input image is empty")
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, errors.New(errors.ErrCodeDitherInputInvalid,
			"input is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}

	buf, err := luminance(img, width, height)
	if err != nil {
		return nil, err
	}

	out := NewBitmap(width, height, levels)
	step := 255 / float64(levels-1)
	maxIdx := float64(levels - 1)

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			v := buf[row+x]
			idx := math.Min(math.Max(math.Round(v/step), 0), maxIdx)
			out.SetIndex(x, y, uint8(idx))

			diff := (v - idx*step) / 8
			for _, n := range neighbours {
				nx, ny := x+n.dx, y+n.dy
				if nx < 0 || nx >= width || ny >= height {
					continue
				}
				buf[ny*width+nx] += diff
			}
		}
	}
	return out, nil
}

// luminance converts img to perceptual gray, compositing over white.
func luminance(img image.Image, width, height int) ([]float64, error) {
	buf := make([]float64, width*height)

	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		if err := raster.Validate(rgba); err != nil {
			return nil, err
		}
		for i := range buf {
			p := rgba.Pix[i*4 : i*4+4 : i*4+4]
			buf[i] = luma(float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3]))
		}
		return buf, nil
	}

	b := img.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			buf[y*width+x] = luma(float64(r>>8), float64(g>>8), float64(bl>>8), float64(a>>8))
		}
	}
	return buf, nil
}

// luma takes premultiplied 8-bit channels.
func luma(r, g, b, a float64) float64 {
	bg := 255 - a
	return 0.299*(r+bg) + 0.587*(g+bg) + 0.114*(b+bg)
}
