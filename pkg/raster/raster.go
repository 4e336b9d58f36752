// Package raster holds the RGBA buffer helpers shared by the renderer,
// the dithering engine and the mixup compositor.
//
// Every raster handed between stages is an *image.RGBA anchored at the
// origin whose buffer length is exactly width*height*4. A raster has one
// owner at a time; stages that need to keep a buffer call [Clone].
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// White is the canvas background.
var White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// New allocates a transparent raster.
func New(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// NewBlank allocates a raster filled with an opaque color.
func NewBlank(width, height int, c color.Color) *image.RGBA {
	img := New(width, height)
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Validate checks the buffer invariant.
func Validate(img *image.RGBA) error {
	if img == nil {
		return errors.New(errors.ErrCodeDitherInputInvalid, "raster is nil")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return errors.New(errors.ErrCodeDitherInputInvalid, "raster is empty (%dx%d)", w, h)
	}
	if b.Min != (image.Point{}) || img.Stride != w*4 || len(img.Pix) != w*h*4 {
		return errors.New(errors.ErrCodeDitherInputInvalid,
			"raster buffer is %d bytes with stride %d, want %d bytes for %dx%d", len(img.Pix), img.Stride, w*h*4, w, h)
	}
	return nil
}

// FromImage returns img as an origin-anchored RGBA raster, converting when
// it is any other image type or a sub-image.
func FromImage(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && Validate(rgba) == nil {
		return rgba
	}
	b := img.Bounds()
	out := New(b.Dx(), b.Dy())
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Clone copies img into a fresh raster.
func Clone(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy())
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// CoverFit scales src by the larger of the two axis ratios so it fills a
// width x height box, then crops the overflow evenly from both sides.
func CoverFit(src image.Image, width, height int) (*image.RGBA, error) {
	if width < 1 || height < 1 {
		return nil, errors.New(errors.ErrCodeSlotResizeFailure, "target size %dx%d is empty", width, height)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeSlotResizeFailure, "source image is empty")
	}

	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	scale := max(float64(width)/sw, float64(height)/sh)

	cropW := min(sw, float64(width)/scale)
	cropH := min(sh, float64(height)/scale)
	x0 := sb.Min.X + int((sw-cropW)/2)
	y0 := sb.Min.Y + int((sh-cropH)/2)
	crop := image.Rect(x0, y0, x0+max(1, int(cropW+0.5)), y0+max(1, int(cropH+0.5))).Intersect(sb)

	dst := New(width, height)
	if crop.Dx() == width && crop.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst, nil
}

// Resize scales src to exactly width x height without preserving aspect.
// It is used to bring a double-resolution render back to target size.
func Resize(src image.Image, width, height int) *image.RGBA {
	dst := New(width, height)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Overlay composites src onto dst with its top-left corner at at.
func Overlay(dst *image.RGBA, src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes PNG bytes into a raster.
func DecodePNG(data []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode png")
	}
	return FromImage(img), nil
}
