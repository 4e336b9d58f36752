package dither

import (
	"image"
	"image/color"
)

// Bitmap is a packed device bitmap. Each pixel is a level index in
// [0, Levels-1] stored in Depth bits, most significant bits first.
// Index 0 is black and Levels-1 is white. Rows are Stride bytes apart
// and padded to a multiple of four bytes.
type Bitmap struct {
	Width  int
	Height int
	Depth  int // bits per pixel: 1, 2, 4 or 8
	Levels int
	Stride int
	Pix    []byte
}

// DepthFor returns the smallest supported bit depth that can hold levels.
func DepthFor(levels int) int {
	for _, d := range []int{1, 2, 4, 8} {
		if 1<<d >= levels {
			return d
		}
	}
	return 8
}

// strideFor returns the row size in bytes, padded to 32 bits.
func strideFor(width, depth int) int {
	return ((width*depth + 31) / 32) * 4
}

// NewBitmap allocates a zeroed (all black) bitmap.
func NewBitmap(width, height, levels int) *Bitmap {
	depth := DepthFor(levels)
	stride := strideFor(width, depth)
	return &Bitmap{
		Width:  width,
		Height: height,
		Depth:  depth,
		Levels: levels,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}
}

// Index returns the level index at (x, y).
func (b *Bitmap) Index(x, y int) uint8 {
	bit := x * b.Depth
	v := b.Pix[y*b.Stride+bit/8]
	shift := 8 - b.Depth - bit%8
	return (v >> shift) & uint8(1<<b.Depth-1)
}

// SetIndex stores a level index at (x, y).
func (b *Bitmap) SetIndex(x, y int, idx uint8) {
	bit := x * b.Depth
	i := y*b.Stride + bit/8
	shift := 8 - b.Depth - bit%8
	mask := uint8(1<<b.Depth-1) << shift
	b.Pix[i] = b.Pix[i]&^mask | (idx<<shift)&mask
}

// Gray returns the 8-bit gray value for a level index.
func (b *Bitmap) Gray(idx uint8) uint8 {
	if b.Levels < 2 {
		return 0
	}
	return uint8((int(idx)*255 + (b.Levels-1)/2) / (b.Levels - 1))
}

// ColorModel implements image.Image.
func (b *Bitmap) ColorModel() color.Model { return color.GrayModel }

// Bounds implements image.Image.
func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// At implements image.Image so a bitmap can be previewed as PNG.
func (b *Bitmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(b.Bounds())) {
		return color.Gray{}
	}
	return color.Gray{Y: b.Gray(b.Index(x, y))}
}

var _ image.Image = (*Bitmap)(nil)
