package dither

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	// 72 DPI in pixels per metre.
	pixelsPerMetre = 2835
)

// EncodeBMP returns the bitmap as a palettized BMP file
// (BITMAPFILEHEADER + BITMAPINFOHEADER, bottom-up rows). Palette entries
// beyond Levels are white.
func (b *Bitmap) EncodeBMP() []byte {
	var buf bytes.Buffer
	buf.Grow(b.bmpSize())
	_, _ = b.WriteTo(&buf)
	return buf.Bytes()
}

func (b *Bitmap) paletteEntries() int { return 1 << b.Depth }

func (b *Bitmap) bmpSize() int {
	return fileHeaderSize + infoHeaderSize + b.paletteEntries()*4 + b.Stride*b.Height
}

// WriteTo writes the BMP encoding to w.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	palette := b.paletteEntries()
	offset := fileHeaderSize + infoHeaderSize + palette*4

	head := make([]byte, offset)
	le := binary.LittleEndian

	head[0], head[1] = 'B', 'M'
	le.PutUint32(head[2:], uint32(b.bmpSize()))
	le.PutUint32(head[10:], uint32(offset))

	info := head[fileHeaderSize:]
	le.PutUint32(info[0:], infoHeaderSize)
	le.PutUint32(info[4:], uint32(int32(b.Width)))
	le.PutUint32(info[8:], uint32(int32(b.Height))) // positive: bottom-up
	le.PutUint16(info[12:], 1)
	le.PutUint16(info[14:], uint16(b.Depth))
	le.PutUint32(info[16:], 0) // BI_RGB
	le.PutUint32(info[20:], uint32(b.Stride*b.Height))
	le.PutUint32(info[24:], pixelsPerMetre)
	le.PutUint32(info[28:], pixelsPerMetre)
	le.PutUint32(info[32:], uint32(palette))
	le.PutUint32(info[36:], uint32(palette))

	pal := head[fileHeaderSize+infoHeaderSize:]
	for i := 0; i < palette; i++ {
		g := uint8(0xff)
		if i < b.Levels {
			g = b.Gray(uint8(i))
		}
		pal[i*4], pal[i*4+1], pal[i*4+2], pal[i*4+3] = g, g, g, 0
	}

	n, err := w.Write(head)
	total := int64(n)
	if err != nil {
		return total, err
	}
	for y := b.Height - 1; y >= 0; y-- {
		n, err := w.Write(b.Pix[y*b.Stride : (y+1)*b.Stride])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
