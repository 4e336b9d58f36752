package engine

import (
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/raster"
	"github.com/usetrmnl/inkpipe/pkg/style"
)

// Rasterize paints a laid-out tree onto a white canvas the size of the
// root box. Panics inside the painter surface as RENDER_ENGINE_FAILURE.
func Rasterize(root *Box) (img *image.RGBA, err error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeRenderEngineFailure, "no layout to rasterize")
	}
	w, h := int(math.Round(root.W)), int(math.Round(root.H))
	if w < 1 || h < 1 {
		return nil, errors.New(errors.ErrCodeRenderEngineFailure, "empty canvas %dx%d", w, h)
	}

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = errors.New(errors.ErrCodeRenderEngineFailure, "rasterizer panic: %v", r)
		}
	}()

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.White)

	p := painter{dc: dc, cell: math.Max(1, math.Round(root.Scale))}
	root.Walk(p.paint)
	if p.err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngineFailure, p.err, "paint")
	}

	_ = dc.FlushGPU()
	out := dc.Image()
	if rgba, ok := out.(*image.RGBA); ok {
		return rgba, nil
	}
	return raster.FromImage(out), nil
}

type painter struct {
	dc   *gg.Context
	cell float64
	err  error
}

func (p *painter) paint(b *Box) {
	if p.err != nil {
		return
	}
	s := b.Style

	if b.W > 0 && b.H > 0 {
		p.box(b)
	}
	if len(b.Lines) > 0 {
		p.dc.SetFont(face(s.FontSize, s.Bold))
		p.dc.SetColor(s.Color)
		for _, l := range b.Lines {
			p.dc.DrawString(l.Text, l.X, l.Y)
		}
	}
}

func (p *painter) box(b *Box) {
	s := b.Style
	if s.Background != nil {
		p.dc.SetColor(*s.Background)
		p.shape(b)
		p.fill()
	}
	if s.Pattern != nil {
		p.dc.SetFillPattern(tilePattern{
			pattern: *s.Pattern,
			ink:     gg.FromColor(s.Color),
			ox:      b.X,
			oy:      b.Y,
			cell:    p.cell,
		})
		p.shape(b)
		p.fill()
	}
	p.border(b)
}

func (p *painter) shape(b *Box) {
	if r := radius(b); r > 0 {
		p.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, r)
		return
	}
	p.dc.DrawRectangle(b.X, b.Y, b.W, b.H)
}

func (p *painter) fill() {
	if err := p.dc.Fill(); err != nil && p.err == nil {
		p.err = err
	}
}

func (p *painter) border(b *Box) {
	e := b.Style.Border
	if e.Top <= 0 && e.Right <= 0 && e.Bottom <= 0 && e.Left <= 0 {
		return
	}
	p.dc.SetColor(b.Style.BorderColor)

	if r := radius(b); r > 0 && e == uniform(e.Top) {
		half := e.Top / 2
		p.dc.SetLineWidth(e.Top)
		p.dc.DrawRoundedRectangle(b.X+half, b.Y+half, b.W-e.Top, b.H-e.Top, math.Max(0, r-half))
		if err := p.dc.Stroke(); err != nil && p.err == nil {
			p.err = err
		}
		return
	}

	sides := [4][4]float64{
		{b.X, b.Y, b.W, e.Top},
		{b.X + b.W - e.Right, b.Y, e.Right, b.H},
		{b.X, b.Y + b.H - e.Bottom, b.W, e.Bottom},
		{b.X, b.Y, e.Left, b.H},
	}
	for _, r := range sides {
		if r[2] > 0 && r[3] > 0 {
			p.dc.DrawRectangle(r[0], r[1], r[2], r[3])
			p.fill()
		}
	}
}

// radius clamps the corner radius to half the shorter side.
func radius(b *Box) float64 {
	return math.Min(b.Style.Radius, math.Min(b.W, b.H)/2)
}

// tilePattern repeats a 1-bit tile anchored at the box origin. Each tile
// cell covers cell device pixels so the pattern survives downscaling.
type tilePattern struct {
	pattern style.Pattern
	ink     gg.RGBA
	ox, oy  float64
	cell    float64
}

func (t tilePattern) ColorAt(x, y float64) gg.RGBA {
	cx := int(math.Floor((x - t.ox) / t.cell))
	cy := int(math.Floor((y - t.oy) / t.cell))
	if t.pattern.On(cx, cy) {
		return t.ink
	}
	return gg.RGBA{}
}

var _ gg.Pattern = tilePattern{}
