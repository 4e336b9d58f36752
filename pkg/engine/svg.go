package engine

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"math"
	"strings"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// Vector writes a laid-out tree as a standalone SVG document. Fill
// patterns become <pattern> definitions; text uses the Go font family.
func Vector(root *Box) ([]byte, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeRenderEngineFailure, "no layout to vectorize")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		root.W, root.H, root.W, root.H)

	cell := math.Max(1, math.Round(root.Scale))
	var defs, body bytes.Buffer
	id := 0
	root.Walk(func(b *Box) {
		if b.W > 0 && b.H > 0 {
			renderBox(&body, b)
			if b.Style.Pattern != nil {
				id++
				renderPatternDef(&defs, b, id, cell)
				fmt.Fprintf(&body, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"%s fill="url(#fp%d)"/>`+"\n",
					b.X, b.Y, b.W, b.H, rx(b), id)
			}
			renderBorder(&body, b)
		}
		renderLines(&body, b)
	})

	if defs.Len() > 0 {
		buf.WriteString("<defs>\n")
		buf.Write(defs.Bytes())
		buf.WriteString("</defs>\n")
	}
	buf.Write(body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func renderBox(buf *bytes.Buffer, b *Box) {
	if b.Style.Background == nil {
		return
	}
	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"%s fill="%s"/>`+"\n",
		b.X, b.Y, b.W, b.H, rx(b), hexColor(*b.Style.Background))
}

func renderBorder(buf *bytes.Buffer, b *Box) {
	e := b.Style.Border
	if e.Top <= 0 && e.Right <= 0 && e.Bottom <= 0 && e.Left <= 0 {
		return
	}
	stroke := hexColor(b.Style.BorderColor)
	if e == uniform(e.Top) {
		half := e.Top / 2
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"%s fill="none" stroke="%s" stroke-width="%.1f"/>`+"\n",
			b.X+half, b.Y+half, b.W-e.Top, b.H-e.Top, rx(b), stroke, e.Top)
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
			fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				r[0], r[1], r[2], r[3], stroke)
		}
	}
}

func renderPatternDef(buf *bytes.Buffer, b *Box, id int, cell float64) {
	p := *b.Style.Pattern
	fmt.Fprintf(buf, `  <pattern id="fp%d" patternUnits="userSpaceOnUse" x="%.1f" y="%.1f" width="%.0f" height="%.0f">`+"\n",
		id, b.X, b.Y, float64(p.W)*cell, float64(p.H)*cell)
	ink := hexColor(b.Style.Color)
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			if p.On(x, y) {
				fmt.Fprintf(buf, `    <rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="%s"/>`+"\n",
					float64(x)*cell, float64(y)*cell, cell, cell, ink)
			}
		}
	}
	buf.WriteString("  </pattern>\n")
}

func renderLines(buf *bytes.Buffer, b *Box) {
	if len(b.Lines) == 0 {
		return
	}
	weight := "normal"
	if b.Style.Bold {
		weight = "bold"
	}
	for _, l := range b.Lines {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-family="Go, sans-serif" font-size="%.1f" font-weight="%s" fill="%s">%s</text>`+"\n",
			l.X, l.Y, b.Style.FontSize, weight, hexColor(b.Style.Color), html.EscapeString(l.Text))
	}
}

func rx(b *Box) string {
	r := radius(b)
	if r <= 0 {
		return ""
	}
	return fmt.Sprintf(` rx="%.1f"`, r)
}

func hexColor(c color.RGBA) string {
	return strings.ToLower(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
