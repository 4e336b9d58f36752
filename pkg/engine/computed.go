package engine

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/usetrmnl/inkpipe/pkg/style"
)

// Edges holds per-side lengths in device pixels.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal is Left + Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical is Top + Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

func uniform(v float64) Edges { return Edges{v, v, v, v} }

// Length is an optional size, either absolute or a percentage of the
// containing block.
type Length struct {
	Value   float64
	Percent bool
	Set     bool
}

// resolve returns the length against a container size, or ok=false when
// unset or relative to an indefinite container.
func (l Length) resolve(container float64) (float64, bool) {
	switch {
	case !l.Set:
		return 0, false
	case l.Percent:
		if container < 0 {
			return 0, false
		}
		return container * l.Value / 100, true
	default:
		return l.Value, true
	}
}

// Computed is the resolved style of one box. Lengths are device pixels.
type Computed struct {
	Display   string // "block" or "flex"
	Direction string // "row" or "column"
	Grow      float64
	Justify   string // start, center, end, between, around
	Align     string // stretch, start, center, end

	Margin, Padding, Border Edges
	RowGap, ColumnGap       float64
	Width, Height           Length

	FontSize  float64
	Bold      bool
	TextAlign string // left, center, right
	Uppercase bool
	Color     color.RGBA

	Background  *color.RGBA
	BorderColor color.RGBA
	Radius      float64
	Pattern     *style.Pattern
}

var (
	black = color.RGBA{0, 0, 0, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// baseFontSize is the root font size in logical pixels.
const baseFontSize = 16

// rootStyle is the style of the viewport box.
func rootStyle(scale float64) Computed {
	bg := white
	return Computed{
		Display:     "block",
		Direction:   "row",
		Justify:     "start",
		Align:       "stretch",
		FontSize:    baseFontSize * scale,
		TextAlign:   "left",
		Color:       black,
		Background:  &bg,
		BorderColor: black,
	}
}

// inherit starts a child style from its parent: text properties carry
// over, box properties reset.
func inherit(parent Computed) Computed {
	return Computed{
		Display:     "block",
		Direction:   "row",
		Justify:     "start",
		Align:       "stretch",
		FontSize:    parent.FontSize,
		Bold:        parent.Bold,
		TextAlign:   parent.TextAlign,
		Uppercase:   parent.Uppercase,
		Color:       parent.Color,
		BorderColor: parent.Color,
	}
}

// tagDefaults are the user-agent sizes for headings, in logical pixels.
var tagDefaults = map[string]struct {
	size float64
	bold bool
}{
	"h1": {32, true}, "h2": {24, true}, "h3": {19, true},
	"h4": {16, true}, "h5": {13, true}, "h6": {11, true},
	"b": {0, true}, "strong": {0, true},
	"small": {13, false},
}

// compute resolves an element's style: tag defaults, Base declarations,
// utility classes, then Style declarations.
func compute(el *style.Element, parent Computed, scale float64) Computed {
	c := inherit(parent)
	if d, ok := tagDefaults[el.Tag]; ok {
		if d.size > 0 {
			c.FontSize = d.size * scale
		}
		c.Bold = c.Bold || d.bold
	}
	for _, d := range el.Base {
		applyDeclaration(&c, d, scale)
	}
	for _, u := range el.Classes {
		applyUtility(&c, u, scale)
	}
	for _, d := range el.Style {
		applyDeclaration(&c, d, scale)
	}
	return c
}

func applyDeclaration(c *Computed, d style.Declaration, scale float64) {
	v := strings.TrimSpace(d.Value)
	switch d.Property {
	case "margin":
		if e, ok := parseEdges(v, scale); ok {
			c.Margin = e
		}
	case "margin-top", "margin-right", "margin-bottom", "margin-left":
		setSide(&c.Margin, strings.TrimPrefix(d.Property, "margin-"), v, scale)
	case "padding":
		if e, ok := parseEdges(v, scale); ok {
			c.Padding = e
		}
	case "padding-top", "padding-right", "padding-bottom", "padding-left":
		setSide(&c.Padding, strings.TrimPrefix(d.Property, "padding-"), v, scale)
	case "border-width":
		if e, ok := parseEdges(v, scale); ok {
			c.Border = e
		}
	case "border-color":
		if col, ok := parseColor(v); ok {
			c.BorderColor = col
		}
	case "border-radius":
		if px, ok := style.Pixels(v); ok {
			c.Radius = px * scale
		}
	case "width":
		c.Width = parseLength(v, scale)
	case "height":
		c.Height = parseLength(v, scale)
	case "display":
		switch v {
		case "flex", "inline-flex", "grid", "inline-grid":
			c.Display = "flex"
		case "block", "inline-block":
			c.Display = "block"
		}
	case "flex-direction":
		if strings.HasPrefix(v, "column") {
			c.Direction = "column"
		} else if strings.HasPrefix(v, "row") {
			c.Direction = "row"
		}
	case "flex-grow":
		if g, err := strconv.ParseFloat(v, 64); err == nil && g >= 0 {
			c.Grow = g
		}
	case "justify-content":
		c.Justify = cssAlignment(v)
	case "align-items":
		c.Align = cssAlignment(v)
	case "gap":
		fields := strings.Fields(v)
		if len(fields) > 0 {
			if row, ok := style.Pixels(fields[0]); ok {
				c.RowGap, c.ColumnGap = row*scale, row*scale
			}
		}
		if len(fields) > 1 {
			if col, ok := style.Pixels(fields[1]); ok {
				c.ColumnGap = col * scale
			}
		}
	case "row-gap":
		if px, ok := style.Pixels(v); ok {
			c.RowGap = px * scale
		}
	case "column-gap":
		if px, ok := style.Pixels(v); ok {
			c.ColumnGap = px * scale
		}
	case "color":
		if col, ok := parseColor(v); ok {
			c.Color = col
		}
	case "background-color":
		if col, ok := parseColor(v); ok {
			c.Background = &col
		} else if v == "transparent" {
			c.Background = nil
		}
	case "font-size":
		if px, ok := style.Pixels(v); ok && px > 0 {
			c.FontSize = px * scale
		}
	case "font-weight":
		n, err := strconv.Atoi(v)
		c.Bold = v == "bold" || v == "bolder" || (err == nil && n >= 600)
	case "text-align":
		switch v {
		case "left", "center", "right":
			c.TextAlign = v
		}
	case "text-transform":
		c.Uppercase = v == "uppercase"
	case style.FillPatternProperty:
		if p, ok := style.ParsePattern(v); ok {
			c.Pattern = &p
		}
	}
}

func cssAlignment(v string) string {
	switch v {
	case "center":
		return "center"
	case "flex-end", "end", "right", "bottom":
		return "end"
	case "space-between":
		return "between"
	case "space-around", "space-evenly":
		return "around"
	case "stretch":
		return "stretch"
	default:
		return "start"
	}
}

// parseEdges reads the 1-4 value CSS shorthand.
func parseEdges(v string, scale float64) (Edges, bool) {
	fields := strings.Fields(v)
	vals := make([]float64, 0, 4)
	for _, f := range fields {
		px, ok := style.Pixels(f)
		if !ok {
			return Edges{}, false
		}
		vals = append(vals, px*scale)
	}
	switch len(vals) {
	case 1:
		return uniform(vals[0]), true
	case 2:
		return Edges{vals[0], vals[1], vals[0], vals[1]}, true
	case 3:
		return Edges{vals[0], vals[1], vals[2], vals[1]}, true
	case 4:
		return Edges{vals[0], vals[1], vals[2], vals[3]}, true
	}
	return Edges{}, false
}

func setSide(e *Edges, side, v string, scale float64) {
	px, ok := style.Pixels(v)
	if !ok {
		return
	}
	px *= scale
	switch side {
	case "top":
		e.Top = px
	case "right":
		e.Right = px
	case "bottom":
		e.Bottom = px
	case "left":
		e.Left = px
	}
}

func parseLength(v string, scale float64) Length {
	if p, ok := strings.CutSuffix(v, "%"); ok {
		if n, err := strconv.ParseFloat(p, 64); err == nil {
			return Length{Value: n, Percent: true, Set: true}
		}
		return Length{}
	}
	if px, ok := style.Pixels(v); ok {
		return Length{Value: px * scale, Set: true}
	}
	return Length{}
}

// parseColor understands named black/white, #rgb, #rrggbb and rgb().
func parseColor(v string) (color.RGBA, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "black":
		return black, true
	case "white":
		return white, true
	case "gray", "grey":
		return grayLevel(500), true
	}
	if hex, ok := strings.CutPrefix(v, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.RGBA{}, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 0xff}, true
	}
	if inner, ok := strings.CutPrefix(v, "rgb("); ok {
		inner = strings.TrimSuffix(inner, ")")
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return color.RGBA{}, false
		}
		var rgb [3]uint8
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return color.RGBA{}, false
			}
			rgb[i] = uint8(n)
		}
		return color.RGBA{rgb[0], rgb[1], rgb[2], 0xff}, true
	}
	return color.RGBA{}, false
}

// grayLevel maps a gray-N shade (50..950) to a neutral gray.
func grayLevel(shade int) color.RGBA {
	y := uint8(255 - shade*255/1000)
	return color.RGBA{y, y, y, 0xff}
}
