package engine

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/usetrmnl/inkpipe/pkg/style"
)

// fontSizes is the text-* scale in logical pixels.
var fontSizes = map[string]float64{
	"xs": 12, "sm": 14, "base": 16, "lg": 18, "xl": 20, "2xl": 24, "3xl": 30,
	"4xl": 36, "5xl": 48, "6xl": 60, "7xl": 72, "8xl": 96, "9xl": 128,
}

var radii = map[string]float64{
	"rounded-none": 0, "rounded-sm": 2, "rounded": 4, "rounded-md": 6,
	"rounded-lg": 8, "rounded-xl": 12, "rounded-2xl": 16, "rounded-3xl": 24,
	"rounded-full": 9999,
}

// applyUtility interprets one native utility class. Unknown classes are
// ignored.
func applyUtility(c *Computed, u string, scale float64) {
	switch u {
	case "flex", "inline-flex", "grid", "inline-grid":
		c.Display = "flex"
		return
	case "block", "inline-block":
		c.Display = "block"
		return
	case "flex-row":
		c.Direction = "row"
		return
	case "flex-col":
		c.Direction = "column"
		return
	case "flex-1", "flex-auto", "grow":
		c.Grow = 1
		return
	case "flex-none", "grow-0":
		c.Grow = 0
		return
	case "font-bold", "font-semibold", "font-extrabold", "font-black":
		c.Bold = true
		return
	case "font-normal", "font-medium", "font-light", "font-thin":
		c.Bold = false
		return
	case "text-left", "text-center", "text-right":
		c.TextAlign = strings.TrimPrefix(u, "text-")
		return
	case "uppercase":
		c.Uppercase = true
		return
	case "normal-case":
		c.Uppercase = false
		return
	case "border":
		c.Border = uniform(scale)
		return
	case "border-t":
		c.Border.Top = scale
		return
	case "border-r":
		c.Border.Right = scale
		return
	case "border-b":
		c.Border.Bottom = scale
		return
	case "border-l":
		c.Border.Left = scale
		return
	case "bg-transparent":
		c.Background = nil
		return
	}

	if r, ok := radii[u]; ok {
		c.Radius = r * scale
		return
	}

	prefix, value, ok := strings.Cut(u, "-")
	if !ok {
		return
	}

	switch prefix {
	case "items":
		c.Align = cssAlignment(value)
	case "justify":
		c.Justify = cssAlignment(map[string]string{
			"start": "start", "center": "center", "end": "end",
			"between": "space-between", "around": "space-around", "evenly": "space-evenly",
		}[value])
	case "p", "px", "py", "pt", "pr", "pb", "pl":
		if px, ok := style.Spacing(value); ok {
			applySpacing(&c.Padding, prefix[1:], px*scale)
		}
	case "m", "mx", "my", "mt", "mr", "mb", "ml":
		if px, ok := style.Spacing(value); ok {
			applySpacing(&c.Margin, prefix[1:], px*scale)
		}
	case "w":
		if l, ok := sizeUtility(value, scale); ok {
			c.Width = l
		}
	case "h":
		if l, ok := sizeUtility(value, scale); ok {
			c.Height = l
		}
	case "text":
		if size, ok := fontSizes[value]; ok {
			c.FontSize = size * scale
		} else if px, ok := bracketPixels(value); ok {
			c.FontSize = px * scale
		} else if col, ok := colorUtility(value); ok {
			c.Color = col
		}
	case "bg":
		if col, ok := colorUtility(value); ok {
			c.Background = &col
		}
	case "border":
		if n, err := strconv.Atoi(value); err == nil {
			c.Border = uniform(float64(n) * scale)
		} else if px, ok := bracketPixels(value); ok {
			c.Border = uniform(px * scale)
		} else if col, ok := colorUtility(value); ok {
			c.BorderColor = col
		}
	}
}

// applySpacing sets the sides selected by an axis suffix ("", x, y, t, r, b, l).
func applySpacing(e *Edges, axis string, v float64) {
	switch axis {
	case "":
		*e = uniform(v)
	case "x":
		e.Left, e.Right = v, v
	case "y":
		e.Top, e.Bottom = v, v
	case "t":
		e.Top = v
	case "r":
		e.Right = v
	case "b":
		e.Bottom = v
	case "l":
		e.Left = v
	}
}

// sizeUtility reads w-*/h-* values: full, screen, fractions, spacing scale
// and bracketed pixels.
func sizeUtility(value string, scale float64) (Length, bool) {
	switch value {
	case "full", "screen":
		return Length{Value: 100, Percent: true, Set: true}, true
	case "auto":
		return Length{}, true
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return Length{}, false
		}
		return Length{Value: n / d * 100, Percent: true, Set: true}, true
	}
	if px, ok := style.Spacing(value); ok {
		return Length{Value: px * scale, Set: true}, true
	}
	return Length{}, false
}

func bracketPixels(value string) (float64, bool) {
	inner, ok := strings.CutPrefix(value, "[")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok || !strings.HasSuffix(inner, "px") {
		return 0, false
	}
	return style.Pixels(inner)
}

// colorUtility reads black, white, gray-N and [#hex].
func colorUtility(value string) (c color.RGBA, ok bool) {
	switch value {
	case "black":
		return black, true
	case "white":
		return white, true
	}
	if shade, found := strings.CutPrefix(value, "gray-"); found {
		n, err := strconv.Atoi(shade)
		if err != nil || n < 0 || n > 1000 {
			return c, false
		}
		return grayLevel(n), true
	}
	if inner, found := strings.CutPrefix(value, "["); found {
		return parseColor(strings.TrimSuffix(inner, "]"))
	}
	return c, false
}
