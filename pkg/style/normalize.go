package style

import (
	"strings"

	"github.com/usetrmnl/inkpipe/pkg/markup"
)

// resetTags receive zeroed box declarations before anything else applies.
var resetTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "div": true, "section": true, "header": true, "footer": true,
	"main": true, "article": true, "span": true, "ul": true, "ol": true, "li": true,
}

var resetDeclarations = []Declaration{
	{"margin", "0"},
	{"padding", "0"},
	{"border-width", "0"},
}

// Normalize rewrites n for a viewport of the given width. The input tree is
// not modified. It returns nil when the root itself is hidden.
func Normalize(n markup.Node, viewportWidth int) Node {
	switch v := n.(type) {
	case *markup.Text:
		return &Text{Value: v.Value}
	case *markup.Fragment:
		return &Fragment{Children: normalizeChildren(v.Children, viewportWidth)}
	case *markup.Element:
		return normalizeElement(v, viewportWidth)
	default:
		return nil
	}
}

func normalizeChildren(children []markup.Node, viewportWidth int) []Node {
	out := make([]Node, 0, len(children))
	for _, c := range children {
		if nc := Normalize(c, viewportWidth); nc != nil {
			out = append(out, nc)
		}
	}
	return out
}

func normalizeElement(el *markup.Element, viewportWidth int) Node {
	utilities := make([]string, 0, len(el.Classes))
	for _, token := range el.Classes {
		if u, keep := resolveVariant(token, viewportWidth); keep {
			utilities = append(utilities, u)
		}
	}

	inline := ParseDeclarations(el.Style)
	if hidden(utilities, inline) {
		return nil
	}

	out := &Element{Tag: el.Tag}
	if len(el.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(el.Attrs))
		for k, v := range el.Attrs {
			out.Attrs[k] = v
		}
	}
	if resetTags[el.Tag] {
		out.Base = append(out.Base, resetDeclarations...)
	}

	container := isGapContainer(utilities, inline)
	var gap gapValues
	for _, u := range utilities {
		if container && gap.consume(u) {
			continue
		}
		if p, ok := LookupPattern(u); ok {
			out.Style = append(out.Style, Declaration{FillPatternProperty, p.String()})
			continue
		}
		out.Classes = append(out.Classes, u)
	}
	out.Style = append(out.Style, gap.declarations()...)
	out.Style = append(out.Style, inline...)

	out.Children = normalizeChildren(el.Children, viewportWidth)
	return out
}

// hidden reports whether a surviving directive removes the node. The
// engine has no invisible-but-laid-out boxes, so the subtree is pruned.
func hidden(utilities []string, inline []Declaration) bool {
	for _, u := range utilities {
		if u == "hidden" {
			return true
		}
	}
	for _, d := range inline {
		if d.Property == "display" && strings.EqualFold(d.Value, "none") {
			return true
		}
	}
	return false
}

// isGapContainer reports whether the node lays out children with gaps.
func isGapContainer(utilities []string, inline []Declaration) bool {
	for _, u := range utilities {
		switch u {
		case "flex", "inline-flex", "grid", "inline-grid":
			return true
		}
	}
	for _, d := range inline {
		if d.Property == "display" {
			switch d.Value {
			case "flex", "inline-flex", "grid", "inline-grid":
				return true
			}
		}
	}
	return false
}

type gapValues struct {
	all, x, y          float64
	hasAll, hasX, hasY bool
}

// consume records a gap utility and reports whether u was one.
func (g *gapValues) consume(u string) bool {
	switch {
	case strings.HasPrefix(u, "gap-x-"):
		v, ok := Spacing(strings.TrimPrefix(u, "gap-x-"))
		if ok {
			g.x, g.hasX = v, true
		}
		return ok
	case strings.HasPrefix(u, "gap-y-"):
		v, ok := Spacing(strings.TrimPrefix(u, "gap-y-"))
		if ok {
			g.y, g.hasY = v, true
		}
		return ok
	case strings.HasPrefix(u, "gap-"):
		v, ok := Spacing(strings.TrimPrefix(u, "gap-"))
		if ok {
			g.all, g.hasAll = v, true
		}
		return ok
	}
	return false
}

// declarations emits explicit row/column gaps; axis values override the
// shared one independently.
func (g gapValues) declarations() []Declaration {
	row, rowSet := g.all, g.hasAll
	col, colSet := g.all, g.hasAll
	if g.hasY {
		row, rowSet = g.y, true
	}
	if g.hasX {
		col, colSet = g.x, true
	}
	var out []Declaration
	if rowSet {
		out = append(out, Declaration{"row-gap", FormatPx(row)})
	}
	if colSet {
		out = append(out, Declaration{"column-gap", FormatPx(col)})
	}
	return out
}
