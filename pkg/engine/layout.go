package engine

import (
	"math"
	"strings"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/style"
)

// Box is a laid-out element. Coordinates are absolute device pixels of the
// border box once Layout returns.
type Box struct {
	Tag        string
	X, Y, W, H float64
	Style      Computed
	Lines      []Line
	Children   []*Box

	// Scale is the device pixel ratio, set on the root box.
	Scale float64

	text string
}

// Line is one wrapped line of text. Y is the baseline.
type Line struct {
	Text string
	X, Y float64
	W    float64
}

// inlineTags flow as text inside a block.
var inlineTags = map[string]bool{
	"span": true, "b": true, "strong": true, "em": true, "i": true,
	"small": true, "br": true, "a": true, "u": true, "code": true,
}

// Layout builds and positions the box tree for a normalized tree. A nil
// tree lays out an empty white viewport.
func Layout(n style.Node, opts Options) (*Box, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := loadFonts(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngineFailure, err, "load fonts")
	}

	scale := opts.scale()
	root := &Box{Tag: "root", Style: rootStyle(scale), Scale: scale}
	if n != nil {
		root.Children = build(n, root.Style, scale)
	}

	w := float64(opts.PixelWidth())
	h := float64(opts.PixelHeight())
	place(root, w, h)
	absolutize(root, 0, 0)
	return root, nil
}

// =============================================================================
// Box tree
// =============================================================================

func build(n style.Node, parent Computed, scale float64) []*Box {
	switch n := n.(type) {
	case *style.Fragment:
		var out []*Box
		for _, c := range n.Children {
			out = append(out, build(c, parent, scale)...)
		}
		return out
	case *style.Text:
		if strings.TrimSpace(n.Value) == "" {
			return nil
		}
		return []*Box{textBox(n.Value, inherit(parent))}
	case *style.Element:
		return []*Box{buildElement(n, parent, scale)}
	}
	return nil
}

func buildElement(el *style.Element, parent Computed, scale float64) *Box {
	b := &Box{Tag: el.Tag, Style: compute(el, parent, scale)}

	if el.Tag == "br" {
		b.text = "\n"
		return b
	}

	children := flatten(el.Children)
	if b.Style.Display == "block" && inlineOnly(children) {
		if len(children) == 1 {
			if inner, ok := children[0].(*style.Element); ok {
				b.Children = []*Box{buildElement(inner, b.Style, scale)}
				return b
			}
		}
		b.text = collectText(children)
		if b.Style.Uppercase {
			b.text = strings.ToUpper(b.text)
		}
		return b
	}

	for _, c := range children {
		b.Children = append(b.Children, build(c, b.Style, scale)...)
	}
	return b
}

func textBox(s string, c Computed) *Box {
	s = strings.TrimSpace(s)
	if c.Uppercase {
		s = strings.ToUpper(s)
	}
	return &Box{Tag: "#text", Style: c, text: s}
}

// flatten splices fragment children into their parent.
func flatten(nodes []style.Node) []style.Node {
	out := make([]style.Node, 0, len(nodes))
	for _, n := range nodes {
		if f, ok := n.(*style.Fragment); ok {
			out = append(out, flatten(f.Children)...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func inlineOnly(nodes []style.Node) bool {
	for _, n := range nodes {
		switch n := n.(type) {
		case *style.Text:
		case *style.Element:
			if !inlineTags[n.Tag] || !inlineOnly(flatten(n.Children)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// collectText joins inline runs with single spaces; markup text arrives
// trimmed, and wrapping collapses any doubled spaces.
func collectText(nodes []style.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case *style.Text:
			sb.WriteString(n.Value)
			sb.WriteByte(' ')
		case *style.Element:
			if n.Tag == "br" {
				sb.WriteByte('\n')
				continue
			}
			sb.WriteString(collectText(flatten(n.Children)))
		}
	}
	return strings.TrimSpace(sb.String())
}

// =============================================================================
// Placement
// =============================================================================

// place sizes b to width w and, when h >= 0, height h, and positions its
// children relative to b's border box.
func place(b *Box, w, h float64) {
	s := b.Style
	b.W = w
	innerW := math.Max(0, w-s.Padding.Horizontal()-s.Border.Horizontal())
	innerH := -1.0
	if h >= 0 {
		innerH = math.Max(0, h-s.Padding.Vertical()-s.Border.Vertical())
	}

	var contentH float64
	switch {
	case b.text != "" || len(b.Children) == 0:
		contentH = b.layoutText(innerW)
	case s.Display == "flex" && s.Direction == "column":
		contentH = b.layoutColumn(innerW, innerH)
	case s.Display == "flex":
		contentH = b.layoutRow(innerW, innerH)
	default:
		contentH = b.layoutBlock(innerW, innerH)
	}

	if h >= 0 {
		b.H = h
	} else {
		b.H = contentH + s.Padding.Vertical() + s.Border.Vertical()
	}
}

func (b *Box) contentOrigin() (float64, float64) {
	s := b.Style
	return s.Border.Left + s.Padding.Left, s.Border.Top + s.Padding.Top
}

func (b *Box) layoutText(innerW float64) float64 {
	b.Lines = nil
	if b.text == "" {
		return 0
	}
	f := face(b.Style.FontSize, b.Style.Bold)
	m := f.Metrics()
	lh := m.LineHeight()
	ox, oy := b.contentOrigin()

	for i, line := range wrap(b.text, f.Advance, innerW) {
		lw := f.Advance(line)
		x := ox
		switch b.Style.TextAlign {
		case "center":
			x += (innerW - lw) / 2
		case "right":
			x += innerW - lw
		}
		b.Lines = append(b.Lines, Line{
			Text: line,
			X:    x,
			Y:    oy + float64(i)*lh + m.Ascent,
			W:    lw,
		})
	}
	return float64(len(b.Lines)) * lh
}

// wrap breaks text greedily at spaces. Newlines force a break; a word
// wider than the line overflows on its own line.
func wrap(s string, advance func(string) float64, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if advance(next) <= width {
				cur = next
				continue
			}
			lines = append(lines, cur)
			cur = w
		}
		lines = append(lines, cur)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (b *Box) layoutBlock(innerW, innerH float64) float64 {
	ox, y := b.contentOrigin()
	top := y
	for _, c := range b.Children {
		cs := c.Style
		cw, ok := cs.Width.resolve(innerW)
		if !ok {
			cw = math.Max(0, innerW-cs.Margin.Horizontal())
		}
		ch, ok := cs.Height.resolve(innerH)
		if !ok {
			ch = -1
		}
		place(c, cw, ch)
		c.X = ox + cs.Margin.Left
		c.Y = y + cs.Margin.Top
		y += cs.Margin.Vertical() + c.H
	}
	return y - top
}

func (b *Box) layoutRow(innerW, innerH float64) float64 {
	s := b.Style
	n := len(b.Children)
	basis := make([]float64, n)
	fixed := make([]bool, n)
	var used, totalGrow, flexible float64
	for i, c := range b.Children {
		cs := c.Style
		if w, ok := cs.Width.resolve(innerW); ok {
			basis[i], fixed[i] = w, true
		} else if cs.Grow > 0 {
			basis[i] = 0
		} else {
			basis[i] = intrinsicWidth(c)
		}
		if !fixed[i] {
			flexible += basis[i]
		}
		used += basis[i] + cs.Margin.Horizontal()
		totalGrow += cs.Grow
	}
	gaps := s.ColumnGap * float64(max(n-1, 0))
	free := innerW - used - gaps

	switch {
	case free > 0 && totalGrow > 0:
		for i, c := range b.Children {
			basis[i] += free * c.Style.Grow / totalGrow
		}
		free = 0
	case free < 0 && flexible > 0:
		shrink := math.Min(-free, flexible)
		for i := range b.Children {
			if !fixed[i] {
				basis[i] -= shrink * basis[i] / flexible
			}
		}
		free += shrink
	}

	crossH := innerH
	itemHeight := func(c *Box, lineH float64) float64 {
		if h, ok := c.Style.Height.resolve(innerH); ok {
			return h
		}
		if s.Align == "stretch" && lineH >= 0 {
			return math.Max(0, lineH-c.Style.Margin.Vertical())
		}
		return -1
	}
	for i, c := range b.Children {
		place(c, basis[i], itemHeight(c, innerH))
	}
	if crossH < 0 {
		for _, c := range b.Children {
			crossH = math.Max(crossH, c.H+c.Style.Margin.Vertical())
		}
		crossH = math.Max(crossH, 0)
		if s.Align == "stretch" {
			for i, c := range b.Children {
				if _, ok := c.Style.Height.resolve(-1); !ok {
					place(c, basis[i], itemHeight(c, crossH))
				}
			}
		}
	}

	ox, oy := b.contentOrigin()
	x, step := justify(s.Justify, math.Max(free, 0), n)
	x += ox
	for _, c := range b.Children {
		cs := c.Style
		c.X = x + cs.Margin.Left
		c.Y = oy + crossOffset(s.Align, crossH, c.H, cs.Margin.Top, cs.Margin.Bottom)
		x += c.W + cs.Margin.Horizontal() + s.ColumnGap + step
	}
	return crossH
}

func (b *Box) layoutColumn(innerW, innerH float64) float64 {
	s := b.Style
	n := len(b.Children)
	var used, totalGrow float64
	for _, c := range b.Children {
		cs := c.Style
		cw, ok := cs.Width.resolve(innerW)
		if !ok {
			cw = math.Max(0, innerW-cs.Margin.Horizontal())
			if s.Align != "stretch" {
				cw = math.Min(cw, intrinsicWidth(c))
			}
		}
		ch, ok := cs.Height.resolve(innerH)
		if !ok {
			ch = -1
		}
		place(c, cw, ch)
		used += c.H + cs.Margin.Vertical()
		totalGrow += cs.Grow
	}
	gaps := s.RowGap * float64(max(n-1, 0))

	free := 0.0
	if innerH >= 0 {
		free = innerH - used - gaps
		if free > 0 && totalGrow > 0 {
			for _, c := range b.Children {
				if c.Style.Grow > 0 {
					place(c, c.W, c.H+free*c.Style.Grow/totalGrow)
				}
			}
			free = 0
		}
	}

	ox, oy := b.contentOrigin()
	y, step := justify(s.Justify, math.Max(free, 0), n)
	y += oy
	for _, c := range b.Children {
		cs := c.Style
		c.Y = y + cs.Margin.Top
		c.X = ox + crossOffset(s.Align, innerW, c.W, cs.Margin.Left, cs.Margin.Right)
		y += c.H + cs.Margin.Vertical() + s.RowGap + step
	}
	if innerH >= 0 {
		return innerH
	}
	return used + gaps
}

// justify returns the leading offset and the extra spacing between items
// for distributing free main-axis space.
func justify(mode string, free float64, n int) (lead, step float64) {
	switch mode {
	case "center":
		return free / 2, 0
	case "end":
		return free, 0
	case "between":
		if n > 1 {
			return 0, free / float64(n-1)
		}
	case "around":
		if n > 0 {
			each := free / float64(n)
			return each / 2, each
		}
	}
	return 0, 0
}

// crossOffset positions an item of size size within a line of size line.
func crossOffset(align string, line, size, before, after float64) float64 {
	switch align {
	case "center":
		return before + (line-size-before-after)/2
	case "end":
		return line - size - after
	default:
		return before
	}
}

// intrinsicWidth is the unwrapped max-content width of a box.
func intrinsicWidth(b *Box) float64 {
	s := b.Style
	if w, ok := s.Width.resolve(-1); ok {
		return w
	}
	var content float64
	switch {
	case b.text != "":
		f := face(s.FontSize, s.Bold)
		for _, line := range strings.Split(b.text, "\n") {
			content = math.Max(content, f.Advance(strings.Join(strings.Fields(line), " ")))
		}
	case s.Display == "flex" && s.Direction != "column":
		for _, c := range b.Children {
			content += intrinsicWidth(c) + c.Style.Margin.Horizontal()
		}
		content += s.ColumnGap * float64(max(len(b.Children)-1, 0))
	default:
		for _, c := range b.Children {
			content = math.Max(content, intrinsicWidth(c)+c.Style.Margin.Horizontal())
		}
	}
	return math.Ceil(content) + s.Padding.Horizontal() + s.Border.Horizontal()
}

func absolutize(b *Box, ox, oy float64) {
	b.X += ox
	b.Y += oy
	for i := range b.Lines {
		b.Lines[i].X += b.X
		b.Lines[i].Y += b.Y
	}
	for _, c := range b.Children {
		absolutize(c, b.X, b.Y)
	}
}

// Walk visits b and its descendants in paint order.
func (b *Box) Walk(fn func(*Box)) {
	fn(b)
	for _, c := range b.Children {
		c.Walk(fn)
	}
}
