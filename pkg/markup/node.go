// Package markup defines the authored UI tree for recipes.
//
// A recipe component produces a tree of [Node] values, either by building
// it directly with [El] and [Txt] or by rendering a template whose output
// is read back with [Parse]. The tree is a closed variant: every Node is
// an *Element, a *Text or a *Fragment.
//
//	root := markup.El("div", "flex flex-col h-full p-4",
//	    markup.El("h1", "text-4xl font-bold", markup.Txt("Hello")),
//	    markup.El("p", "md:hidden", markup.Txt("small screens only")),
//	)
package markup

import (
	"strings"
)

// Node is one of *Element, *Text or *Fragment.
type Node interface {
	markupNode()
}

// Element is a tagged node carrying utility classes and inline style.
type Element struct {
	Tag      string
	Classes  []string
	Style    string            // raw inline style declarations
	Attrs    map[string]string // remaining attributes (id, title, ...)
	Children []Node
}

// Text is a run of character data.
type Text struct {
	Value string
}

// Fragment groups siblings without a wrapping element.
type Fragment struct {
	Children []Node
}

func (*Element) markupNode()  {}
func (*Text) markupNode()     {}
func (*Fragment) markupNode() {}

// El builds an element from a tag, a space-separated class list and children.
func El(tag, classes string, children ...Node) *Element {
	return &Element{
		Tag:      strings.ToLower(tag),
		Classes:  strings.Fields(classes),
		Children: children,
	}
}

// Txt builds a text node.
func Txt(s string) *Text {
	return &Text{Value: s}
}

// Frag builds a fragment.
func Frag(children ...Node) *Fragment {
	return &Fragment{Children: children}
}

// WithStyle sets the inline style and returns e for chaining.
func (e *Element) WithStyle(style string) *Element {
	e.Style = style
	return e
}

// WithAttr sets an attribute and returns e for chaining.
func (e *Element) WithAttr(key, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[key] = value
	return e
}

// TextContent concatenates all text below n, separated by single spaces.
func TextContent(n Node) string {
	var parts []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Text:
			if s := strings.TrimSpace(v.Value); s != "" {
				parts = append(parts, s)
			}
		case *Element:
			for _, c := range v.Children {
				walk(c)
			}
		case *Fragment:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
