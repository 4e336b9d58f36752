package markup

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// layoutElements are the tags a recipe template may emit.
var layoutElements = []string{
	"div", "span", "p", "section", "header", "footer", "main", "article", "aside", "nav",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "b", "strong", "em", "i", "small", "br",
}

// styleProperties are the inline properties the engine understands.
var styleProperties = []string{
	"margin", "margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding", "padding-top", "padding-right", "padding-bottom", "padding-left",
	"border-width", "border-color", "border-radius",
	"width", "height", "display", "flex-direction", "flex-grow",
	"justify-content", "align-items", "gap", "row-gap", "column-gap",
	"color", "background-color", "font-size", "font-weight", "text-align", "text-transform",
}

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.StrictPolicy()
		p.AllowElements(layoutElements...)
		p.AllowAttrs("class", "id", "title").Globally()
		p.AllowStyles(styleProperties...).Globally()
		policy = p
	})
	return policy
}

// Sanitize strips everything but layout elements, classes and the inline
// style properties the engine supports. Scripts, images and event handlers
// never reach the renderer.
func Sanitize(src string) string {
	return strings.TrimSpace(sanitizer().Sanitize(src))
}

// Parse sanitizes src and converts it into a Fragment of top-level nodes.
// Whitespace-only text is dropped and remaining text is whitespace-collapsed.
func Parse(src string) (*Fragment, error) {
	context := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(Sanitize(src)), context)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeComponentLoadFailure, err, "parse markup")
	}

	frag := &Fragment{}
	for _, n := range nodes {
		if c := convert(n); c != nil {
			frag.Children = append(frag.Children, c)
		}
	}
	return frag, nil
}

func convert(n *html.Node) Node {
	switch n.Type {
	case html.TextNode:
		s := strings.Join(strings.Fields(n.Data), " ")
		if s == "" {
			return nil
		}
		return &Text{Value: s}
	case html.ElementNode:
		el := &Element{Tag: n.Data}
		for _, a := range n.Attr {
			switch a.Key {
			case "class":
				el.Classes = strings.Fields(a.Val)
			case "style":
				el.Style = a.Val
			default:
				if el.Attrs == nil {
					el.Attrs = make(map[string]string)
				}
				el.Attrs[a.Key] = a.Val
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				el.Children = append(el.Children, child)
			}
		}
		return el
	default:
		return nil
	}
}
