// Package style rewrites an authored markup tree into a normalized tree
// the rendering engine can consume without knowing the viewport.
//
// Normalization resolves responsive variants against a fixed viewport
// width, prunes hidden subtrees, expands gap shorthands on flex and grid
// containers, replaces fill-pattern utilities with literal pattern
// declarations and prepends reset declarations to block-level tags.
//
// The engine applies an element's instructions in order: Base, then the
// remaining utility Classes, then Style.
package style

import (
	"strings"
)

// Node is one of *Element, *Text or *Fragment.
type Node interface {
	styleNode()
}

// Declaration is a single property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Element carries resolved paint and box instructions.
type Element struct {
	Tag      string
	Base     []Declaration // reset declarations, lowest precedence
	Classes  []string      // utilities the engine interprets natively
	Style    []Declaration // expanded utilities and inline style, highest precedence
	Attrs    map[string]string
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

func (*Element) styleNode()  {}
func (*Text) styleNode()     {}
func (*Fragment) styleNode() {}

// Lookup returns the last value declared for property across Base and
// Style, with Style taking precedence.
func (e *Element) Lookup(property string) (string, bool) {
	for i := len(e.Style) - 1; i >= 0; i-- {
		if e.Style[i].Property == property {
			return e.Style[i].Value, true
		}
	}
	for i := len(e.Base) - 1; i >= 0; i-- {
		if e.Base[i].Property == property {
			return e.Base[i].Value, true
		}
	}
	return "", false
}

// HasClass reports whether the utility survived normalization.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// ParseDeclarations splits an inline style string into declarations.
// Malformed entries are skipped.
func ParseDeclarations(s string) []Declaration {
	var out []Declaration
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: val})
	}
	return out
}
