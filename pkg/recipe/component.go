package recipe

import (
	"github.com/flosch/pongo2/v6"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/markup"
)

// Component builds the markup tree for one render.
type Component interface {
	Build(in Input) (markup.Node, error)
}

// ComponentFunc adapts a Go function to Component.
type ComponentFunc func(in Input) (markup.Node, error)

// Build calls f.
func (f ComponentFunc) Build(in Input) (markup.Node, error) { return f(in) }

// Loader produces a recipe's component on first use.
type Loader func() (Component, error)

// Static wraps an already constructed component as a Loader.
func Static(c Component) Loader {
	return func() (Component, error) { return c, nil }
}

// TemplateComponent renders a pongo2 template and parses the result as markup.
//
// The template sees every prop at top level, plus "props", "width",
// "height" and "slug".
type TemplateComponent struct {
	name string
	tpl  *pongo2.Template
}

// NewTemplateComponent compiles src. name is used in error messages.
func NewTemplateComponent(name, src string) (*TemplateComponent, error) {
	tpl, err := pongo2.FromString(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeComponentLoadFailure, err, "compile template %s", name)
	}
	return &TemplateComponent{name: name, tpl: tpl}, nil
}

// Build executes the template against in.
func (c *TemplateComponent) Build(in Input) (markup.Node, error) {
	ctx := make(pongo2.Context, len(in.Props)+4)
	for k, v := range in.Props {
		ctx[k] = v
	}
	ctx["props"] = map[string]any(in.Props)
	ctx["width"] = in.Width
	ctx["height"] = in.Height
	ctx["slug"] = in.Slug

	out, err := c.tpl.Execute(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngineFailure, err, "execute template %s", c.name)
	}
	frag, err := markup.Parse(out)
	if err != nil {
		return nil, err
	}
	return frag, nil
}

var (
	_ Component = ComponentFunc(nil)
	_ Component = (*TemplateComponent)(nil)
)
