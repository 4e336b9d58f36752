package recipe

import (
	"context"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/markup"
)

// NotFoundSlug is the slug reported by fallback elements' definitions.
const NotFoundSlug = "not-found"

// NotFound returns the component rendered when slug cannot be resolved.
func NotFound(slug string) Component {
	return ComponentFunc(func(in Input) (markup.Node, error) {
		return markup.El("div", "flex flex-col items-center justify-center h-full w-full p-8 bg-white",
			markup.El("div", "border-2 border-black rounded-lg p-6 flex flex-col items-center",
				markup.El("h1", "text-4xl font-bold mb-4", markup.Txt("Recipe not found")),
				markup.El("p", "text-xl", markup.Txt(slug)),
			),
		), nil
	})
}

// notFoundDefinition describes the fallback pseudo-recipe for slug.
func notFoundDefinition(slug string) Definition {
	return Definition{
		Slug:      NotFoundSlug,
		Title:     "Not found",
		Published: true,
		Props:     Props{"slug": slug},
	}
}

const helloTemplate = `
<div class="flex flex-col h-full w-full">
  <div class="flex-1 flex items-center justify-center">
    <h1 class="text-6xl font-bold">Hello, {{ name }}!</h1>
  </div>
  <div class="flex justify-between border-t-2 border-black px-4 py-2 dither-25">
    <span class="text-lg font-bold uppercase">{{ title }}</span>
    <span class="text-lg">{{ width }}x{{ height }}</span>
  </div>
</div>`

const clockTemplate = `
<div class="flex flex-col items-center justify-center h-full w-full gap-4">
  <div class="text-9xl font-bold lg:text-[160px]">{{ time }}</div>
  <div class="text-3xl uppercase">{{ date }}</div>
  <div class="hidden md:block text-lg text-gray-600">{{ zone }}</div>
</div>`

// RegisterBuiltins adds the recipes compiled into the binary: "hello"
// and "clock". now supplies the clock's time; nil means time.Now.
func RegisterBuiltins(r *Registry, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}

	hello, err := NewTemplateComponent("hello", helloTemplate)
	if err != nil {
		return err
	}
	r.Register(Definition{
		Slug:      "hello",
		Title:     "Hello World",
		Published: true,
		Props:     Props{"name": "World", "title": "inkpipe"},
	}, Static(hello), nil)

	clock, err := NewTemplateComponent("clock", clockTemplate)
	if err != nil {
		return err
	}
	r.Register(Definition{
		Slug:         "clock",
		Title:        "Clock",
		Published:    true,
		HasDataFetch: true,
		Props:        Props{"time": "--:--", "date": "", "zone": "UTC"},
		Render:       RenderSettings{DoubleForSharperText: true},
	}, Static(clock), FuncSource(func(ctx context.Context, params Props) (Props, error) {
		t := now()
		if tz, ok := params["tz"].(string); ok && tz != "" {
			if loc, err := time.LoadLocation(tz); err == nil {
				t = t.In(loc)
			}
		}
		return Props{
			"time": t.Format("15:04"),
			"date": t.Format("Monday, 2 January"),
			"zone": t.Location().String(),
		}, nil
	}))
	return nil
}
