package recipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/markup"
)

func TestPropsMergeCopies(t *testing.T) {
	base := Props{"a": 1, "b": 2}
	got := base.Merge(Props{"b": 3, "c": 4})
	if diff := cmp.Diff(Props{"a": 1, "b": 3, "c": 4}, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
	if base["b"] != 2 || len(base) != 2 {
		t.Errorf("base mutated: %v", base)
	}
}

func TestInputWithPropsCopies(t *testing.T) {
	in := Input{Slug: "s", Props: Props{"a": 1}, Width: 800, Height: 480}
	out := in.WithProps(Props{"a": 2})
	if in.Props["a"] != 1 {
		t.Errorf("original props mutated: %v", in.Props)
	}
	if out.Props["a"] != 2 || out.Width != 800 {
		t.Errorf("WithProps = %+v", out)
	}

	sized := in.WithSize(400, 240)
	sized.Props["a"] = 3
	if in.Props["a"] != 1 || sized.Width != 400 || sized.Height != 240 {
		t.Errorf("WithSize shared props or lost size: %+v / %+v", in, sized)
	}
}

func TestTemplateComponent(t *testing.T) {
	c, err := NewTemplateComponent("greet", `<p class="text-xl">Hi {{ name }} at {{ width }}x{{ height }}</p>`)
	if err != nil {
		t.Fatalf("NewTemplateComponent: %v", err)
	}
	node, err := c.Build(Input{Slug: "greet", Props: Props{"name": "<b>Ada</b>"}, Width: 800, Height: 480})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got, want := markup.TextContent(node), "Hi <b>Ada</b> at 800x480"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestTemplateComponentCompileError(t *testing.T) {
	_, err := NewTemplateComponent("bad", `{% if %}`)
	if !errors.Is(err, errors.ErrCodeComponentLoadFailure) {
		t.Errorf("err = %v, want COMPONENT_LOAD_FAILURE", err)
	}
}

func TestBuiltins(t *testing.T) {
	reg := NewRegistry()
	fixed := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	if err := RegisterBuiltins(reg, func() time.Time { return fixed }); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	r := NewResolver(reg)
	ctx := context.Background()

	hello := r.BuildRenderElement(ctx, "hello", nil, nil)
	node, err := hello.Component.Build(hello.Input.WithSize(800, 480))
	if err != nil {
		t.Fatalf("hello Build: %v", err)
	}
	if text := markup.TextContent(node); !strings.Contains(text, "Hello, World!") {
		t.Errorf("hello text = %q", text)
	}

	clock := r.BuildRenderElement(ctx, "clock", nil, nil)
	if clock.Input.Props["time"] != "09:26" {
		t.Errorf("clock time = %v, want 09:26", clock.Input.Props["time"])
	}
	if !clock.Config.Render.DoubleForSharperText {
		t.Error("clock should render doubled")
	}
}

func writeRecipe(t *testing.T, dir, slug, def, tpl string) {
	t.Helper()
	rd := filepath.Join(dir, slug)
	if err := os.MkdirAll(rd, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rd, DefinitionFile), []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}
	if tpl != "" {
		if err := os.WriteFile(filepath.Join(rd, DefaultTemplate), []byte(tpl), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "weather", `
title = "Weather"
published = true

[props]
city = "Berlin"

[render]
double_for_sharper_text = true
`, `<h1>{{ city }}</h1>`)
	writeRecipe(t, dir, "broken", `published = true`, `{% for %}`)
	writeRecipe(t, dir, "Bad Slug", `published = true`, `<p>x</p>`)
	writeRecipe(t, dir, "garbled", `published = = true`, ``)

	reg := NewRegistry()
	n, err := LoadCatalog(dir, reg, nil)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded = %d, want 2", n)
	}

	def, ok := reg.Definition("weather")
	if !ok {
		t.Fatal("weather not registered")
	}
	want := Definition{
		Slug:      "weather",
		Title:     "Weather",
		Published: true,
		Props:     Props{"city": "Berlin"},
		Render:    RenderSettings{DoubleForSharperText: true},
		Template:  DefaultTemplate,
	}
	if diff := cmp.Diff(want, def); diff != "" {
		t.Errorf("definition mismatch (-want +got):\n%s", diff)
	}

	r := NewResolver(reg)
	el := r.BuildRenderElement(context.Background(), "weather", nil, nil)
	node, err := el.Component.Build(el.Input)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := markup.TextContent(node); got != "Berlin" {
		t.Errorf("text = %q, want Berlin", got)
	}

	if el := r.BuildRenderElement(context.Background(), "broken", nil, nil); !el.Fallback {
		t.Error("broken template should fall back")
	}
}

func TestLoadCatalogMissingDir(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope"), NewRegistry(), nil)
	if err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestLoadCatalogDataSources(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "remote", `
published = true
has_data_fetch = true
[data]
kind = "http"
url = "http://127.0.0.1:1/data"
timeout = "2s"
`, `<p>x</p>`)
	writeRecipe(t, dir, "module", `
published = true
has_data_fetch = true
[data]
kind = "wasm"
module = "../../escape.wasm"
`, `<p>x</p>`)

	reg := NewRegistry()
	if _, err := LoadCatalog(dir, reg, nil); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	src, ok := reg.Source("remote")
	if hs, isHTTP := src.(*HTTPSource); !ok || !isHTTP || hs.URL != "http://127.0.0.1:1/data" {
		t.Errorf("remote source = %#v", src)
	}
	src, ok = reg.Source("module")
	ws, isWasm := src.(*WasmSource)
	if !ok || !isWasm {
		t.Fatalf("module source = %#v", src)
	}
	if want := filepath.Join(dir, "module", "escape.wasm"); ws.Path != want {
		t.Errorf("wasm path = %q, want %q", ws.Path, want)
	}
}
