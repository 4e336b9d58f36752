package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usetrmnl/inkpipe/pkg/cache"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/raster"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"name=Ada", "title=a=b", " zone =UTC"})
	if err != nil {
		t.Fatalf("parseParams() error: %v", err)
	}
	want := recipe.Props{"name": "Ada", "title": "a=b", "zone": "UTC"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseParams() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseParams([]string{bad}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parseParams(%q) error = %v, want INVALID_INPUT", bad, err)
		}
	}
}

func TestSplitFormats(t *testing.T) {
	tests := []struct {
		in      []string
		want    []render.Format
		wantBMP bool
		wantErr bool
	}{
		{[]string{"png"}, []render.Format{render.FormatPNG}, false, false},
		{[]string{"PNG", " svg", "bmp"}, []render.Format{render.FormatPNG, render.FormatSVG}, true, false},
		{[]string{"bmp"}, nil, true, false},
		{[]string{"raster"}, nil, false, true},
		{[]string{"gif"}, nil, false, true},
		{nil, nil, false, true},
	}
	for _, tt := range tests {
		got, bmp, err := splitFormats(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitFormats(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" || bmp != tt.wantBMP {
			t.Errorf("splitFormats(%v) = %v, %v, want %v, %v", tt.in, got, bmp, tt.want, tt.wantBMP)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		base, format string
		multi        bool
		want         string
	}{
		{"hello", "png", false, "hello.png"},
		{"out/hello.png", "png", false, "out/hello.png"},
		{"out/hello.png", "svg", true, "out/hello.svg"},
		{"clock", "bmp", true, "clock.bmp"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.base, tt.format, tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.base, tt.format, tt.multi, got, tt.want)
		}
	}
}

func TestParseSlots(t *testing.T) {
	got, err := parseSlots([]string{"left=clock", "right = hello", "left=hello", "right-top="})
	if err != nil {
		t.Fatalf("parseSlots() error: %v", err)
	}
	want := mixup.Assignment{"left": "hello", "right": "hello", "right-top": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseSlots() mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseSlots([]string{"clock"}); err == nil {
		t.Error("parseSlots without '=' should fail")
	}
}

func TestSortedSlots(t *testing.T) {
	m := mixup.Mixup{
		LayoutID:    mixup.Quarters,
		Assignments: mixup.Assignment{"bottom-right": "a", "top-left": "b", "top-right": "c"},
	}
	want := []string{"top-left", "top-right", "bottom-right"}
	if diff := cmp.Diff(want, sortedSlots(m)); diff != "" {
		t.Errorf("sortedSlots() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecipeRows(t *testing.T) {
	rows := recipeRows([]recipe.Definition{
		{Slug: "clock", Title: "Clock", Published: true, HasDataFetch: true, Data: recipe.DataSpec{Kind: "wasm"}},
		{Slug: "hello", Title: "Hello", Published: true},
	})
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0][3] != "wasm" || rows[1][3] != "-" {
		t.Errorf("data column = %q, %q, want wasm, -", rows[0][3], rows[1][3])
	}
}

// =============================================================================
// Commands
// =============================================================================

// testEnv writes a config using file-backed cache and store under a temp dir.
func testEnv(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = writeConfig(t, dir, `[display]
width = 160
height = 96
grayscale = 2

[cache]
backend = "file"
dir = "`+filepath.ToSlash(filepath.Join(dir, "cache"))+`"

[store]
backend = "file"
path = "`+filepath.ToSlash(filepath.Join(dir, "mixups"))+`"
`)
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// bmpSize reads width, height and bit depth from a BMP header.
func bmpSize(t *testing.T, path string) (w, h, bpp int) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 30 || string(data[:2]) != "BM" {
		t.Fatalf("%s is not a BMP", path)
	}
	w = int(int32(binary.LittleEndian.Uint32(data[18:])))
	h = int(int32(binary.LittleEndian.Uint32(data[22:])))
	if h < 0 {
		h = -h
	}
	return w, h, int(binary.LittleEndian.Uint16(data[28:]))
}

func TestRenderCommand(t *testing.T) {
	dir, cfgPath := testEnv(t)
	base := filepath.Join(dir, "out", "hello")

	if err := execute(t, "render", "hello", "--config", cfgPath, "-f", "png,svg,bmp", "-o", base, "-p", "name=Ada"); err != nil {
		t.Fatalf("render: %v", err)
	}

	png, err := os.ReadFile(base + ".png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raster.DecodePNG(png); err != nil {
		t.Errorf("hello.png does not decode: %v", err)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("hello.svg is not an SVG document")
	}
	if w, h, bpp := bmpSize(t, base+".bmp"); w != 160 || h != 96 || bpp != 1 {
		t.Errorf("hello.bmp = %dx%d@%d, want 160x96@1", w, h, bpp)
	}
}

func TestRenderCommandUnknownRecipe(t *testing.T) {
	dir, cfgPath := testEnv(t)
	out := filepath.Join(dir, "missing.bmp")

	if err := execute(t, "render", "missing", "--config", cfgPath, "-f", "bmp", "-o", out, "--levels", "4"); err != nil {
		t.Fatalf("render of unknown recipe should fall back, got %v", err)
	}
	if w, h, bpp := bmpSize(t, out); w != 160 || h != 96 || bpp != 2 {
		t.Errorf("missing.bmp = %dx%d@%d, want 160x96@2", w, h, bpp)
	}
}

func TestRenderCommandBadInput(t *testing.T) {
	_, cfgPath := testEnv(t)

	tests := [][]string{
		{"render", "hello", "--config", cfgPath, "-f", "gif"},
		{"render", "hello", "--config", cfgPath, "-p", "oops"},
		{"render", "hello", "--config", cfgPath, "--width=-1", "--height=10"},
		{"render", "hello", "--config", cfgPath, "-f", "bmp", "--levels", "1"},
	}
	for _, args := range tests {
		if err := execute(t, args...); err == nil {
			t.Errorf("execute(%v) succeeded, want error", args)
		}
	}
}

func TestDitherCommand(t *testing.T) {
	dir := t.TempDir()
	data, err := raster.EncodePNG(raster.NewBlank(40, 20, raster.White))
	if err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.png")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "dither", in); err != nil {
		t.Fatalf("dither: %v", err)
	}
	if w, h, _ := bmpSize(t, filepath.Join(dir, "in.bmp")); w != 40 || h != 20 {
		t.Errorf("in.bmp = %dx%d, want 40x20", w, h)
	}

	out := filepath.Join(dir, "small.bmp")
	if err := execute(t, "dither", in, "--width", "10", "--height", "5", "--levels", "16", "-o", out); err != nil {
		t.Fatalf("dither resize: %v", err)
	}
	if w, h, bpp := bmpSize(t, out); w != 10 || h != 5 || bpp != 4 {
		t.Errorf("small.bmp = %dx%d@%d, want 10x5@4", w, h, bpp)
	}

	if err := execute(t, "dither", in, "--levels", "300"); !errors.Is(err, errors.ErrCodeDitherInputInvalid) && !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("dither with 300 levels error = %v, want invalid levels", err)
	}
}

func TestMixupCommands(t *testing.T) {
	dir, cfgPath := testEnv(t)

	if err := execute(t, "mixup", "create", "--config", cfgPath, "--name", "desk", "-l", mixup.LeftRight, "-s", "left=hello", "-s", "right=missing"); err != nil {
		t.Fatalf("mixup create: %v", err)
	}

	fs, err := store.NewFileStore(filepath.Join(dir, "mixups"))
	if err != nil {
		t.Fatal(err)
	}
	ms, err := fs.ListMixups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 1 || ms[0].Name != "desk" || ms[0].LayoutID != mixup.LeftRight {
		t.Fatalf("stored mixups = %+v, want one LEFT_RIGHT named desk", ms)
	}
	id := ms[0].ID

	if err := execute(t, "mixup", "list", "--config", cfgPath); err != nil {
		t.Errorf("mixup list: %v", err)
	}

	out := filepath.Join(dir, "desk.bmp")
	if err := execute(t, "mixup", "render", id, "--config", cfgPath, "-o", out); err != nil {
		t.Fatalf("mixup render: %v", err)
	}
	if w, h, _ := bmpSize(t, out); w != 160 || h != 96 {
		t.Errorf("desk.bmp = %dx%d, want 160x96", w, h)
	}

	if err := execute(t, "mixup", "delete", id, "--config", cfgPath); err != nil {
		t.Fatalf("mixup delete: %v", err)
	}
	if err := execute(t, "mixup", "render", id, "--config", cfgPath); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("render of deleted mixup error = %v, want NOT_FOUND", err)
	}
}

func TestMixupCreateRejectsBadLayout(t *testing.T) {
	_, cfgPath := testEnv(t)

	err := execute(t, "mixup", "create", "--config", cfgPath, "-l", "HEXAGON")
	if !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("error = %v, want INVALID_LAYOUT", err)
	}
	err = execute(t, "mixup", "create", "--config", cfgPath, "-l", mixup.Full, "-s", "left=hello")
	if !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("error = %v, want INVALID_LAYOUT for unknown slot", err)
	}
}

func TestRecipesAndLayoutsCommands(t *testing.T) {
	_, cfgPath := testEnv(t)
	for _, args := range [][]string{
		{"recipes", "--config", cfgPath},
		{"mixup", "layouts"},
		{"completion", "bash"},
	} {
		if err := execute(t, args...); err != nil {
			t.Errorf("execute(%v): %v", args, err)
		}
	}
}

func TestExampleCatalog(t *testing.T) {
	dir := t.TempDir()
	catalog, err := filepath.Abs(filepath.Join("..", "..", "examples", "recipes"))
	if err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, dir, "[recipes]\ndir = \""+filepath.ToSlash(catalog)+"\"\n\n[cache]\nbackend = \"none\"\n")

	c := New(io.Discard, LogInfo)
	c.configPath = cfgPath
	a, err := c.openApp(context.Background())
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	defer a.close()

	var slugs []string
	for _, d := range a.registry.Definitions() {
		slugs = append(slugs, d.Slug)
	}
	want := []string{"agenda", "clock", "hello", "quote", "weather"}
	if diff := cmp.Diff(want, slugs); diff != "" {
		t.Errorf("registered recipes mismatch (-want +got):\n%s", diff)
	}

	out := filepath.Join(dir, "quote.bmp")
	if err := execute(t, "render", "quote", "--config", cfgPath, "-f", "bmp", "-o", out); err != nil {
		t.Fatalf("render quote: %v", err)
	}
	if w, h, _ := bmpSize(t, out); w != 800 || h != 480 {
		t.Errorf("quote.bmp = %dx%d, want 800x480", w, h)
	}
}

func TestOpenAppCachePrefix(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "[cache]\nbackend = \"memory\"\nprefix = \"kitchen:\"\n")

	c := New(io.Discard, LogInfo)
	c.configPath = cfgPath
	a, err := c.openApp(context.Background())
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	defer a.close()

	key := a.runner.Keyer.RenderKey("hello", 800, 480, []string{"png"})
	if !strings.HasPrefix(key, "kitchen:") {
		t.Errorf("RenderKey = %q, want prefix %q", key, "kitchen:")
	}

	ctx := context.Background()
	req := pipeline.Request{Slug: "hello", Width: 80, Height: 48}
	if _, err := a.runner.RenderRecipe(ctx, req); err != nil {
		t.Fatalf("RenderRecipe: %v", err)
	}
	res, err := a.runner.RenderRecipe(ctx, req)
	if err != nil {
		t.Fatalf("RenderRecipe: %v", err)
	}
	if !res.CacheHit {
		t.Error("second render missed the prefixed cache")
	}

	unscoped := cache.NewDefaultKeyer().RenderKey("hello@"+cache.HashParams(nil), 80, 48, []string{"png"})
	if _, ok, _ := a.cache.Get(ctx, unscoped); ok {
		t.Errorf("artifact stored under unprefixed key %q", unscoped)
	}
	if _, ok, _ := a.cache.Get(ctx, "kitchen:"+unscoped); !ok {
		t.Errorf("no artifact under %q", "kitchen:"+unscoped)
	}
}
