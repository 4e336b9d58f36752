package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/cache"
	"github.com/usetrmnl/inkpipe/pkg/config"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

var display = config.DisplayConfig{Width: 160, Height: 96, Grayscale: 2}

func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	reg := recipe.NewRegistry()
	fixed := func() time.Time { return time.Date(2026, 3, 1, 9, 26, 0, 0, time.UTC) }
	if err := recipe.RegisterBuiltins(reg, fixed); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	runner := pipeline.NewRunner(recipe.NewResolver(reg), nil, cache.NewMemoryCache(), nil, nil)
	ts := httptest.NewServer(New(runner, nil, st, display, nil))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

// bmpHeader returns width, height and bits per pixel of a BMP.
func bmpHeader(t *testing.T, data []byte) (int, int, int) {
	t.Helper()
	if len(data) < 54 || string(data[:2]) != "BM" {
		t.Fatalf("not a BMP: % x", data[:min(len(data), 16)])
	}
	le := binary.LittleEndian
	return int(int32(le.Uint32(data[18:]))), int(int32(le.Uint32(data[22:]))), int(le.Uint16(data[28:]))
}

// =============================================================================
// Bitmap endpoint
// =============================================================================

func TestBitmap(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/api/bitmap/hello", "/api/bitmap/hello.bmp", "/api/bitmap/missing.bmp"} {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts.URL+path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "image/bmp" {
				t.Errorf("Content-Type = %q, want image/bmp", ct)
			}
			if cl := resp.Header.Get("Content-Length"); cl != strconv.Itoa(len(body)) {
				t.Errorf("Content-Length = %s, want %d", cl, len(body))
			}
			w, h, bpp := bmpHeader(t, body)
			if w != display.Width || h != display.Height || bpp != 1 {
				t.Errorf("bmp = %dx%d@%d, want %dx%d@1", w, h, bpp, display.Width, display.Height)
			}
		})
	}
}

// =============================================================================
// Mixup endpoint
// =============================================================================

func TestMixup(t *testing.T) {
	st := store.NewMemoryStore()
	ts := newTestServer(t, st)
	m, err := store.NewMixup("desk", mixup.LeftRight, mixup.Assignment{"left": "hello", "right": "clock"})
	if err != nil {
		t.Fatalf("NewMixup: %v", err)
	}
	if err := st.SaveMixup(context.Background(), m); err != nil {
		t.Fatalf("SaveMixup: %v", err)
	}

	tests := []struct {
		query       string
		status      int
		w, h, depth int
	}{
		{"", http.StatusOK, 160, 96, 1},
		{"?width=120&height=60&grayscale=4", http.StatusOK, 120, 60, 2},
		{"?width=abc", http.StatusBadRequest, 0, 0, 0},
		{"?grayscale=1", http.StatusBadRequest, 0, 0, 0},
		{"?height=0", http.StatusBadRequest, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/api/mixup/"+m.ID+tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if tt.status != http.StatusOK {
				return
			}
			w, h, bpp := bmpHeader(t, body)
			if w != tt.w || h != tt.h || bpp != tt.depth {
				t.Errorf("bmp = %dx%d@%d, want %dx%d@%d", w, h, bpp, tt.w, tt.h, tt.depth)
			}
		})
	}
}

type stubStore struct {
	store.MemoryStore
	m   mixup.Mixup
	err error
}

func (s *stubStore) GetMixup(context.Context, string) (mixup.Mixup, error) { return s.m, s.err }

func TestMixupErrors(t *testing.T) {
	tests := []struct {
		name   string
		st     store.Store
		status int
	}{
		{"unknown id", store.NewMemoryStore(), http.StatusNotFound},
		{"invalid layout", &stubStore{m: mixup.Mixup{ID: "x", LayoutID: "DIAGONAL"}}, http.StatusBadRequest},
		{"unavailable", &stubStore{err: errors.Wrap(errors.ErrCodePersistenceUnavailable, store.ErrUnavailable, "down")}, http.StatusServiceUnavailable},
		{"unexpected", &stubStore{err: io.ErrUnexpectedEOF}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.st)
			resp, body := get(t, ts.URL+"/api/mixup/x")
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestCreateAndListMixups(t *testing.T) {
	ts := newTestServer(t, nil)

	body := `{"name":"hall","layout_id":"FULL","assignments":{"full":"hello"}}`
	resp, err := http.Post(ts.URL+"/api/mixups", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var created mixup.Mixup
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.LayoutID != mixup.Full {
		t.Errorf("created = %+v", created)
	}

	r, listBody := get(t, ts.URL+"/api/mixups")
	if r.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", r.StatusCode)
	}
	var list []mixup.Mixup
	if err := json.Unmarshal(listBody, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %v, want [%s]", list, created.ID)
	}

	r, _ = get(t, ts.URL+"/api/mixup/"+created.ID)
	if r.StatusCode != http.StatusOK {
		t.Errorf("GET created mixup status = %d, want 200", r.StatusCode)
	}

	bad, err := http.Post(ts.URL+"/api/mixups", "application/json", strings.NewReader(`{"layout_id":"NOPE"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid layout status = %d, want 400", bad.StatusCode)
	}
}

// =============================================================================
// Catalog and previews
// =============================================================================

func TestRecipesAndLayouts(t *testing.T) {
	ts := newTestServer(t, nil)

	_, body := get(t, ts.URL+"/api/recipes")
	var recipes []recipeInfo
	if err := json.Unmarshal(body, &recipes); err != nil {
		t.Fatalf("decode recipes: %v", err)
	}
	slugs := make([]string, len(recipes))
	for i, r := range recipes {
		slugs[i] = r.Slug
	}
	if strings.Join(slugs, ",") != "clock,hello" {
		t.Errorf("recipes = %v, want [clock hello]", slugs)
	}

	_, body = get(t, ts.URL+"/api/layouts")
	var layouts []mixup.Layout
	if err := json.Unmarshal(body, &layouts); err != nil {
		t.Fatalf("decode layouts: %v", err)
	}
	if len(layouts) != 6 {
		t.Errorf("len(layouts) = %d, want 6", len(layouts))
	}
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/api/recipes/hello.png?width=200&height=100&name=Ada")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("png status = %d: %s", resp.StatusCode, body)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("png = %v, want 200x100", b)
	}

	resp, _ = get(t, ts.URL+"/api/recipes/hello.png?width=200&height=100&name=Ada")
	if resp.Header.Get("X-Cache") != "hit" {
		t.Error("second preview missed the cache")
	}

	resp, body = get(t, ts.URL+"/api/recipes/hello.svg?width=800&height=480")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("svg status = %d type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !bytes.Contains(body, []byte("Hello, World!")) {
		t.Errorf("svg missing greeting: %.200s", body)
	}

	for _, path := range []string{"/api/recipes/hello.gif", "/api/recipes/hello", "/api/recipes/.png"} {
		if resp, _ := get(t, ts.URL+path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
	if resp, _ := get(t, ts.URL+"/api/recipes/hello.png?width=-5"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative width status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/bitmap/x?width=1&tz=Europe/Oslo&refresh=1", nil)
	p := params(r)
	if len(p) != 1 || p["tz"] != "Europe/Oslo" {
		t.Errorf("params = %v, want map[tz:Europe/Oslo]", p)
	}
}
