package mixup

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/raster"
)

// =============================================================================
// Layout Geometry
// =============================================================================

func TestQuartersRects(t *testing.T) {
	layout, err := LookupLayout(Quarters)
	if err != nil {
		t.Fatalf("LookupLayout: %v", err)
	}
	want := map[string]image.Rectangle{
		"top-left":     image.Rect(0, 0, 400, 240),
		"top-right":    image.Rect(400, 0, 800, 240),
		"bottom-left":  image.Rect(0, 240, 400, 480),
		"bottom-right": image.Rect(400, 240, 800, 480),
	}
	got := make(map[string]image.Rectangle)
	for _, s := range layout.Slots {
		got[s.ID] = s.Rect(800, 480)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("QUARTERS rects mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotRectRoundsAndClamps(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		w, h int
		want image.Rectangle
	}{
		{"odd width left", Slot{W: 0.5, H: 1}, 801, 481, image.Rect(0, 0, 401, 481)},
		{"odd width right clamped", Slot{X: 0.5, W: 0.5, H: 1}, 801, 481, image.Rect(401, 0, 801, 481)},
		{"thirds", Slot{X: 1.0 / 3, W: 1.0 / 3, H: 1}, 100, 10, image.Rect(33, 0, 66, 10)},
		{"outside", Slot{X: 1.2, W: 0.5, H: 1}, 100, 10, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.slot.Rect(tt.w, tt.h)
			if got != tt.want && !(got.Empty() && tt.want.Empty()) {
				t.Errorf("Rect(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestLayoutsCoverCanvas(t *testing.T) {
	for _, l := range Layouts() {
		area := 0
		for _, s := range l.Slots {
			r := s.Rect(800, 480)
			area += r.Dx() * r.Dy()
		}
		if area != 800*480 {
			t.Errorf("%s covers %d px, want %d", l.ID, area, 800*480)
		}
	}
}

func TestLookupLayoutUnknown(t *testing.T) {
	_, err := LookupLayout("DIAGONAL")
	if !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("LookupLayout(DIAGONAL) = %v, want INVALID_LAYOUT", err)
	}
}

func TestLayoutsReturnsCopies(t *testing.T) {
	ls := Layouts()
	ls[0].Slots[0].W = 0
	l, _ := LookupLayout(ls[0].ID)
	if l.Slots[0].W != 1 {
		t.Errorf("mutating Layouts() leaked into the registry")
	}
}

func TestMixupValidate(t *testing.T) {
	tests := []struct {
		name string
		m    Mixup
		code errors.Code
	}{
		{"valid", Mixup{LayoutID: LeftRight, Assignments: Assignment{"left": "clock", "right": ""}}, ""},
		{"unknown layout", Mixup{LayoutID: "NOPE"}, errors.ErrCodeInvalidLayout},
		{"unknown slot", Mixup{LayoutID: Full, Assignments: Assignment{"left": "clock"}}, errors.ErrCodeInvalidLayout},
		{"bad slug", Mixup{LayoutID: Full, Assignments: Assignment{"full": "../etc"}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Validate() = %v, want code %q", err, tt.code)
			}
		})
	}
}

// =============================================================================
// Compositor
// =============================================================================

type fakeRenderer struct {
	mu    sync.Mutex
	calls map[string]image.Point
	scale int
}

func (f *fakeRenderer) RenderSlot(_ context.Context, slug string, width, height int) (*image.RGBA, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]image.Point)
	}
	f.calls[slug] = image.Pt(width, height)
	f.mu.Unlock()

	switch slug {
	case "fail":
		return nil, stderrors.New("engine down")
	case "panic":
		panic("boom")
	case "nil":
		return nil, nil
	}
	s := max(1, f.scale)
	return raster.NewBlank(width*s, height*s, color.Black), nil
}

func TestCompositeSlotIsolation(t *testing.T) {
	for _, bad := range []string{"fail", "panic", "nil"} {
		t.Run(bad, func(t *testing.T) {
			layout, _ := LookupLayout(Quarters)
			c := New(&fakeRenderer{}, nil)
			bmp, err := c.Composite(context.Background(), layout, 80, 48, Assignment{
				"top-left":     "a",
				"top-right":    "b",
				"bottom-left":  "c",
				"bottom-right": bad,
			}, 2)
			if err != nil {
				t.Fatalf("Composite: %v", err)
			}
			if bmp.Width != 80 || bmp.Height != 48 {
				t.Fatalf("bitmap = %dx%d, want 80x48", bmp.Width, bmp.Height)
			}
			for _, p := range []image.Point{{20, 12}, {60, 12}, {20, 36}} {
				if got := bmp.Index(p.X, p.Y); got != 0 {
					t.Errorf("Index%v = %d, want 0 (rendered slot)", p, got)
				}
			}
			if got := bmp.Index(60, 36); got != 1 {
				t.Errorf("failed slot Index = %d, want 1 (background)", got)
			}
		})
	}
}

func TestCompositeSkipsUnassignedSlots(t *testing.T) {
	layout, _ := LookupLayout(LeftSplitRight)
	r := &fakeRenderer{}
	c := New(r, nil)
	bmp, err := c.Composite(context.Background(), layout, 80, 48, Assignment{"right-top": "a", "left": ""}, 0)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	want := map[string]image.Point{"a": {40, 24}}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("render calls mismatch (-want +got):\n%s", diff)
	}
	if got := bmp.Index(10, 10); got != 1 {
		t.Errorf("unassigned slot Index = %d, want 1", got)
	}
	if got := bmp.Index(60, 10); got != 0 {
		t.Errorf("assigned slot Index = %d, want 0", got)
	}
	if got := bmp.Index(60, 40); got != 1 {
		t.Errorf("unassigned right-bottom Index = %d, want 1", got)
	}
}

func TestCompositeCoverFitsOversizedSlots(t *testing.T) {
	layout, _ := LookupLayout(Full)
	c := New(&fakeRenderer{scale: 2}, nil)
	bmp, err := c.Composite(context.Background(), layout, 40, 30, Assignment{"full": "a"}, 4)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if bmp.Width != 40 || bmp.Height != 30 || bmp.Levels != 4 {
		t.Errorf("bitmap = %dx%d@%d, want 40x30@4", bmp.Width, bmp.Height, bmp.Levels)
	}
	if got := bmp.Index(39, 29); got != 0 {
		t.Errorf("corner Index = %d, want 0", got)
	}
}

func TestCompositeDeterministic(t *testing.T) {
	layout, _ := LookupLayout(TopSplitBottom)
	c := New(&fakeRenderer{}, nil)
	assign := Assignment{"top": "a", "bottom-right": "b"}

	first, err := c.Composite(context.Background(), layout, 64, 40, assign, 2)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	second, err := c.Composite(context.Background(), layout, 64, 40, assign, 2)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if diff := cmp.Diff(first.Pix, second.Pix); diff != "" {
		t.Errorf("composite not deterministic:\n%s", diff)
	}
}

func TestCompositeErrors(t *testing.T) {
	layout, _ := LookupLayout(Full)
	c := New(&fakeRenderer{}, nil)
	ctx := context.Background()

	if _, err := c.Composite(ctx, layout, 0, 10, nil, 2); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero width err = %v, want INVALID_INPUT", err)
	}
	if _, err := c.Composite(ctx, layout, 10, 10, nil, 1); !errors.Is(err, errors.ErrCodeDitherInputInvalid) {
		t.Errorf("levels=1 err = %v, want DITHER_INPUT_INVALID", err)
	}
	if _, err := c.Render(ctx, Mixup{LayoutID: "NOPE"}, 10, 10, 2); !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("unknown layout err = %v, want INVALID_LAYOUT", err)
	}
}

func TestCompositeEmptyAssignmentIsWhite(t *testing.T) {
	layout, _ := LookupLayout(Quarters)
	c := New(nil, nil)
	bmp, err := c.Composite(context.Background(), layout, 16, 8, nil, 2)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if bmp.Index(x, y) != 1 {
				t.Fatalf("Index(%d, %d) = %d, want 1", x, y, bmp.Index(x, y))
			}
		}
	}
}
