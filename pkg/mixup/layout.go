// Package mixup composites several recipes into one device bitmap.
//
// A [Layout] divides the canvas into named [Slot]s given in relative
// coordinates. A [Mixup] assigns a recipe slug to some of those slots and
// is what the store persists. The [Compositor] renders every assigned
// slot concurrently, cover-fits each result into its slot, and dithers the
// finished canvas exactly once so halftone texture is continuous across
// slot boundaries.
//
// A slot that fails to render is logged and left as background; only an
// unknown layout, invalid dimensions or invalid levels fail a composite.
package mixup

import (
	"image"
	"math"
	"slices"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/errors"
)

// Slot is a rectangular region of a layout. X, Y, W and H are fractions
// of the canvas in [0, 1].
type Slot struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

// Rect resolves the slot against a width x height canvas. Each edge is
// rounded on its own, so neighbouring slots may overlap or leave a gap of
// at most one pixel. The result is clamped to the canvas.
func (s Slot) Rect(width, height int) image.Rectangle {
	x := int(math.Round(s.X * float64(width)))
	y := int(math.Round(s.Y * float64(height)))
	w := int(math.Round(s.W * float64(width)))
	h := int(math.Round(s.H * float64(height)))
	return image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, width, height))
}

// Layout is a named arrangement of slots.
type Layout struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// Slot returns the slot with the given ID.
func (l Layout) Slot(id string) (Slot, bool) {
	i := slices.IndexFunc(l.Slots, func(s Slot) bool { return s.ID == id })
	if i < 0 {
		return Slot{}, false
	}
	return l.Slots[i], true
}

// Built-in layout IDs.
const (
	Full           = "FULL"
	LeftRight      = "LEFT_RIGHT"
	TopBottom      = "TOP_BOTTOM"
	LeftSplitRight = "LEFT_SPLIT_RIGHT"
	TopSplitBottom = "TOP_SPLIT_BOTTOM"
	Quarters       = "QUARTERS"
)

var layouts = []Layout{
	{ID: Full, Name: "Full screen", Slots: []Slot{
		{ID: "full", Label: "Full", W: 1, H: 1},
	}},
	{ID: LeftRight, Name: "Left and right", Slots: []Slot{
		{ID: "left", Label: "Left", W: 0.5, H: 1},
		{ID: "right", Label: "Right", X: 0.5, W: 0.5, H: 1},
	}},
	{ID: TopBottom, Name: "Top and bottom", Slots: []Slot{
		{ID: "top", Label: "Top", W: 1, H: 0.5},
		{ID: "bottom", Label: "Bottom", Y: 0.5, W: 1, H: 0.5},
	}},
	{ID: LeftSplitRight, Name: "Left, split right", Slots: []Slot{
		{ID: "left", Label: "Left", W: 0.5, H: 1},
		{ID: "right-top", Label: "Right top", X: 0.5, W: 0.5, H: 0.5},
		{ID: "right-bottom", Label: "Right bottom", X: 0.5, Y: 0.5, W: 0.5, H: 0.5},
	}},
	{ID: TopSplitBottom, Name: "Top, split bottom", Slots: []Slot{
		{ID: "top", Label: "Top", W: 1, H: 0.5},
		{ID: "bottom-left", Label: "Bottom left", Y: 0.5, W: 0.5, H: 0.5},
		{ID: "bottom-right", Label: "Bottom right", X: 0.5, Y: 0.5, W: 0.5, H: 0.5},
	}},
	{ID: Quarters, Name: "Quarters", Slots: []Slot{
		{ID: "top-left", Label: "Top left", W: 0.5, H: 0.5},
		{ID: "top-right", Label: "Top right", X: 0.5, W: 0.5, H: 0.5},
		{ID: "bottom-left", Label: "Bottom left", Y: 0.5, W: 0.5, H: 0.5},
		{ID: "bottom-right", Label: "Bottom right", X: 0.5, Y: 0.5, W: 0.5, H: 0.5},
	}},
}

// Layouts returns the built-in layouts in display order.
func Layouts() []Layout {
	out := make([]Layout, len(layouts))
	for i, l := range layouts {
		l.Slots = slices.Clone(l.Slots)
		out[i] = l
	}
	return out
}

// LookupLayout returns the built-in layout with the given ID.
func LookupLayout(id string) (Layout, error) {
	for _, l := range layouts {
		if l.ID == id {
			l.Slots = slices.Clone(l.Slots)
			return l, nil
		}
	}
	return Layout{}, errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q", id)
}

// Assignment maps slot IDs to recipe slugs. Slots without an entry, or
// with an empty slug, are left as background.
type Assignment map[string]string

// Mixup is a persisted layout choice plus its slot assignments.
type Mixup struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	LayoutID    string     `json:"layout_id" bson:"layout_id"`
	Assignments Assignment `json:"assignments" bson:"assignments"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// Validate checks that the layout exists, that every assigned slot
// belongs to it and that every slug is well formed.
func (m Mixup) Validate() error {
	layout, err := LookupLayout(m.LayoutID)
	if err != nil {
		return err
	}
	for slot, slug := range m.Assignments {
		if _, ok := layout.Slot(slot); !ok {
			return errors.New(errors.ErrCodeInvalidLayout, "layout %s has no slot %q", m.LayoutID, slot)
		}
		if slug == "" {
			continue
		}
		if err := errors.ValidateSlug(slug); err != nil {
			return err
		}
	}
	return nil
}
