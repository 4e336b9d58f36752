package style

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usetrmnl/inkpipe/pkg/markup"
)

func TestResolveVariant(t *testing.T) {
	tests := []struct {
		token string
		vw    int
		want  string
		keep  bool
	}{
		{"p-4", 800, "p-4", true},
		{"md:flex", 800, "flex", true},
		{"md:flex", 767, "", false},
		{"md:flex", 768, "flex", true},
		{"max-md:flex", 767, "flex", true},
		{"max-md:flex", 768, "", false},
		{"2xl:text-xl", 1536, "text-xl", true},
		{"sm:max-lg:hidden", 800, "hidden", true},
		{"sm:max-lg:hidden", 1024, "", false},
		{"hover:underline", 800, "hover:underline", true},
		{"bg-[url(a:b)]", 800, "bg-[url(a:b)]", true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, keep := resolveVariant(tt.token, tt.vw)
			if got != tt.want || keep != tt.keep {
				t.Errorf("resolveVariant(%q, %d) = (%q, %v), want (%q, %v)", tt.token, tt.vw, got, keep, tt.want, tt.keep)
			}
		})
	}
}

func TestSpacing(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0", 0, true},
		{"px", 1, true},
		{"4", 16, true},
		{"2.5", 10, true},
		{"[10px]", 10, true},
		{"[10", 0, false},
		{"auto", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Spacing(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Spacing(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeHiddenPrunesSubtree(t *testing.T) {
	tree := markup.Frag(
		markup.El("div", "md:hidden", markup.El("p", "", markup.Txt("mobile"))),
		markup.El("div", "max-md:hidden", markup.Txt("desktop")),
	)

	got := Normalize(tree, 800).(*Fragment)
	if len(got.Children) != 1 {
		t.Fatalf("len(Children) = %d, want 1", len(got.Children))
	}
	el := got.Children[0].(*Element)
	if diff := cmp.Diff([]Node{&Text{Value: "desktop"}}, el.Children); diff != "" {
		t.Errorf("surviving child mismatch (-want +got):\n%s", diff)
	}

	narrow := Normalize(tree, 400).(*Fragment)
	if len(narrow.Children) != 1 {
		t.Fatalf("narrow len(Children) = %d, want 1", len(narrow.Children))
	}
	if txt := markup.TextContent(tree); txt != "mobile desktop" {
		t.Errorf("input tree modified: %q", txt)
	}
}

func TestNormalizeHiddenRoot(t *testing.T) {
	if got := Normalize(markup.El("div", "hidden"), 800); got != nil {
		t.Errorf("Normalize(hidden root) = %v, want nil", got)
	}
	if got := Normalize(markup.El("div", "").WithStyle("display: none"), 800); got != nil {
		t.Errorf("Normalize(display:none) = %v, want nil", got)
	}
}

func TestNormalizeGap(t *testing.T) {
	tests := []struct {
		name        string
		classes     string
		wantStyle   []Declaration
		wantClasses []string
	}{
		{
			name:        "shared gap",
			classes:     "flex gap-4",
			wantStyle:   []Declaration{{"row-gap", "16px"}, {"column-gap", "16px"}},
			wantClasses: []string{"flex"},
		},
		{
			name:        "axis override",
			classes:     "flex gap-2 gap-x-[10px]",
			wantStyle:   []Declaration{{"row-gap", "8px"}, {"column-gap", "10px"}},
			wantClasses: []string{"flex"},
		},
		{
			name:        "y only",
			classes:     "grid gap-y-px",
			wantStyle:   []Declaration{{"row-gap", "1px"}},
			wantClasses: []string{"grid"},
		},
		{
			name:        "zero gap",
			classes:     "flex gap-0",
			wantStyle:   []Declaration{{"row-gap", "0"}, {"column-gap", "0"}},
			wantClasses: []string{"flex"},
		},
		{
			name:        "responsive gap",
			classes:     "flex gap-1 lg:gap-8",
			wantStyle:   []Declaration{{"row-gap", "4px"}, {"column-gap", "4px"}},
			wantClasses: []string{"flex"},
		},
		{
			name:        "non flex keeps tokens",
			classes:     "block gap-4",
			wantStyle:   nil,
			wantClasses: []string{"block", "gap-4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(markup.El("aside", tt.classes), 800).(*Element)
			if diff := cmp.Diff(tt.wantStyle, got.Style); diff != "" {
				t.Errorf("Style mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantClasses, got.Classes); diff != "" {
				t.Errorf("Classes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizePatterns(t *testing.T) {
	got := Normalize(markup.El("aside", "dither-50 p-2 sparkle"), 800).(*Element)

	want := []Declaration{{FillPatternProperty, "pattern(2,2,1001)"}}
	if diff := cmp.Diff(want, got.Style); diff != "" {
		t.Errorf("Style mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p-2", "sparkle"}, got.Classes); diff != "" {
		t.Errorf("Classes mismatch (-want +got):\n%s", diff)
	}

	p, ok := ParsePattern(got.Style[0].Value)
	if !ok {
		t.Fatal("ParsePattern failed on emitted value")
	}
	if !p.On(0, 0) || p.On(1, 0) || !p.On(3, 3) {
		t.Errorf("dither-50 tile bits wrong: %+v", p)
	}
}

func TestRegisteredPatternsAreWellFormed(t *testing.T) {
	for _, name := range PatternNames() {
		p, _ := LookupPattern(name)
		if _, ok := ParsePattern(p.String()); !ok {
			t.Errorf("pattern %s does not round-trip: %s", name, p)
		}
	}
}

func TestNormalizeReset(t *testing.T) {
	got := Normalize(markup.El("h1", "mt-4").WithStyle("padding: 2px"), 800).(*Element)

	if diff := cmp.Diff(resetDeclarations, got.Base); diff != "" {
		t.Errorf("Base mismatch (-want +got):\n%s", diff)
	}
	if v, _ := got.Lookup("padding"); v != "2px" {
		t.Errorf("Lookup(padding) = %q, want inline override %q", v, "2px")
	}
	if v, _ := got.Lookup("margin"); v != "0" {
		t.Errorf("Lookup(margin) = %q, want reset %q", v, "0")
	}

	b := Normalize(markup.El("b", ""), 800).(*Element)
	if len(b.Base) != 0 {
		t.Errorf("inline tag got reset: %v", b.Base)
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	tree := markup.El("div", "flex",
		markup.Txt("a"),
		markup.El("span", "", markup.Txt("b")),
		markup.Txt("c"),
	)
	got := Normalize(tree, 800).(*Element)
	var order []string
	for _, c := range got.Children {
		switch v := c.(type) {
		case *Text:
			order = append(order, v.Value)
		case *Element:
			order = append(order, v.Tag)
		}
	}
	if diff := cmp.Diff([]string{"a", "span", "c"}, order); diff != "" {
		t.Errorf("child order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDeclarations(t *testing.T) {
	got := ParseDeclarations(" Color: black ; broken; width:50%;; gap: ")
	want := []Declaration{{"color", "black"}, {"width", "50%"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDeclarations mismatch (-want +got):\n%s", diff)
	}
}
