package style

import (
	"fmt"
	"strconv"
	"strings"
)

// FillPatternProperty is the declaration property carrying a baked pattern.
const FillPatternProperty = "fill-pattern"

// Pattern is a repeating 1-bit tile. Bits holds W*H cells row-major,
// '1' for ink and '0' for background.
type Pattern struct {
	W, H int
	Bits string
}

// registered fill-pattern utilities.
var patterns = map[string]Pattern{
	"dither-12": {4, 4, "1000" + "0000" + "0010" + "0000"},
	"dither-25": {2, 2, "10" + "00"},
	"dither-50": {2, 2, "10" + "01"},
	"dither-75": {2, 2, "01" + "11"},
	"dither-87": {4, 4, "0111" + "1111" + "1101" + "1111"},
	"stripes-h": {1, 2, "1" + "0"},
	"stripes-v": {2, 1, "10"},
	"stripes-d": {4, 4, "1000" + "0100" + "0010" + "0001"},
	"checker":   {4, 4, "1100" + "1100" + "0011" + "0011"},
	"dots":      {4, 4, "0000" + "0100" + "0000" + "0000"},
	"grid":      {4, 4, "1111" + "1000" + "1000" + "1000"},
}

// LookupPattern returns the registered pattern for a utility name.
func LookupPattern(name string) (Pattern, bool) {
	p, ok := patterns[name]
	return p, ok
}

// PatternNames lists registered pattern utilities.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	return names
}

// String renders the literal declaration value, e.g. pattern(2,2,1001).
func (p Pattern) String() string {
	return fmt.Sprintf("pattern(%d,%d,%s)", p.W, p.H, p.Bits)
}

// On reports whether the tile is inked at (x, y), wrapping both axes.
func (p Pattern) On(x, y int) bool {
	if p.W <= 0 || p.H <= 0 {
		return false
	}
	x %= p.W
	if x < 0 {
		x += p.W
	}
	y %= p.H
	if y < 0 {
		y += p.H
	}
	return p.Bits[y*p.W+x] == '1'
}

// ParsePattern reads a literal pattern(W,H,bits) value.
func ParsePattern(value string) (Pattern, bool) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(value), "pattern(")
	if !ok {
		return Pattern{}, false
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return Pattern{}, false
	}
	fields := strings.Split(inner, ",")
	if len(fields) != 3 {
		return Pattern{}, false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(fields[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(fields[1]))
	bits := strings.TrimSpace(fields[2])
	if errW != nil || errH != nil || w <= 0 || h <= 0 || len(bits) != w*h {
		return Pattern{}, false
	}
	if strings.Trim(bits, "01") != "" {
		return Pattern{}, false
	}
	return Pattern{W: w, H: h, Bits: bits}, true
}
