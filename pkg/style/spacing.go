package style

import (
	"strconv"
	"strings"
)

// Spacing converts a spacing-scale value to pixels: "0" is 0, "px" is 1,
// a number N is N*4 (fractions allowed) and "[Npx]" is N.
func Spacing(value string) (float64, bool) {
	switch value {
	case "":
		return 0, false
	case "0":
		return 0, true
	case "px":
		return 1, true
	}
	if inner, ok := strings.CutPrefix(value, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return 0, false
		}
		return Pixels(inner)
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n * 4, true
}

// Pixels parses "12px", "12" or "0" into a pixel length.
func Pixels(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, "px")
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPx renders a pixel length the way normalized declarations carry it.
func FormatPx(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
