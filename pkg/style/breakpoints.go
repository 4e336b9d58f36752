package style

import "strings"

// Breakpoint thresholds in CSS pixels.
var breakpoints = map[string]int{
	"sm":  640,
	"md":  768,
	"lg":  1024,
	"xl":  1280,
	"2xl": 1536,
}

// resolveVariant decides whether a utility token applies at viewportWidth.
// It returns the bare utility and whether to keep it. Tokens with unknown
// variant prefixes (hover:, dark:, ...) are kept unchanged for the engine.
func resolveVariant(token string, viewportWidth int) (string, bool) {
	parts := splitVariants(token)
	if len(parts) == 1 {
		return token, true
	}

	utility := parts[len(parts)-1]
	for _, prefix := range parts[:len(parts)-1] {
		if px, ok := breakpoints[prefix]; ok {
			if viewportWidth < px {
				return "", false
			}
			continue
		}
		if name, ok := strings.CutPrefix(prefix, "max-"); ok {
			if px, ok := breakpoints[name]; ok {
				if viewportWidth >= px {
					return "", false
				}
				continue
			}
		}
		return token, true
	}
	return utility, true
}

// splitVariants splits on ':' outside square brackets so arbitrary values
// such as bg-[url(a:b)] stay intact.
func splitVariants(token string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range token {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				parts = append(parts, token[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, token[start:])
}
