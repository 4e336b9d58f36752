package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxDimension bounds requested canvas sizes. Large e-ink panels top out
// well below this.
const MaxDimension = 4096

// slugRegex matches recipe slugs: lowercase words joined by dashes or underscores.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateSlug validates a recipe slug for safety and correctness.
// It rejects names that could be used for path traversal when the
// catalog is read from disk.
//
// The validation rules are intentionally conservative:
//   - No empty slugs
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidInput, "recipe slug cannot be empty")
	}

	if len(slug) > 128 {
		return New(ErrCodeInvalidInput, "recipe slug too long (max 128 characters)")
	}

	for _, r := range slug {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "recipe slug contains invalid control characters")
		}
	}

	if strings.Contains(slug, "..") || strings.ContainsAny(slug, "/\\") {
		return New(ErrCodeInvalidInput, "recipe slug contains path characters: %q", slug)
	}

	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidInput, "invalid recipe slug: %q", slug)
	}

	return nil
}

// ValidateDimensions checks a target canvas size.
func ValidateDimensions(width, height int) error {
	if width < 1 || height < 1 {
		return New(ErrCodeInvalidInput, "dimensions must be positive, got %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return New(ErrCodeInvalidInput, "dimensions too large (max %d), got %dx%d", MaxDimension, width, height)
	}
	return nil
}

// ValidateLevels checks a grayscale level count.
func ValidateLevels(levels int) error {
	if levels < 2 || levels > 256 {
		return New(ErrCodeInvalidInput, "grayscale levels must be between 2 and 256, got %d", levels)
	}
	return nil
}
