package cache

import (
	"fmt"
	"slices"
)

// Key type names reported to observability hooks.
const (
	KeyTypeConfig    = "config"
	KeyTypeComponent = "component"
	KeyTypeProps     = "props"
	KeyTypeRender    = "render"
)

// Keyer builds cache keys for each cached entity.
type Keyer interface {
	// ConfigKey keys a recipe definition (and its component) by slug.
	ConfigKey(slug string) string

	// PropsKey keys resolved props by slug and a hash of the request params.
	PropsKey(slug, paramsHash string) string

	// RenderKey keys rendered artifacts by slug, target size and format set.
	RenderKey(slug string, width, height int, formats []string) string
}

// DefaultKeyer produces readable prefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) ConfigKey(slug string) string {
	return "config:" + slug
}

func (DefaultKeyer) PropsKey(slug, paramsHash string) string {
	return fmt.Sprintf("props:%s:%s", slug, paramsHash)
}

// RenderKey sorts formats so the set, not its order, determines the key.
func (DefaultKeyer) RenderKey(slug string, width, height int, formats []string) string {
	set := slices.Clone(formats)
	slices.Sort(set)
	set = slices.Compact(set)
	return hashKey("render", slug, width, height, set)
}

var _ Keyer = DefaultKeyer{}
