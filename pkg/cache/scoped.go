package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "kitchen-display:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) ConfigKey(slug string) string {
	return k.prefix + k.inner.ConfigKey(slug)
}

func (k *ScopedKeyer) PropsKey(slug, paramsHash string) string {
	return k.prefix + k.inner.PropsKey(slug, paramsHash)
}

func (k *ScopedKeyer) RenderKey(slug string, width, height int, formats []string) string {
	return k.prefix + k.inner.RenderKey(slug, width, height, formats)
}
