// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about rendering, dithering, cache operations and data fetches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnFormatStart(ctx, slug, "png")
//	// ... render ...
//	observability.Render().OnFormatComplete(ctx, slug, "png", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the multi-format renderer and compositor.
type RenderHooks interface {
	// Per-format events
	OnFormatStart(ctx context.Context, slug, format string)
	OnFormatComplete(ctx context.Context, slug, format string, duration time.Duration, err error)

	// Per-slot events for mixups
	OnSlotComplete(ctx context.Context, slotID, slug string, duration time.Duration, err error)
}

// =============================================================================
// Dither Hooks
// =============================================================================

// DitherHooks receives events from the dithering engine.
type DitherHooks interface {
	OnDither(ctx context.Context, width, height, levels int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Fetch Hooks
// =============================================================================

// FetchHooks receives events from recipe data sources.
type FetchHooks interface {
	OnFetchStart(ctx context.Context, slug string)
	OnFetchComplete(ctx context.Context, slug string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnFormatStart(context.Context, string, string) {}
func (NoopRenderHooks) OnFormatComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopRenderHooks) OnSlotComplete(context.Context, string, string, time.Duration, error) {}

// NoopDitherHooks is a no-op implementation of DitherHooks.
type NoopDitherHooks struct{}

func (NoopDitherHooks) OnDither(context.Context, int, int, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopFetchHooks is a no-op implementation of FetchHooks.
type NoopFetchHooks struct{}

func (NoopFetchHooks) OnFetchStart(context.Context, string)                          {}
func (NoopFetchHooks) OnFetchComplete(context.Context, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	ditherHooks DitherHooks = NoopDitherHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	fetchHooks  FetchHooks  = NoopFetchHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any rendering.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetDitherHooks registers custom dither hooks.
func SetDitherHooks(h DitherHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		ditherHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetFetchHooks registers custom data-source hooks.
func SetFetchHooks(h FetchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		fetchHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Dither returns the registered dither hooks.
func Dither() DitherHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return ditherHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Fetch returns the registered data-source hooks.
func Fetch() FetchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return fetchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	ditherHooks = NoopDitherHooks{}
	cacheHooks = NoopCacheHooks{}
	fetchHooks = NoopFetchHooks{}
}
