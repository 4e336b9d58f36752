package recipe

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/usetrmnl/inkpipe/pkg/cache"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/observability"
)

// DefaultFetchTimeout bounds every data-source call.
const DefaultFetchTimeout = 10 * time.Second

// Validator checks resolved props before they are rendered.
type Validator func(Props) error

// Element is a resolved render request. When Fallback is set, Component
// renders the NotFound screen for Input.Slug and Err records why. When
// Degraded is set, the recipe's data source failed and Input carries its
// default props; Err records the fetch failure.
type Element struct {
	Config    Definition
	Component Component
	Input     Input
	Fallback  bool
	Degraded  bool
	Err       error
}

// Resolver resolves slugs against a Registry and memoizes the results.
// It is safe for concurrent use. Concurrent misses on the same key may
// compute twice; the first stored value wins.
type Resolver struct {
	registry     *Registry
	keyer        cache.Keyer
	development  bool
	fetchTimeout time.Duration
	logger       *log.Logger

	configs    *cache.Memo[string, Definition]
	components *cache.Memo[string, Component]
	props      *cache.Memo[string, Props]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDevelopment serves unpublished recipes.
func WithDevelopment(dev bool) Option { return func(r *Resolver) { r.development = dev } }

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option { return func(r *Resolver) { r.fetchTimeout = d } }

// WithLogger sets the logger for recovered failures.
func WithLogger(l *log.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithKeyer sets the memo key scheme.
func WithKeyer(k cache.Keyer) Option { return func(r *Resolver) { r.keyer = k } }

// WithPropsTTL expires fetched props after ttl so data sources are polled
// again. Zero keeps them for the process lifetime.
func WithPropsTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.props = cache.NewMemo[string, Props](ttl) }
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:     reg,
		keyer:        cache.NewDefaultKeyer(),
		fetchTimeout: DefaultFetchTimeout,
		configs:      cache.NewMemo[string, Definition](0),
		components:   cache.NewMemo[string, Component](0),
		props:        cache.NewMemo[string, Props](0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = discardLogger()
	}
	if r.fetchTimeout <= 0 {
		r.fetchTimeout = DefaultFetchTimeout
	}
	return r
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// Registry returns the underlying registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// ResolveConfig returns the definition for slug. Unknown slugs, and
// unpublished ones outside development, fail with CONFIG_NOT_FOUND.
func (r *Resolver) ResolveConfig(ctx context.Context, slug string) (Definition, error) {
	if err := errors.ValidateSlug(slug); err != nil {
		return Definition{}, errors.Wrap(errors.ErrCodeConfigNotFound, err, "recipe %q", slug)
	}
	def, hit, err := r.configs.GetOrCompute(r.keyer.ConfigKey(slug), func() (Definition, error) {
		def, ok := r.registry.Definition(slug)
		if !ok {
			return Definition{}, errors.New(errors.ErrCodeConfigNotFound, "recipe %q not found", slug)
		}
		return def, nil
	})
	r.recordLookup(ctx, cache.KeyTypeConfig, hit, err)
	if err != nil {
		return Definition{}, err
	}
	if !def.Published && !r.development {
		return Definition{}, errors.New(errors.ErrCodeConfigNotFound, "recipe %q is not published", slug)
	}
	return def, nil
}

// ResolveComponent loads the component for slug once. Load failures are
// logged and reported as COMPONENT_LOAD_FAILURE; they are not memoized.
func (r *Resolver) ResolveComponent(ctx context.Context, slug string) (Component, error) {
	key := cache.KeyTypeComponent + ":" + slug
	c, hit, err := r.components.GetOrCompute(key, func() (Component, error) {
		load, ok := r.registry.Loader(slug)
		if !ok {
			return nil, errors.New(errors.ErrCodeComponentLoadFailure, "no component registered for %q", slug)
		}
		c, err := load()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeComponentLoadFailure, err, "load component %q", slug)
		}
		return c, nil
	})
	r.recordLookup(ctx, cache.KeyTypeComponent, hit, err)
	if err != nil {
		r.logger.Warn("component load failed", "slug", slug, "err", err)
		return nil, err
	}
	return c, nil
}

// ResolveProps computes the props for def: its defaults overridden by
// params, then by data-source output when def.HasDataFetch. A data source
// that fails, times out or returns props the validator rejects leaves the
// defaults in place. ResolveProps never fails.
func (r *Resolver) ResolveProps(ctx context.Context, def Definition, params Props, validate Validator) Props {
	props, _ := r.resolveProps(ctx, def, params, validate)
	return props
}

// resolveProps is ResolveProps that also reports why the defaults were
// used. A non-nil error means the props are degraded.
func (r *Resolver) resolveProps(ctx context.Context, def Definition, params Props, validate Validator) (Props, error) {
	base := def.Props.Merge(params)
	if !def.HasDataFetch {
		return base, nil
	}

	key := r.keyer.PropsKey(def.Slug, cache.HashParams(params))
	if p, ok := r.props.Get(key); ok {
		observability.Cache().OnCacheHit(ctx, cache.KeyTypeProps)
		return p, nil
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypeProps)

	fetched, err := r.fetch(ctx, def.Slug, params)
	if err == nil {
		merged := base.Merge(fetched)
		if validate != nil {
			if verr := validate(merged); verr != nil {
				err = errors.Wrap(errors.ErrCodeDataValidationFailure, verr, "validate data for %q", def.Slug)
			}
		}
		if err == nil {
			observability.Cache().OnCacheSet(ctx, cache.KeyTypeProps, len(merged))
			return r.props.Put(key, merged), nil
		}
	}

	r.logger.Warn("data fetch failed, using defaults", "slug", def.Slug, "code", errors.GetCode(err), "err", err)
	return base, err
}

// fetch runs the data source under the fetch timeout. The source is
// abandoned, not awaited, once the deadline passes.
func (r *Resolver) fetch(ctx context.Context, slug string, params Props) (Props, error) {
	src, ok := r.registry.Source(slug)
	if !ok {
		return nil, errors.New(errors.ErrCodeDataFetchFailure, "no data source registered for %q", slug)
	}

	hooks := observability.Fetch()
	hooks.OnFetchStart(ctx, slug)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	type result struct {
		props Props
		err   error
	}
	done := make(chan result, 1)
	go func() {
		p, err := src.Fetch(ctx, params.Clone())
		done <- result{p, err}
	}()

	var (
		props Props
		err   error
	)
	select {
	case res := <-done:
		props, err = res.props, res.err
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				err = errors.Wrap(errors.ErrCodeDataFetchTimeout, err, "fetch %q", slug)
			} else {
				err = errors.Wrap(errors.ErrCodeDataFetchFailure, err, "fetch %q", slug)
			}
		}
	case <-ctx.Done():
		err = errors.Wrap(errors.ErrCodeDataFetchTimeout, ctx.Err(), "fetch %q exceeded %s", slug, r.fetchTimeout)
	}
	hooks.OnFetchComplete(ctx, slug, time.Since(start), err)
	return props, err
}

// BuildRenderElement resolves everything needed to render slug. It never
// fails: when the definition or component cannot be resolved, or the
// validator rejects the final props, the element is a NotFound fallback
// carrying slug.
func (r *Resolver) BuildRenderElement(ctx context.Context, slug string, params Props, validate Validator) Element {
	def, err := r.ResolveConfig(ctx, slug)
	if err != nil {
		return r.fallback(slug, err)
	}
	comp, err := r.ResolveComponent(ctx, slug)
	if err != nil {
		return r.fallback(slug, err)
	}
	props, fetchErr := r.resolveProps(ctx, def, params, validate)
	if validate != nil {
		if err := validate(props); err != nil {
			return r.fallback(slug, errors.Wrap(errors.ErrCodeDataValidationFailure, err, "validate props for %q", slug))
		}
	}
	return Element{
		Config:    def,
		Component: comp,
		Input:     Input{Slug: slug, Props: props},
		Degraded:  fetchErr != nil,
		Err:       fetchErr,
	}
}

// Fallback returns the NotFound element for slug.
func Fallback(slug string, reason error) Element {
	def := notFoundDefinition(slug)
	return Element{
		Config:    def,
		Component: NotFound(slug),
		Input:     Input{Slug: slug, Props: def.Props.Clone()},
		Fallback:  true,
		Err:       reason,
	}
}

func (r *Resolver) fallback(slug string, reason error) Element {
	r.logger.Debug("rendering fallback", "slug", slug, "reason", reason)
	return Fallback(slug, reason)
}

func (r *Resolver) recordLookup(ctx context.Context, keyType string, hit bool, err error) {
	switch {
	case hit:
		observability.Cache().OnCacheHit(ctx, keyType)
	case err == nil:
		observability.Cache().OnCacheMiss(ctx, keyType)
		observability.Cache().OnCacheSet(ctx, keyType, 0)
	default:
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
}
