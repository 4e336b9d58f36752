// Package recipe resolves recipe slugs into render inputs.
//
// A recipe is a [Definition] (title, publication flag, default props,
// render settings), a [Component] that turns an [Input] into a markup
// tree, and an optional [DataSource] whose output overrides the defaults.
// All three are registered in a [Registry] at startup: built-in recipes
// via [RegisterBuiltins], on-disk recipes via [LoadCatalog].
//
// # Resolution
//
// [Resolver] memoizes definitions, loaded components and fetched props per
// process. Data sources run under a fixed timeout and any failure falls
// back to the static defaults, so resolution never blocks indefinitely:
//
//	r := recipe.NewResolver(reg, recipe.WithLogger(logger))
//	el := r.BuildRenderElement(ctx, "weather", nil, nil)
//	if el.Fallback {
//	    // el.Component renders a "not found" screen for el.Input.Slug
//	}
//
// [Resolver.BuildRenderElement] never fails: an unknown, unpublished or
// unloadable recipe yields a NotFound fallback element carrying the slug.
package recipe
