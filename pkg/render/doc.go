// Package render turns a recipe component into output encodings.
//
// # Overview
//
// [Renderer.Render] builds the component's markup, normalizes it for the
// target viewport, lays it out once and then produces each requested
// [Format] concurrently:
//
//   - [FormatRaster]: an *image.RGBA for dithering or compositing
//   - [FormatPNG]: the same raster PNG-encoded for export
//   - [FormatSVG]: a vector document
//
// A failure in one format is logged and leaves that slot of the [Output]
// empty without affecting the others. SVG is the exception: when it cannot
// be produced, a placeholder document reading "Unable to generate SVG" is
// returned instead, so a requested SVG is never missing.
//
// # Scale
//
// Recipes with DoubleForSharperText render at twice the requested size.
// Output.Scale records the factor; consumers rescale the raster.
//
//	out := r.Render(ctx, el.Component, el.Input.WithSize(800, 480),
//	    []render.Format{render.FormatRaster}, el.Config.Render)
//	if out.Raster == nil {
//	    // fall back
//	}
package render
