package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usetrmnl/inkpipe/pkg/dither"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/raster"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
)

// formatBMP is the CLI-only output that dithers the raster into a device
// bitmap.
const formatBMP = "bmp"

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output  string   // output file, or base path when several formats are written
	formats []string // png, svg, bmp
	width   int      // 0 uses display.width
	height  int      // 0 uses display.height
	levels  int      // bmp grayscale levels; 0 uses display.grayscale
	params  []string // key=value overrides
	refresh bool     // bypass the render cache
}

// renderCommand renders one recipe to files.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{formats: []string{string(render.FormatPNG)}}

	cmd := &cobra.Command{
		Use:   "render <slug>",
		Short: "Render a recipe to PNG, SVG or BMP",
		Long: `Render resolves a recipe, lays it out at the target size and writes the
requested formats. BMP output is dithered for the display's grayscale depth.

An unknown recipe renders the "not found" screen instead of failing.`,
		Example: `  inkpipe render hello
  inkpipe render clock -f png,svg,bmp -o out/clock
  inkpipe render hello --param name=Ada --width 400 --height 240`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path (default: <slug>)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", opts.formats, "output formats: png, svg, bmp")
	cmd.Flags().IntVar(&opts.width, "width", 0, "target width in pixels (default: display.width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "target height in pixels (default: display.height)")
	cmd.Flags().IntVar(&opts.levels, "levels", 0, "grayscale levels for bmp (default: display.grayscale)")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "recipe parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, slug string, opts renderOpts) error {
	ctx := cmd.Context()
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	formats, wantBMP, err := splitFormats(opts.formats)
	if err != nil {
		return err
	}

	a, err := c.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	width, height := opts.width, opts.height
	if width == 0 && height == 0 {
		width, height = a.cfg.Display.Width, a.cfg.Display.Height
	}
	base := opts.output
	if base == "" {
		base = slug
	}
	multi := len(formats)+boolToInt(wantBMP) > 1

	prog := newProgress(c.Logger)
	var written []string

	if len(formats) > 0 {
		res, err := a.runner.RenderRecipe(ctx, pipeline.Request{
			Slug:    slug,
			Width:   width,
			Height:  height,
			Formats: formats,
			Params:  params,
			Refresh: opts.refresh,
		})
		if err != nil {
			return err
		}
		for _, f := range formats {
			data := formatData(res.Output, f)
			if data == nil {
				printError("%s: %v", f, res.Output.Err(f))
				continue
			}
			path := outputPath(base, string(f), multi)
			if err := writeFile(path, data); err != nil {
				return err
			}
			written = append(written, path)
		}
		printSuccess("Rendered %s at %dx%d", StyleValue.Render(slug), width, height)
		printStats(res.Stats, res.CacheHit)
	}

	if wantBMP {
		levels := opts.levels
		if levels == 0 {
			levels = a.cfg.Display.Grayscale
		}
		bmp, err := a.runner.RecipeBitmap(ctx, pipeline.BitmapRequest{
			Slug:   slug,
			Width:  width,
			Height: height,
			Levels: levels,
			Params: params,
		})
		if err != nil {
			return err
		}
		path := outputPath(base, formatBMP, multi)
		if err := writeBitmap(path, bmp); err != nil {
			return err
		}
		written = append(written, path)
		printSuccess("Dithered %s to %d levels", StyleValue.Render(slug), bmp.Levels)
	}

	for _, path := range written {
		printFile(path)
	}
	prog.done(fmt.Sprintf("Rendered %s", slug))
	return nil
}

// ditherCommand converts an existing PNG into a device bitmap.
func (c *CLI) ditherCommand() *cobra.Command {
	var (
		output        string
		width, height int
		levels        int
	)

	cmd := &cobra.Command{
		Use:   "dither <image.png>",
		Short: "Dither a PNG into an e-ink BMP",
		Long: `Dither reads a PNG, scales it to the target size when one is given and
writes an Atkinson-dithered BMP with the requested number of gray levels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			img, err := raster.DecodePNG(data)
			if err != nil {
				return errors.Wrap(errors.ErrCodeDitherInputInvalid, err, "decode %s", input)
			}
			w, h := width, height
			if w == 0 && h == 0 {
				w, h = img.Bounds().Dx(), img.Bounds().Dy()
			}
			if err := errors.ValidateDimensions(w, h); err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, nil, nil, c.Logger)
			bmp, err := runner.Dither(cmd.Context(), img, w, h, levels)
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + formatBMP
			}
			if err := writeBitmap(output, bmp); err != nil {
				return err
			}
			printSuccess("Dithered %s to %dx%d, %d levels", filepath.Base(input), w, h, bmp.Levels)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output BMP path (default: input name with .bmp)")
	cmd.Flags().IntVar(&width, "width", 0, "target width (default: image width)")
	cmd.Flags().IntVar(&height, "height", 0, "target height (default: image height)")
	cmd.Flags().IntVar(&levels, "levels", dither.DefaultLevels, "grayscale levels (2-256)")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// parseParams reads key=value pairs into recipe props.
func parseParams(pairs []string) (recipe.Props, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(recipe.Props, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid parameter %q (want key=value)", p)
		}
		props[k] = v
	}
	return props, nil
}

// splitFormats separates engine formats from the CLI-only bmp output.
func splitFormats(names []string) ([]render.Format, bool, error) {
	var (
		formats []render.Format
		bmp     bool
	)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == formatBMP {
			bmp = true
			continue
		}
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, false, err
		}
		if f == render.FormatRaster {
			return nil, false, errors.New(errors.ErrCodeInvalidInput, "raster is not a file format, use png")
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 && !bmp {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "no output format given")
	}
	return formats, bmp, nil
}

// outputPath derives the file for one format. A single format writes to
// base as given when it already carries an extension.
func outputPath(base, format string, multi bool) string {
	if !multi && filepath.Ext(base) != "" {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}

func formatData(out *render.Output, f render.Format) []byte {
	switch f {
	case render.FormatPNG:
		return out.PNG
	case render.FormatSVG:
		return out.SVG
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func writeBitmap(path string, bmp *dither.Bitmap) error {
	return writeFile(path, bmp.EncodeBMP())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
