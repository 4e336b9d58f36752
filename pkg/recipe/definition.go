package recipe

import (
	"maps"
	"time"
)

// Props is the property map a component renders from.
type Props map[string]any

// Merge returns a copy of p with every key of over applied on top.
// Neither map is modified.
func (p Props) Merge(over Props) Props {
	out := make(Props, len(p)+len(over))
	maps.Copy(out, p)
	maps.Copy(out, over)
	return out
}

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	return p.Merge(nil)
}

// RenderSettings tune how a recipe is rendered.
type RenderSettings struct {
	// DoubleForSharperText renders at twice the target resolution so text
	// survives quantization; consumers downscale the raster.
	DoubleForSharperText bool `toml:"double_for_sharper_text" json:"doubleForSharperText"`
}

// DataSpec declares where a recipe's data comes from.
type DataSpec struct {
	Kind    string   `toml:"kind" json:"kind,omitempty"`       // "http" or "wasm"
	URL     string   `toml:"url" json:"url,omitempty"`         // http
	Module  string   `toml:"module" json:"module,omitempty"`   // wasm, relative to the recipe dir
	Timeout Duration `toml:"timeout" json:"timeout,omitempty"` // per-request http timeout
}

// Duration is a time.Duration read from TOML strings like "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Definition is the static configuration of a recipe. It is immutable once
// registered.
type Definition struct {
	Slug         string         `toml:"-" json:"slug"`
	Title        string         `toml:"title" json:"title"`
	Published    bool           `toml:"published" json:"published"`
	HasDataFetch bool           `toml:"has_data_fetch" json:"hasDataFetch"`
	Props        Props          `toml:"props" json:"props,omitempty"`
	Render       RenderSettings `toml:"render" json:"render"`
	Data         DataSpec       `toml:"data" json:"data,omitempty"`

	// Template names the markup template file inside the recipe directory.
	Template string `toml:"template" json:"-"`
}

// Input is everything a component needs for one render. Create modified
// copies with the With methods; never mutate a shared Input.
type Input struct {
	Slug   string
	Props  Props
	Width  int
	Height int
}

// WithProps returns a copy whose props are in.Props overridden by p.
func (in Input) WithProps(p Props) Input {
	in.Props = in.Props.Merge(p)
	return in
}

// WithSize returns a copy sized to width x height.
func (in Input) WithSize(width, height int) Input {
	in.Props = in.Props.Clone()
	in.Width, in.Height = width, height
	return in
}
