package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/usetrmnl/inkpipe/pkg/dither"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/pipeline"
	"github.com/usetrmnl/inkpipe/pkg/recipe"
	"github.com/usetrmnl/inkpipe/pkg/render"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

// reservedQuery are query keys consumed by the server rather than passed
// to recipes as params.
var reservedQuery = map[string]bool{"width": true, "height": true, "grayscale": true, "refresh": true}

// =============================================================================
// Bitmaps
// =============================================================================

func (s *Server) handleBitmap(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSuffix(chi.URLParam(r, "slug"), ".bmp")
	bmp, err := s.Runner.RecipeBitmap(r.Context(), pipeline.BitmapRequest{
		Slug:   slug,
		Width:  s.Display.Width,
		Height: s.Display.Height,
		Levels: s.Display.Grayscale,
		Params: params(r),
	})
	if err != nil {
		s.Logger.Error("bitmap render failed", "slug", slug, "err", err)
		http.Error(w, "failed to render bitmap", http.StatusInternalServerError)
		return
	}
	writeBMP(w, bmp)
}

func (s *Server) handleMixup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()

	width, err := intParam(q.Get("width"), s.Display.Width)
	if err != nil {
		s.fail(w, err)
		return
	}
	height, err := intParam(q.Get("height"), s.Display.Height)
	if err != nil {
		s.fail(w, err)
		return
	}
	levels, err := intParam(q.Get("grayscale"), pipeline.DefaultLevels)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := errors.ValidateDimensions(width, height); err != nil {
		s.fail(w, err)
		return
	}

	m, err := s.Store.GetMixup(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	bmp, err := s.Compositor.Render(r.Context(), m, width, height, levels)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeBMP(w, bmp)
}

func writeBMP(w http.ResponseWriter, bmp *dither.Bitmap) {
	data := bmp.EncodeBMP()
	w.Header().Set("Content-Type", "image/bmp")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Mixups and Layouts
// =============================================================================

type createMixupRequest struct {
	Name        string           `json:"name"`
	LayoutID    string           `json:"layout_id"`
	Assignments mixup.Assignment `json:"assignments"`
}

func (s *Server) handleCreateMixup(w http.ResponseWriter, r *http.Request) {
	var req createMixupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.fail(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode mixup"))
		return
	}
	m, err := store.NewMixup(req.Name, req.LayoutID, req.Assignments)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Store.SaveMixup(r.Context(), m); err != nil {
		s.fail(w, err)
		return
	}
	s.Logger.Info("created mixup", "id", m.ID, "layout", m.LayoutID)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMixups(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Store.ListMixups(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ms == nil {
		ms = []mixup.Mixup{}
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mixup.Layouts())
}

// =============================================================================
// Recipes
// =============================================================================

type recipeInfo struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Published    bool   `json:"published"`
	HasDataFetch bool   `json:"has_data_fetch"`
	Doubled      bool   `json:"double_for_sharper_text"`
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	defs := s.Runner.Resolver.Registry().Definitions()
	out := make([]recipeInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, recipeInfo{
			Slug:         d.Slug,
			Title:        d.Title,
			Published:    d.Published,
			HasDataFetch: d.HasDataFetch,
			Doubled:      d.Render.DoubleForSharperText,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

var previewTypes = map[string]struct {
	format      render.Format
	contentType string
}{
	".png": {render.FormatPNG, "image/png"},
	".svg": {render.FormatSVG, "image/svg+xml"},
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		http.NotFound(w, r)
		return
	}
	kind, ok := previewTypes[file[dot:]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	width, err := intParam(q.Get("width"), s.Display.Width)
	if err != nil {
		s.fail(w, err)
		return
	}
	height, err := intParam(q.Get("height"), s.Display.Height)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.Runner.RenderRecipe(r.Context(), pipeline.Request{
		Slug:    file[:dot],
		Width:   width,
		Height:  height,
		Formats: []render.Format{kind.format},
		Params:  params(r),
		Refresh: q.Get("refresh") == "1",
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	data := res.Output.PNG
	if kind.format == render.FormatSVG {
		data = res.Output.SVG
	}
	if data == nil {
		s.fail(w, res.Output.Err(kind.format))
		return
	}
	w.Header().Set("Content-Type", kind.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if res.CacheHit {
		w.Header().Set("X-Cache", "hit")
	}
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

// params collects non-reserved query values as recipe params.
func params(r *http.Request) recipe.Props {
	q := r.URL.Query()
	var p recipe.Props
	for k, v := range q {
		if reservedQuery[k] || len(v) == 0 {
			continue
		}
		if p == nil {
			p = make(recipe.Props)
		}
		p[k] = v[0]
	}
	return p
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid integer %q", v)
	}
	return n, nil
}

// fail writes err as plain text with its mapped status.
func (s *Server) fail(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New(errors.ErrCodeInternal, "unknown failure")
	}
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "status", status, "err", err)
	} else {
		s.Logger.Debug("request rejected", "status", status, "err", err)
	}
	http.Error(w, errors.UserMessage(err), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
