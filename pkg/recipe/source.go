package recipe

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/usetrmnl/inkpipe/pkg/httputil"
)

// DataSource fetches the dynamic props of a recipe. Implementations should
// honor ctx; the resolver abandons them when its timeout expires either way.
type DataSource interface {
	Fetch(ctx context.Context, params Props) (Props, error)
}

// FuncSource adapts a function to DataSource.
type FuncSource func(ctx context.Context, params Props) (Props, error)

// Fetch calls f.
func (f FuncSource) Fetch(ctx context.Context, params Props) (Props, error) {
	return f(ctx, params)
}

// HTTPSource fetches a JSON object from URL. Request params are sent as
// query parameters.
type HTTPSource struct {
	URL    string
	Client *httputil.Client
}

// NewHTTPSource creates a source with a per-request timeout. A zero
// timeout uses five seconds.
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{URL: rawURL, Client: httputil.NewClient(timeout)}
}

// Fetch performs the request.
func (s *HTTPSource) Fetch(ctx context.Context, params Props) (Props, error) {
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, fmt.Sprint(v))
	}
	var out Props
	if err := s.Client.GetJSON(ctx, s.URL, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ DataSource = FuncSource(nil)
	_ DataSource = (*HTTPSource)(nil)
	_ DataSource = (*WasmSource)(nil)
)
