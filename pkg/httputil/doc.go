// Package httputil provides the HTTP client used by recipe data sources.
//
// # Overview
//
// [Client] performs JSON GET requests with a per-request user agent and
// automatic retry for transient failures. Network errors and 5xx responses
// are wrapped as retryable and retried with exponential backoff via
// [cache.RetryWithBackoff]; 4xx responses fail immediately.
//
// Usage:
//
//	c := httputil.NewClient(5 * time.Second)
//	var out map[string]any
//	err := c.GetJSON(ctx, "https://api.example.com/weather", url.Values{"city": {"Berlin"}}, &out)
//
// The caller's context bounds the whole exchange including backoff waits,
// so a data-source timeout also aborts pending retries.
package httputil
