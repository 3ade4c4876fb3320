// Package enrich fetches posts, users and comments from a JSON API and joins
// them into one row per post.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/lead-cleaner/internal/pkg/httpretry"
	"github.com/ignite/lead-cleaner/internal/pkg/logger"
)

// EndpointStatus is the per-endpoint entry of the run report.
type EndpointStatus struct {
	URL         string `json:"url"`
	OK          bool   `json:"ok"`
	StatusCode  int    `json:"status_code"`
	RetriesUsed int    `json:"retries_used"`
	Error       string `json:"error"`
}

// Fetcher performs GET requests with retries and decodes JSON bodies.
type Fetcher struct {
	client *httpretry.RetryClient
}

// NewFetcher builds a Fetcher. timeout bounds each attempt; retries is the
// number of attempts after the first; backoff may be nil for the default.
func NewFetcher(timeout time.Duration, retries int, backoff httpretry.Backoff) *Fetcher {
	var opts []httpretry.Option
	if backoff != nil {
		opts = append(opts, httpretry.WithBackoff(backoff))
	}
	return NewFetcherWithClient(&http.Client{Timeout: timeout}, retries, opts...)
}

// NewFetcherWithClient builds a Fetcher around an existing HTTP client.
func NewFetcherWithClient(client httpretry.HTTPDoer, retries int, opts ...httpretry.Option) *Fetcher {
	return &Fetcher{client: httpretry.NewRetryClient(client, retries, opts...)}
}

// FetchJSON GETs url and decodes the body into v. Failures are reported in
// the returned status rather than as an error.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v interface{}) EndpointStatus {
	st := EndpointStatus{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	req.Header.Set("Accept", "application/json")

	resp, stats, err := f.client.DoWithStats(req)
	st.StatusCode = stats.LastStatus
	st.RetriesUsed = stats.RetriesUsed
	if err != nil {
		st.Error = err.Error()
		logger.Warn("enrich: fetch failed", "url", url, "retries_used", st.RetriesUsed, "error", st.Error)
		return st
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		prefix := ""
		if httpretry.IsRetryableStatus(resp.StatusCode) {
			prefix = "retryable "
		}
		st.Error = fmt.Sprintf("%shttp_%d %s", prefix, resp.StatusCode, http.StatusText(resp.StatusCode))
		logger.Warn("enrich: endpoint returned error", "url", url, "status", resp.StatusCode, "retries_used", st.RetriesUsed)
		return st
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		st.Error = fmt.Sprintf("invalid_json: %v", err)
		logger.Warn("enrich: invalid json", "url", url, "error", err)
		return st
	}

	st.OK = true
	return st
}
