package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/retry"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"

	"golang.org/x/time/rate"
)

const (
	linodeBaseURL         = "https://api.linode.com/v4"
	linodeTimeout         = 30 * time.Second
	linodeDefaultPageSize = 25
	linodeMaxPageSize     = 500

	// The events endpoint allows roughly 400 requests per minute per token.
	linodeRequestsPerSecond = 5
	linodeBurst             = 5
)

// Compile-time check that LinodeFetcher satisfies domain.Fetcher.
var _ domain.Fetcher = (*LinodeFetcher)(nil)

// LinodeFetcher reads the account events feed of the Linode API v4.
type LinodeFetcher struct {
	token    string
	baseURL  string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	retry    retry.Config
}

// LinodeOption configures a LinodeFetcher.
type LinodeOption func(*LinodeFetcher)

// WithLinodeBaseURL points the fetcher at another API endpoint.
func WithLinodeBaseURL(u string) LinodeOption {
	return func(f *LinodeFetcher) {
		if u != "" {
			f.baseURL = u
		}
	}
}

// WithLinodeHTTPClient replaces the HTTP client.
func WithLinodeHTTPClient(c *http.Client) LinodeOption {
	return func(f *LinodeFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithLinodePageSize sets the page_size query parameter (1-500).
func WithLinodePageSize(n int) LinodeOption {
	return func(f *LinodeFetcher) {
		if n > 0 && n <= linodeMaxPageSize {
			f.pageSize = n
		}
	}
}

// WithLinodeRateLimit paces page requests. A nil limiter disables pacing.
func WithLinodeRateLimit(l *rate.Limiter) LinodeOption {
	return func(f *LinodeFetcher) {
		f.limiter = l
	}
}

// WithLinodeRetry sets the per-page retry policy.
func WithLinodeRetry(cfg retry.Config) LinodeOption {
	return func(f *LinodeFetcher) {
		f.retry = cfg
	}
}

// NewLinodeFetcher creates a LinodeFetcher authenticating with token.
func NewLinodeFetcher(token string, opts ...LinodeOption) *LinodeFetcher {
	f := &LinodeFetcher{
		token:    token,
		baseURL:  linodeBaseURL,
		pageSize: linodeDefaultPageSize,
		client:   &http.Client{Timeout: linodeTimeout},
		limiter:  rate.NewLimiter(rate.Limit(linodeRequestsPerSecond), linodeBurst),
		retry:    retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RegisterLinode registers the Linode fetcher factory with the registry.
func RegisterLinode() {
	Register("linode", func(store auth.Store, settings Settings) (domain.Fetcher, error) {
		token, err := auth.RequireToken(store, "linode")
		if err != nil {
			return nil, err
		}
		return NewLinodeFetcher(token, WithLinodeBaseURL(settings.BaseURL)), nil
	})
}

// GetDisplayName returns the human-readable provider name.
func (f *LinodeFetcher) GetDisplayName() string {
	return "Linode"
}

// --- API request/response types ---

// linodePage is the paginated envelope around every list response.
type linodePage struct {
	Data    []domain.Event `json:"data"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	Results int            `json:"results"`
}

type linodeErrorBody struct {
	Errors []domain.ErrorReason `json:"errors"`
}

// buildFilter renders the X-Filter header for req. New events are those
// created after Since; tracked events are matched by id so their progress
// is refreshed even when they are older than the watermark.
func buildFilter(req domain.FetchRequest) (string, error) {
	filter := map[string]any{
		"+order_by": "created",
		"+order":    "desc",
	}

	if !req.Since.IsZero() {
		or := make([]map[string]any, 0, 1+len(req.TrackIDs))
		or = append(or, map[string]any{
			"created": map[string]string{"+gt": req.Since.UTC().Format(domain.TimestampLayout)},
		})
		for _, id := range req.TrackIDs {
			or = append(or, map[string]any{"id": id})
		}
		filter["+or"] = or
	}

	data, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// --- HTTP helpers ---

// getPage fetches a single page of events.
func (f *LinodeFetcher) getPage(ctx context.Context, page int, filter string) (*linodePage, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(f.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/account/events?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("linode: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Filter", filter)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapStatus(resp)
	}

	var out linodePage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("linode: failed to decode response: %w", err)
	}
	return &out, nil
}

// mapStatus converts a non-2xx response into an error wrapping the matching
// domain sentinel.
func mapStatus(resp *http.Response) error {
	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		sentinel = domain.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		sentinel = domain.ErrRateLimited
	case resp.StatusCode >= 500:
		sentinel = domain.ErrServerError
	}

	var body linodeErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 {
		// A non-JSON body (e.g. a proxy error page) still yields the status.
		_ = json.Unmarshal(data, &body)
	}

	err := domain.NewAPIError(resp.StatusCode, body.Errors, sentinel)
	if resp.StatusCode == http.StatusTooManyRequests {
		return retry.After(err, retryAfter(resp.Header.Get("Retry-After")))
	}
	return err
}

// retryAfter parses a Retry-After header given in seconds. Other forms
// yield zero and the regular backoff applies.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// --- Fetcher implementation ---

// FetchEvents walks the events feed from page 1 until the last page or
// req.MaxPages. A failure on any page discards what was already read.
func (f *LinodeFetcher) FetchEvents(ctx context.Context, req domain.FetchRequest) (*domain.Batch, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return nil, fmt.Errorf("linode: failed to encode filter: %w", err)
	}

	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	var events []domain.Event
	pages := 0
	for page := 1; page <= maxPages; page++ {
		out, err := retry.Value(ctx, f.retry, retry.IsRetryable, func() (*linodePage, error) {
			return f.getPage(ctx, page, filter)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events page %d: %w", page, err)
		}

		pages++
		events = append(events, out.Data...)
		if out.Pages <= page {
			break
		}
	}

	if events == nil {
		events = []domain.Event{}
	}
	return &domain.Batch{
		Events:    events,
		Watermark: domain.NextWatermark(req.Since, events),
		Pages:     pages,
	}, nil
}
