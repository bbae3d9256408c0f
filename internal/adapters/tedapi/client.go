// internal/adapters/tedapi/client.go
package tedapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"ted_dashboard/internal/adapters/observability"
	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

const service = "tedapi"

// endpoints, relative to the base URL
const (
	pathNotices = "/notices"
	pathLive    = "/live/search"
	pathTrends  = "/stats/trends"
)

type Options struct {
	BaseURL string
	APIKey  string // optional; sent as X-API-Key
	RPS     int
	Retries int // extra attempts on 429 and transient 5xx
	Timeout time.Duration
}

// Client talks to the notices API. It implements domain.NoticeSource.
type Client struct {
	base    string
	hc      *http.Client
	key     string
	rl      *rate.Limiter
	retries int
}

var _ domain.NoticeSource = (*Client)(nil)

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("API base URL: %w", err)
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Client{
		base:    base,
		hc:      &http.Client{Timeout: opts.Timeout},
		key:     opts.APIKey,
		rl:      rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
		retries: max(0, opts.Retries),
	}, nil
}

// ---- Public API ----

// ListNotices reads previously ingested notices.
func (c *Client) ListNotices(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	var out domain.NoticePage
	return out, c.get(ctx, pathNotices, q.Values(), &out)
}

// SearchLive proxies a search to the upstream procurement portal.
func (c *Client) SearchLive(ctx context.Context, q domain.NoticeQuery) (domain.NoticePage, error) {
	var out domain.NoticePage
	return out, c.get(ctx, pathLive, q.Values(), &out)
}

// Trends reads monthly contract counts per product.
func (c *Client) Trends(ctx context.Context) (domain.Trends, error) {
	var out domain.Trends
	return out, c.get(ctx, pathTrends, nil, &out)
}

// ---- Internals ----

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		// client-side rate limiting, once per attempt
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "ted-dashboard/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, path, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug().Err(err).Str("endpoint", path).Str("err_type", observability.LabelErr(err)).
				Int("attempt", i+1).Msg("request failed")
			lastErr = err
			if i < c.retries && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, path, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			// success, empty body
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			// decode then close
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil

		case retryable(resp.StatusCode):
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			lastErr = apiError(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < c.retries && sleepCtx(ctx, wait) {
				log.Debug().Int("status", resp.StatusCode).Str("endpoint", path).
					Dur("wait", wait).Msg("retrying")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return apiError(resp)
		}
	}

	return lastErr
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// apiError reads a small error body and closes it.
func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return &domain.APIError{Status: resp.StatusCode, Detail: detailOf(b)}
}

// detailOf extracts the "detail" member of an error body. Validation errors
// arrive as a list of objects carrying "msg"; anything else is rendered
// as a table cell would be. Non-JSON bodies yield "".
func detailOf(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var f domain.Field
	if err := json.Unmarshal(body, &f); err != nil {
		return ""
	}
	d := f.Get("detail")
	if d.IsAbsent() {
		return ""
	}
	if d.Kind() == domain.List {
		var msgs []string
		for _, it := range d.Items() {
			if m := it.Get("msg").Text(); m != "" {
				msgs = append(msgs, m)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(app.RenderAny(d))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
