// Package fetch resolves missing resource icons through the site's
// icon-resolve endpoint and writes them back into content documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fulmenhq/navkit/internal/assets"
	"github.com/fulmenhq/navkit/internal/schema"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 1 << 20

// Client calls the icon-resolve endpoint.
type Client struct {
	fetcher    HTTPFetcher
	baseURL    string
	endpoint   string
	prefix     string
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from the fetch settings. prefix is the icon path
// prefix a usable answer must contain.
func NewClient(cfg config.FetchConfig, prefix string, fetcher HTTPFetcher) *Client {
	if fetcher == nil {
		fetcher = NewRealHTTPFetcher(nil)
	}
	attempts := cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		endpoint:   cfg.Endpoint,
		prefix:     strings.TrimRight(prefix, "/"),
		timeout:    cfg.Timeout,
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
		sleep:      sleepContext,
	}
}

// ResolveURL is the endpoint address for one source URL.
func (c *Client) ResolveURL(sourceURL string) string {
	return c.baseURL + c.endpoint + "?url=" + url.QueryEscape(sourceURL)
}

// HasLocalIcon reports whether icon already points at a local file.
func HasLocalIcon(icon, prefix string) bool {
	return icon != "" && strings.Contains(icon, strings.TrimRight(prefix, "/")+"/")
}

// StripQuery drops a trailing query string such as ?t=1700000000.
func StripQuery(icon string) string {
	if i := strings.IndexByte(icon, '?'); i >= 0 {
		return icon[:i]
	}
	return icon
}

// Resolve asks the endpoint for sourceURL's icon, retrying retryable
// failures with a fixed delay. It returns the local icon path without query
// string, or "" when the endpoint answered without a local icon. attempts is
// the number of calls made.
func (c *Client) Resolve(ctx context.Context, sourceURL string) (icon string, attempts int, err error) {
	if sourceURL == "" {
		return "", 0, ErrNoURL
	}
	for attempts = 1; attempts <= c.attempts; attempts++ {
		icon, err = c.resolveOnce(ctx, sourceURL)
		if err == nil || !IsRetryable(err) {
			return icon, attempts, err
		}
		if attempts < c.attempts {
			logger.Debug("Retrying icon resolve",
				logger.String("url", sourceURL),
				logger.Int("attempt", attempts),
				logger.Err(err))
			if serr := c.sleep(ctx, c.retryDelay); serr != nil {
				return "", attempts, err
			}
		}
	}
	return "", c.attempts, err
}

func (c *Client) resolveOnce(ctx context.Context, sourceURL string) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.ResolveURL(sourceURL)
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return "", &NetworkError{URL: target, Wrapped: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &NetworkError{URL: target, Wrapped: err}
	}
	if !gjson.ValidBytes(body) {
		return "", &ResponseError{URL: target, Reason: "body is not JSON"}
	}
	res, err := schema.ValidateJSON(body, assets.ResolveResponseSchema)
	if err != nil {
		return "", err
	}
	if !res.Valid {
		return "", &ResponseError{URL: target, Reason: res.Summary()}
	}

	icon := gjson.GetBytes(body, "icon").String()
	if !HasLocalIcon(icon, c.prefix) {
		return "", nil
	}
	return StripQuery(icon), nil
}

// Preflight checks that the site answers at all: GET <base>/ must return a
// status below 500 within timeout.
func (c *Client) Preflight(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	target := c.baseURL + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &config.PreconditionError{What: "icon endpoint", Path: target, Err: err}
	}
	resp, err := c.fetcher.Do(req)
	if err != nil {
		return &config.PreconditionError{What: "icon endpoint", Path: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= 500 {
		return &config.PreconditionError{
			What: "icon endpoint",
			Path: target,
			Err:  fmt.Errorf("unhealthy: HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
