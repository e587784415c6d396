package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mercadona/snapshot/internal/config"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// ErrMalformedBody marks a 2xx response whose body is not valid JSON. It is a
// permanent miss: retrying a broken payload returns the same payload.
var ErrMalformedBody = errors.New("malformed response body")

// StatusError is a non-2xx response that survived the retry policy.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d for %s", e.StatusCode, e.URL)
}

// Permanent reports whether the status can never succeed on retry. 429 is the
// one 4xx the retry policy already handled; by the time it gets here the
// attempts are exhausted, but it is still transient for reporting purposes.
func (e *StatusError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanentMiss reports whether an error should be recorded as a permanent
// miss without further attempts (404, other non-retriable 4xx, broken body).
func IsPermanentMiss(err error) bool {
	if errors.Is(err, ErrMalformedBody) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Permanent()
}

// CatalogClient is the read-only surface of the storefront API the snapshot
// needs. Bodies are returned verbatim; callers decide how much to interpret.
type CatalogClient interface {
	GetCategories(ctx context.Context) (json.RawMessage, error)
	GetCategory(ctx context.Context, id int) (json.RawMessage, error)
	GetProduct(ctx context.Context, id int) (json.RawMessage, error)
}

type catalogClient struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
}

// New builds the shared catalog client: one connection pool, one retry
// policy, one rate limiter across all workers.
func New(cfg config.APIConfig) CatalogClient {
	policy := RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		WaitTime:    cfg.RetryWait(),
		MaxWaitTime: cfg.RetryMaxWait(),
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout()).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36").
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", "es-ES,es;q=0.9")

	// lang/wh are threaded through every request when configured.
	if cfg.Lang != "" {
		httpClient.SetQueryParam("lang", cfg.Lang)
	}
	if cfg.Warehouse != "" {
		httpClient.SetQueryParam("wh", cfg.Warehouse)
	}

	policy.Apply(httpClient)

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &catalogClient{
		rl:         rl,
		httpClient: httpClient,
	}
}

func (c *catalogClient) GetCategories(ctx context.Context) (json.RawMessage, error) {
	return c.fetchJSON(ctx, "/categories/")
}

func (c *catalogClient) GetCategory(ctx context.Context, id int) (json.RawMessage, error) {
	return c.fetchJSON(ctx, "/categories/"+strconv.Itoa(id)+"/")
}

func (c *catalogClient) GetProduct(ctx context.Context, id int) (json.RawMessage, error) {
	return c.fetchJSON(ctx, "/products/"+strconv.Itoa(id)+"/")
}

func (c *catalogClient) fetchJSON(ctx context.Context, path string) (json.RawMessage, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	if resp.IsError() {
		return nil, &StatusError{StatusCode: resp.StatusCode(), URL: resp.Request.URL}
	}

	body := resp.Bytes()
	if !json.Valid(body) {
		log.Errorf("❌ Non-JSON body from %s (status %d, %d bytes)", resp.Request.URL, resp.StatusCode(), len(body))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrMalformedBody, resp.Request.URL, resp.StatusCode())
	}

	log.Debugf("Fetched %s (%d bytes)", path, len(body))
	return json.RawMessage(body), nil
}
