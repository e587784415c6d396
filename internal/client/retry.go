package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"resty.dev/v3"
)

// RetryPolicy is the single retry configuration shared by every call the
// catalog client makes. Attempt n waits roughly WaitTime * 2^(n-1), jittered,
// capped at MaxWaitTime. MaxAttempts counts the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// DefaultRetryPolicy matches the upstream's tolerance: three attempts with a
// short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		WaitTime:    250 * time.Millisecond,
		MaxWaitTime: 2 * time.Second,
	}
}

// Retriable reports whether a response or transport error is worth another
// attempt. Transient: network errors, 429, 5xx. Everything else, notably 404,
// is permanent and fails fast.
func (p RetryPolicy) Retriable(res *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	if res == nil {
		return false
	}
	if res.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return res.StatusCode() >= http.StatusInternalServerError
}

// Apply installs the policy on a resty client. Both fetchers go through the
// same client, so this is configured exactly once.
func (p RetryPolicy) Apply(c *resty.Client) *resty.Client {
	return c.
		SetRetryCount(p.MaxAttempts - 1).
		SetRetryWaitTime(p.WaitTime).
		SetRetryMaxWaitTime(p.MaxWaitTime).
		SetRetryDefaultConditions(false).
		AddRetryConditions(p.Retriable)
}
