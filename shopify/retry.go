package shopify

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy decides whether an HTTP status is worth retrying and how long
// to wait before the next attempt. It is a plain function of (status,
// headers, attempt) so it can be unit-tested without a live endpoint.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of tries, first attempt included.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff for 5xx responses.
	BaseDelay time.Duration
	// MaxDelay caps any single wait, Retry-After included.
	MaxDelay time.Duration
}

// DefaultRetryPolicy matches the admin API's documented throttling
// behavior: honor Retry-After on 429, back off exponentially on 5xx.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// RetryableStatus reports whether a status code may succeed on retry.
// Client errors other than 429 never do.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Delay returns how long to wait after the given response before attempt
// n+1. attempt is zero-based.
func (p RetryPolicy) Delay(resp *http.Response, attempt int) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.ParseFloat(ra, 64); err == nil && secs > 0 {
				return p.clamp(time.Duration(secs * float64(time.Second)))
			}
		}
	}
	return p.clamp(p.BaseDelay << uint(attempt))
}

func (p RetryPolicy) clamp(d time.Duration) time.Duration {
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
