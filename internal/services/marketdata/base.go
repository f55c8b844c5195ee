package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	xhttp "FinNarrative/pkg/http"
)

const maxRetryAfter = 5 * time.Second

// HTTPServiceBase centralizes client construction and JSON GET handling for
// market data providers.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	backoff time.Duration
}

func NewHTTPServiceBase(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(opts...),
		backoff: 200 * time.Millisecond,
	}
}

// GetJSON issues a GET against baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, query map[string]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("market data http client not initialized")
	}
	if err := b.client.GetJSON(ctx, b.baseURL, query, dest); err != nil {
		return fmt.Errorf("get %s: %w", b.baseURL, err)
	}
	return nil
}

// GetJSONWithRetry retries transient failures up to `attempts` times with a
// linear backoff.
func (b *HTTPServiceBase) GetJSONWithRetry(ctx context.Context, query map[string]string, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.GetJSON(ctx, query, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.GetJSON(ctx, query, dest)
		if err == nil || !retryable(err) {
			return err
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(retryDelay(err, time.Duration(i)*b.backoff)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// retryDelay honours a provider's Retry-After up to maxRetryAfter.
func retryDelay(err error, backoff time.Duration) time.Duration {
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.RetryAfter > backoff {
		return min(se.RetryAfter, maxRetryAfter)
	}
	return backoff
}
