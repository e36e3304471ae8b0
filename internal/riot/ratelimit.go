package riot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// ErrRateLimited indicates the retry budget for 429 responses ran out
var ErrRateLimited = errors.New("rate limit retries exhausted")

// StatusError is returned for non-2xx responses other than 429.
// Those are not retried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// do performs a GET with bounded retries on 429. The credential travels in
// the X-Riot-Token header so it never appears in URLs or error messages.
func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retryAfter, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusTooManyRequests {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}

		delay := c.backoff(attempt, retryAfter)
		log.Printf("[Riot] rate limited, retrying in %s (attempt %d/%d)", delay, attempt+1, c.maxRetries)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, c.maxRetries)
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &StatusError{Code: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, 0, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, 0, nil
}

// backoff returns the server's Retry-After hint when present, otherwise
// exponential backoff from the base delay, capped at maxDelay
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}

	delay := c.baseDelay << uint(attempt)
	if delay <= 0 || delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
