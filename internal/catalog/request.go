package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/partsportal/catalog-sync/internal/version"
)

// response is a successful reply.
type response struct {
	body        []byte
	contentType string
}

// doRequest performs a GET for path. resource names the target in errors.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, resource string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Resource:   resource,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return &response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, path string, query url.Values, resource string) (*response, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)+1))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		resp, err := c.doRequest(ctx, path, query, resource)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// get performs a GET and decodes the JSON body into result. Bodies served with
// a non-JSON content type are still parsed; a failure is a ContentTypeError.
func (c *Client) get(ctx context.Context, path string, query url.Values, resource string, result any) error {
	resp, err := c.doWithRetry(ctx, path, query, resource)
	if err != nil {
		return err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.contentType)
	if err := json.Unmarshal(resp.body, result); err != nil {
		if mediaType != "application/json" {
			return &ContentTypeError{ContentType: resp.contentType, Err: err}
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
