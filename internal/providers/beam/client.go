// Package beam implements capability adapters over the Beam endpoint cluster:
// image and animated-video generation, music generation, voice synthesis, and
// final video rendering.
package beam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelforge/reelforge/internal/logger"
)

// APIError represents a Beam endpoint error
type APIError struct {
	Message string `json:"error"`
	Status  int    `json:"-"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	return fmt.Sprintf("beam endpoint error: %s (status: %d)", e.Message, e.Status)
}

// IsRateLimited returns true if the error is a rate limit error
func (e *APIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsServerError returns true if the error is a server error
func (e *APIError) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

const (
	maxRetries = 3
	retryDelay = 2 * time.Second
)

// Client is a thin JSON-over-HTTP client for Beam endpoints. Adapters share
// one Client and pass per-capability timeouts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a Beam endpoint client
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("beam base URL cannot be empty")
	}
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		token:   token,
	}, nil
}

// post performs a JSON POST with retries on transport and 5xx failures. 4xx
// responses are not retried: the request will not get better.
func (c *Client) post(ctx context.Context, path string, body, out interface{}, timeout time.Duration) error {
	bodyData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := c.baseURL + path
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		logger.Debugf("Beam request: attempt=%d url=%s", attempt, url)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(bodyData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := &APIError{Status: resp.StatusCode}
			if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
				apiErr.Message = string(data)
			}
			if apiErr.IsServerError() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}
