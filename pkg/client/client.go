// Package client is the Go client for the AR share API. Scene fetches
// retry transient failures with exponential backoff so a freshly
// shared link survives a flaky connection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/overlaylabs/arshare/pkg/models"
	"github.com/overlaylabs/arshare/pkg/share"
)

// ErrNotFound means the share id does not exist. Terminal; retrying
// cannot help.
var ErrNotFound = errors.New("AR experience not found")

// SceneLoadError reports that a scene fetch exhausted its retry
// budget. It wraps the last error encountered.
type SceneLoadError struct {
	Attempts int
	Err      error
}

func (e *SceneLoadError) Error() string {
	return fmt.Sprintf("scene load failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SceneLoadError) Unwrap() error { return e.Err }

// Config configures the API client.
type Config struct {
	BaseURL        string
	MaxAttempts    int           // total fetch attempts, default 3
	BaseDelay      time.Duration // first backoff delay, doubles per retry, default 1s
	AttemptTimeout time.Duration // per-attempt bound, default 10s
	HTTPClient     *http.Client
}

// Client talks to the AR share API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration

	// sleep is swapped out in tests to assert the backoff schedule
	// without real waiting.
	sleep func(context.Context, time.Duration) error
}

// New creates an API client.
func New(cfg Config) *Client {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay == 0 {
		baseDelay = time.Second
	}
	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout == 0 {
		attemptTimeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		maxAttempts:    maxAttempts,
		baseDelay:      baseDelay,
		attemptTimeout: attemptTimeout,
		sleep:          sleepContext,
	}
}

// FetchScene loads a shared scene by id. Transient failures (network
// errors, timeouts, 5xx, malformed bodies) are retried with doubling
// backoff up to the attempt budget; a missing id fails immediately
// with ErrNotFound. Cancelling ctx stops the retry loop.
func (c *Client) FetchScene(ctx context.Context, id string) (*models.ARData, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}

		data, err := c.fetchOnce(ctx, id)
		if err == nil {
			return rendererFriendly(data), nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			return nil, &SceneLoadError{Attempts: attempt, Err: lastErr}
		}
	}

	return nil, &SceneLoadError{Attempts: c.maxAttempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, id string) (*models.ARData, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet,
		c.baseURL+"/api/ar-experience/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, &permanentError{err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scene: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("fetch scene: status %d", resp.StatusCode)
	default:
		return nil, &permanentError{fmt.Errorf("fetch scene: status %d", resp.StatusCode)}
	}

	var body models.ExperienceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode scene response: %w", err)
	}
	// A 200 with missing fields is a backend bug, not a usable scene;
	// treat it like any other transient failure.
	if !body.Success || body.ARData == nil || body.ARData.BaseImage == "" {
		return nil, errors.New("malformed scene response")
	}
	return body.ARData, nil
}

// CreateScene uploads a composed scene and returns the share result.
// Creation is not retried; the user resubmits explicitly on failure.
func (c *Client) CreateScene(ctx context.Context, req *models.ShareRequest) (*models.ShareResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal share request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/share", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create share request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("share scene: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure models.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &failure) == nil && failure.Message != "" {
			return nil, fmt.Errorf("share scene: %s", failure.Message)
		}
		return nil, fmt.Errorf("share scene: status %d", resp.StatusCode)
	}

	var result models.ShareResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode share response: %w", err)
	}
	if !result.Success || result.UniqueID == "" {
		return nil, errors.New("malformed share response")
	}
	return &result, nil
}

// rendererFriendly normalizes image URLs for the 3D viewer: https
// scheme, cache-busting suffix if the server did not already add one.
func rendererFriendly(data *models.ARData) *models.ARData {
	now := time.Now()
	out := *data
	out.BaseImage = bust(share.ForceHTTPS(out.BaseImage), now)
	out.OverlayImage = bust(share.ForceHTTPS(out.OverlayImage), now)
	return &out
}

func bust(url string, now time.Time) string {
	if strings.Contains(url, "cb=") {
		return url
	}
	return share.CacheBust(url, now)
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

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
