// Package assets wraps the external image store. Uploaded images leave
// the process boundary; what comes back is a durable URL that must stay
// valid for the lifetime of any scene referencing it.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const uploadFolder = "ar_viewer"

// UploadError reports a rejected or failed image upload. StatusCode is
// zero when the request never reached the remote store.
type UploadError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("asset upload failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("asset upload failed: %s", e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader stores one image and returns its durable URL.
type Uploader interface {
	Store(ctx context.Context, imageData string) (string, error)
}

// Config configures the Cloudinary client.
type Config struct {
	CloudName    string
	UploadPreset string
	BaseURL      string        // defaults to the Cloudinary API endpoint
	Timeout      time.Duration // per-upload timeout, defaults to 30s

	// AllowLocalFallback degrades a failed upload of an already-hosted
	// URL to returning that URL unchanged. Development only.
	AllowLocalFallback bool
}

// Client uploads images to Cloudinary via its unsigned upload REST API.
type Client struct {
	httpClient         *http.Client
	uploadURL          string
	uploadPreset       string
	allowLocalFallback bool
}

// New creates a Cloudinary upload client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:         &http.Client{Timeout: timeout},
		uploadURL:          fmt.Sprintf("%s/v1_1/%s/image/upload", strings.TrimRight(baseURL, "/"), cfg.CloudName),
		uploadPreset:       cfg.UploadPreset,
		allowLocalFallback: cfg.AllowLocalFallback,
	}
}

// Store uploads imageData (a data URI or a remote URL) and returns the
// secure URL of the stored copy. No retry happens at this layer; that
// is the caller's call to make.
func (c *Client) Store(ctx context.Context, imageData string) (string, error) {
	if imageData == "" {
		return "", &UploadError{Message: "no image data provided"}
	}

	url, err := c.upload(ctx, imageData)
	if err != nil {
		// Explicit dev-mode escape hatch: if the input is already a
		// hosted URL, hand it back rather than failing the share.
		if c.allowLocalFallback && isRemoteURL(imageData) {
			slog.Warn("upload failed, falling back to source URL", "error", err)
			return imageData, nil
		}
		return "", err
	}
	return url, nil
}

func (c *Client) upload(ctx context.Context, imageData string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("file", imageData); err != nil {
		return "", &UploadError{Message: "encode upload form", Err: err}
	}
	if err := form.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", &UploadError{Message: "encode upload form", Err: err}
	}
	if err := form.WriteField("folder", uploadFolder); err != nil {
		return "", &UploadError{Message: "encode upload form", Err: err}
	}
	if err := form.Close(); err != nil {
		return "", &UploadError{Message: "encode upload form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", &UploadError{Message: "create upload request", Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Message: "image store unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &UploadError{Message: "decode upload response", Err: err}
	}
	if result.SecureURL == "" {
		return "", &UploadError{Message: "upload response missing secure_url"}
	}
	return result.SecureURL, nil
}

// readErrorMessage pulls the error message out of a Cloudinary failure
// body, falling back to the raw (truncated) body text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return "remote store rejected the upload"
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
