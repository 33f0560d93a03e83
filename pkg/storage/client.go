package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the narrow contract the bot needs from object storage: write one
// object, get back a durable URL. There is no delete path.
type Client interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ClientConfig configures the object storage client.
type ClientConfig struct {
	Endpoint      string
	Bucket        string
	AccessToken   string
	PublicBaseURL string
	Timeout       time.Duration
}

type httpClient struct {
	endpoint      string
	bucket        string
	accessToken   string
	publicBaseURL string
	client        *http.Client
}

// NewClient creates an object storage client for an S3-style HTTP endpoint.
func NewClient(cfg ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
	}
	return &httpClient{
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		bucket:        cfg.Bucket,
		accessToken:   cfg.AccessToken,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
		client:        &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectURL := fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, encodeKey(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Sprintf("%s/%s", c.publicBaseURL, encodeKey(key)), nil
}

// encodeKey escapes each path segment while keeping the separators so object
// keys with prefixes stay readable in the resulting URL.
func encodeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
