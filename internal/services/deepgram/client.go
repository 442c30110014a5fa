// Package deepgram transcribes audio through the Deepgram prerecorded API.
package deepgram

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

const (
	defaultBaseURL     = "https://api.deepgram.com"
	defaultModel       = "nova-2"
	defaultHTTPTimeout = 10 * time.Minute

	// uploadLimitBytes is Deepgram's documented cap for prerecorded uploads.
	uploadLimitBytes = 2 * 1024 * 1024 * 1024
)

// Client wraps the Deepgram prerecorded transcription API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the Deepgram client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient constructs a Deepgram API client.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(
			services.ErrConfiguration, "deepgram", "new client",
			"Deepgram API key missing; set deepgram.api_key or DEEPGRAM_API_KEY", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	if client.model == "" {
		client.model = defaultModel
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies this provider in configuration and logs.
func (c *Client) Name() string { return "deepgram" }

// UploadLimitBytes returns the Deepgram per-request payload cap.
func (c *Client) UploadLimitBytes() int64 { return uploadLimitBytes }

// Transcribe uploads one audio file to the prerecorded endpoint.
func (c *Client) Transcribe(ctx context.Context, req transcription.Request) (transcription.Result, error) {
	var empty transcription.Result
	audioPath := strings.TrimSpace(req.AudioPath)
	if audioPath == "" {
		return empty, services.Wrap(
			services.ErrValidation, "deepgram", "transcribe",
			"Audio path required", nil)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return empty, services.Wrap(
			services.ErrValidation, "deepgram", "transcribe",
			"Audio file unreadable", err)
	}
	defer file.Close()

	endpoint, err := c.listenURL(req.Language)
	if err != nil {
		return empty, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "deepgram", "transcribe",
			"Failed to build request", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)
	httpReq.Header.Set("Content-Type", contentTypeFor(audioPath))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return empty, services.Wrap(
			services.ErrTransient, "deepgram", "transcribe",
			"Deepgram request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "deepgram", "transcribe",
			"Failed to read response", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return empty, services.Wrap(
			services.ErrConfiguration, "deepgram", "transcribe",
			"Deepgram rejected the API key", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return empty, services.Wrap(
			services.ErrTransient, "deepgram", "transcribe",
			"Deepgram is rate limiting or unavailable", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, services.Wrap(
			services.ErrProvider, "deepgram", "transcribe",
			"Deepgram transcription failed", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return parseResponse(body)
}

// HealthCheck verifies credentials against the projects endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.baseURL, "/v1/projects")
	if err != nil {
		return fmt.Errorf("deepgram health: build url: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("deepgram health: request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "deepgram", "health check",
			"Deepgram unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(
			services.ErrConfiguration, "deepgram", "health check",
			"Deepgram rejected the API key", fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(
			services.ErrProvider, "deepgram", "health check",
			"Deepgram health check failed", fmt.Errorf("http %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) listenURL(lang string) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "/v1/listen")
	if err != nil {
		return "", fmt.Errorf("deepgram transcribe: build url: %w", err)
	}
	query := url.Values{}
	query.Set("model", c.model)
	query.Set("smart_format", "true")
	query.Set("punctuate", "true")
	if lang = strings.TrimSpace(lang); lang != "" {
		query.Set("language", lang)
	} else {
		query.Set("detect_language", "true")
	}
	return endpoint + "?" + query.Encode(), nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
