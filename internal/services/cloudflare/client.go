// Package cloudflare transcribes audio through Cloudflare Workers AI.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
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
	defaultBaseURL     = "https://api.cloudflare.com/client/v4"
	defaultModel       = "@cf/openai/whisper"
	defaultHTTPTimeout = 10 * time.Minute

	// uploadLimitBytes reflects the Workers AI request body cap.
	uploadLimitBytes = 100 * 1024 * 1024
)

// Client wraps the Workers AI run endpoint for Whisper models.
type Client struct {
	accountID  string
	apiToken   string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the Cloudflare client.
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

// NewClient constructs a Workers AI client.
func NewClient(accountID, apiToken, model string, opts ...Option) (*Client, error) {
	accountID = strings.TrimSpace(accountID)
	apiToken = strings.TrimSpace(apiToken)
	if accountID == "" || apiToken == "" {
		return nil, services.Wrap(
			services.ErrConfiguration, "cloudflare", "new client",
			"Cloudflare account ID and API token required; set cloudflare.account_id and cloudflare.api_token", nil)
	}
	client := &Client{
		accountID:  accountID,
		apiToken:   apiToken,
		model:      strings.TrimSpace(model),
		baseURL:    defaultBaseURL,
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
func (c *Client) Name() string { return "cloudflare" }

// UploadLimitBytes returns the Workers AI request body cap.
func (c *Client) UploadLimitBytes() int64 { return uploadLimitBytes }

type envelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

type whisperResult struct {
	Text  string `json:"text"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads one audio file as multipart form data to ai/run.
func (c *Client) Transcribe(ctx context.Context, req transcription.Request) (transcription.Result, error) {
	var empty transcription.Result
	audioPath := strings.TrimSpace(req.AudioPath)
	if audioPath == "" {
		return empty, services.Wrap(
			services.ErrValidation, "cloudflare", "transcribe",
			"Audio path required", nil)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return empty, services.Wrap(
			services.ErrValidation, "cloudflare", "transcribe",
			"Audio file unreadable", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return empty, fmt.Errorf("cloudflare transcribe: form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return empty, fmt.Errorf("cloudflare transcribe: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return empty, fmt.Errorf("cloudflare transcribe: close form: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "accounts", c.accountID, "ai/run", c.model)
	if err != nil {
		return empty, fmt.Errorf("cloudflare transcribe: build url: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return empty, fmt.Errorf("cloudflare transcribe: request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return empty, services.Wrap(
			services.ErrTransient, "cloudflare", "transcribe",
			"Workers AI request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "cloudflare", "transcribe",
			"Failed to read response", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return empty, services.Wrap(
			services.ErrConfiguration, "cloudflare", "transcribe",
			"Cloudflare rejected the API token", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return empty, services.Wrap(
			services.ErrTransient, "cloudflare", "transcribe",
			"Workers AI is rate limiting or unavailable", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, services.Wrap(
			services.ErrProvider, "cloudflare", "transcribe",
			"Workers AI transcription failed", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "cloudflare", "transcribe",
			"Failed to decode Workers AI response", err)
	}
	if !env.Success {
		detail := "unknown error"
		if len(env.Errors) > 0 {
			detail = env.Errors[0].Message
		}
		return empty, services.Wrap(
			services.ErrProvider, "cloudflare", "transcribe",
			"Workers AI reported failure: "+detail, nil)
	}

	var whisper whisperResult
	if err := json.Unmarshal(env.Result, &whisper); err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "cloudflare", "transcribe",
			"Unexpected Workers AI result shape", err)
	}

	result := transcription.Result{Text: transcription.CleanText(whisper.Text)}
	for _, word := range whisper.Words {
		result.Segments = append(result.Segments, transcription.Segment{
			StartSec: word.Start,
			EndSec:   word.End,
			Text:     word.Word,
		})
	}
	return result, nil
}

// HealthCheck verifies the token against the account tokens/verify endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint, err := url.JoinPath(c.baseURL, "user/tokens/verify")
	if err != nil {
		return fmt.Errorf("cloudflare health: build url: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("cloudflare health: request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "cloudflare", "health check",
			"Cloudflare unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(
			services.ErrConfiguration, "cloudflare", "health check",
			"Cloudflare rejected the API token", fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(
			services.ErrProvider, "cloudflare", "health check",
			"Cloudflare health check failed", fmt.Errorf("http %d", resp.StatusCode))
	}
	return nil
}
