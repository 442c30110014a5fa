// Package openai transcribes audio through the OpenAI audio API.
package openai

import (
	"context"
	"errors"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

const (
	defaultModel = "whisper-1"

	// uploadLimitBytes is the documented per-file cap for the audio API.
	uploadLimitBytes = 25 * 1024 * 1024
)

// Client wraps the OpenAI transcription endpoint.
type Client struct {
	api   *goopenai.Client
	model string
}

// Option customizes the OpenAI client.
type Option func(*Client)

// WithAPIClient overrides the underlying API client (useful for tests/mocks).
func WithAPIClient(api *goopenai.Client) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// NewClient constructs an OpenAI transcription client.
func NewClient(apiKey, baseURL, model string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(
			services.ErrConfiguration, "openai", "new client",
			"OpenAI API key missing; set openai.api_key or OPENAI_API_KEY", nil)
	}

	apiConfig := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(baseURL); base != "" {
		apiConfig.BaseURL = strings.TrimRight(base, "/")
	}
	client := &Client{
		api:   goopenai.NewClientWithConfig(apiConfig),
		model: strings.TrimSpace(model),
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
func (c *Client) Name() string { return "openai" }

// UploadLimitBytes returns the OpenAI per-file upload cap.
func (c *Client) UploadLimitBytes() int64 { return uploadLimitBytes }

// Transcribe uploads one audio file and returns the verbose transcript.
func (c *Client) Transcribe(ctx context.Context, req transcription.Request) (transcription.Result, error) {
	var empty transcription.Result
	if strings.TrimSpace(req.AudioPath) == "" {
		return empty, services.Wrap(
			services.ErrValidation, "openai", "transcribe",
			"Audio path required", nil)
	}

	apiReq := goopenai.AudioRequest{
		Model:    c.model,
		FilePath: req.AudioPath,
		Language: req.Language,
		Prompt:   req.Prompt,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	}
	resp, err := c.api.CreateTranscription(ctx, apiReq)
	if err != nil {
		return empty, classifyError(err)
	}

	result := transcription.Result{
		Text:     transcription.CleanText(resp.Text),
		Language: resp.Language,
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, transcription.Segment{
			StartSec: seg.Start,
			EndSec:   seg.End,
			Text:     transcription.CleanText(seg.Text),
		})
	}
	return result, nil
}

// HealthCheck verifies credentials by listing models.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return classifyError(err)
	}
	return nil
}

func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return services.Wrap(
				services.ErrConfiguration, "openai", "transcribe",
				"OpenAI rejected the API key", err)
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return services.Wrap(
				services.ErrTransient, "openai", "transcribe",
				"OpenAI is rate limiting or unavailable", err)
		}
	}
	return services.Wrap(
		services.ErrProvider, "openai", "transcribe",
		"OpenAI transcription failed", err)
}
