package transcription

import (
	"context"
	"strings"
)

// Request carries one audio file (or chunk) to a provider.
type Request struct {
	AudioPath string
	Language  string // ISO 639-1, empty for auto-detect
	Prompt    string // optional vocabulary/context hint
}

// Segment is a time-aligned span of transcript text.
type Segment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// Result is a provider's transcript for one request.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Provider is a speech-to-text backend. Implementations live under
// internal/services and are selected by name from configuration.
type Provider interface {
	// Name returns the configuration identifier for this provider.
	Name() string

	// UploadLimitBytes returns the provider's per-request payload cap in
	// bytes, or 0 when the provider has no practical limit.
	UploadLimitBytes() int64

	// Transcribe sends one audio file and returns the transcript.
	Transcribe(ctx context.Context, req Request) (Result, error)

	// HealthCheck verifies credentials and reachability without
	// transcribing anything.
	HealthCheck(ctx context.Context) error
}

// CleanText trims whitespace a provider may leave around transcript text.
func CleanText(text string) string {
	return strings.TrimSpace(text)
}
