package config

import (
	"errors"
	"fmt"
	"strings"
)

// KnownProviders lists the transcription providers this build understands.
var KnownProviders = []string{"openai", "deepgram", "cloudflare", "whisperx"}

var knownOutputFormats = map[string]struct{}{
	"txt":  {},
	"json": {},
	"srt":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateCompression(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	provider := c.Transcription.Provider
	known := false
	for _, candidate := range KnownProviders {
		if candidate == provider {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("transcription.provider: unknown provider %q (expected one of %s)",
			provider, strings.Join(KnownProviders, ", "))
	}
	for _, format := range c.Transcription.OutputFormats {
		if _, ok := knownOutputFormats[format]; !ok {
			return fmt.Errorf("transcription.output_formats: unsupported format %q (expected txt, json, or srt)", format)
		}
	}
	if len(c.Transcription.OutputFormats) == 0 {
		return errors.New("transcription.output_formats must list at least one format")
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.SafetyMB < 0 {
		return errors.New("chunking.safety_mb must not be negative")
	}
	if c.Chunking.MaxMB <= c.Chunking.SafetyMB {
		return errors.New("chunking.max_mb must be greater than chunking.safety_mb")
	}
	if c.Chunking.BitrateKbps <= 0 {
		return errors.New("chunking.bitrate_kbps must be positive")
	}
	if c.Chunking.MinChunkSec <= 0 {
		return errors.New("chunking.min_chunk_sec must be positive")
	}
	return nil
}

func (c *Config) validateCompression() error {
	switch c.Compression.Format {
	case "ogg", "opus", "mp3", "m4a":
	default:
		return fmt.Errorf("compression.format: unsupported format %q", c.Compression.Format)
	}
	if c.Compression.BitrateKbps <= 0 {
		return errors.New("compression.bitrate_kbps must be positive")
	}
	return nil
}

// validateProvider checks that credentials exist for the selected provider.
// Other providers may stay unconfigured; their health checks report that.
func (c *Config) validateProvider() error {
	switch c.Transcription.Provider {
	case "openai":
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/epicenter/config.toml"
			}
			return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'epicenter config init')", defaultPath)
		}
	case "deepgram":
		if strings.TrimSpace(c.Deepgram.APIKey) == "" {
			return errors.New("deepgram.api_key is required when transcription.provider is deepgram (or set DEEPGRAM_API_KEY)")
		}
	case "cloudflare":
		if strings.TrimSpace(c.Cloudflare.AccountID) == "" || strings.TrimSpace(c.Cloudflare.APIToken) == "" {
			return errors.New("cloudflare.account_id and cloudflare.api_token are required when transcription.provider is cloudflare")
		}
	case "whisperx":
		if c.WhisperX.VADMethod != "silero" && c.WhisperX.VADMethod != "pyannote" {
			return fmt.Errorf("whisperx.vad_method: unsupported method %q (expected silero or pyannote)", c.WhisperX.VADMethod)
		}
		if c.WhisperX.VADMethod == "pyannote" && strings.TrimSpace(c.WhisperX.HFToken) == "" {
			return errors.New("whisperx.hf_token is required when whisperx.vad_method is pyannote")
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
