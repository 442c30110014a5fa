package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeCompression()
	c.normalizeProviders()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReviewDir, err = expandPath(c.Paths.ReviewDir); err != nil {
		return fmt.Errorf("paths.review_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
			return fmt.Errorf("paths.watch_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaultProvider
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if len(c.Transcription.OutputFormats) == 0 {
		c.Transcription.OutputFormats = append([]string(nil), defaultOutputFormats...)
	}
	formats := make([]string, 0, len(c.Transcription.OutputFormats))
	seen := make(map[string]struct{}, len(c.Transcription.OutputFormats))
	for _, format := range c.Transcription.OutputFormats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		if _, ok := seen[format]; ok {
			continue
		}
		seen[format] = struct{}{}
		formats = append(formats, format)
	}
	c.Transcription.OutputFormats = formats
}

func (c *Config) normalizeCompression() {
	c.Compression.Format = strings.ToLower(strings.TrimSpace(c.Compression.Format))
	if c.Compression.Format == "" {
		c.Compression.Format = defaultCompressionFormat
	}
	if c.Compression.BitrateKbps <= 0 {
		c.Compression.BitrateKbps = defaultCompressionBitrateKbps
	}
}

func (c *Config) normalizeProviders() {
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if strings.TrimSpace(c.OpenAI.Model) == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}

	if c.Deepgram.APIKey == "" {
		if value, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
			c.Deepgram.APIKey = strings.TrimSpace(value)
		}
	}
	c.Deepgram.BaseURL = strings.TrimSpace(c.Deepgram.BaseURL)
	if c.Deepgram.BaseURL == "" {
		c.Deepgram.BaseURL = defaultDeepgramBaseURL
	}
	if strings.TrimSpace(c.Deepgram.Model) == "" {
		c.Deepgram.Model = defaultDeepgramModel
	}

	if c.Cloudflare.AccountID == "" {
		if value, ok := os.LookupEnv("CF_ACCOUNT_ID"); ok {
			c.Cloudflare.AccountID = strings.TrimSpace(value)
		}
	}
	if c.Cloudflare.APIToken == "" {
		if value, ok := os.LookupEnv("CF_API_TOKEN"); ok {
			c.Cloudflare.APIToken = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Cloudflare.Model) == "" {
		c.Cloudflare.Model = defaultCloudflareModel
	}

	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultVADMethod
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.WhisperX.Model) == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.DedupWindowSeconds <= 0 {
		c.Notifications.DedupWindowSeconds = defaultNotifyDedupWindowSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
