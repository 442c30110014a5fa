package transcriber

import (
	"fmt"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services/cloudflare"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services/deepgram"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services/openai"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services/whisperx"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

// NewProvider builds the transcription provider named in configuration.
func NewProvider(cfg *config.Config) (transcription.Provider, error) {
	return NamedProvider(cfg, cfg.Transcription.Provider)
}

// NamedProvider builds the provider with the given name using the credentials
// from configuration. Queue items carry a provider name so a per-invocation
// override survives daemon restarts.
func NamedProvider(cfg *config.Config, name string) (transcription.Provider, error) {
	switch name {
	case "openai":
		return openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	case "deepgram":
		client, err := deepgram.NewClient(cfg.Deepgram.APIKey, cfg.Deepgram.Model)
		if err != nil {
			return nil, err
		}
		if base := cfg.Deepgram.BaseURL; base != "" {
			client, err = deepgram.NewClient(cfg.Deepgram.APIKey, cfg.Deepgram.Model, deepgram.WithBaseURL(base))
			if err != nil {
				return nil, err
			}
		}
		return client, nil
	case "cloudflare":
		return cloudflare.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken, cfg.Cloudflare.Model)
	case "whisperx":
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
		}), nil
	default:
		return nil, services.Wrap(
			services.ErrConfiguration, "transcribing", "select provider",
			fmt.Sprintf("Unknown transcription provider %q", name), nil)
	}
}
