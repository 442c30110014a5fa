package deps

import "github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"

// ForConfig builds the requirement list for the active configuration.
// FFprobe is always required for probing; FFmpeg is required when compression
// or chunk splitting can run; uvx is required only for the whisperx provider.
func ForConfig(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Inspects audio duration, size, and streams",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Compresses audio and extracts chunk segments",
			Optional:    !cfg.Compression.Enabled && !cfg.Chunking.Enabled,
		},
	}
	if cfg.Transcription.Provider == "whisperx" {
		requirements = append(requirements, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Runs WhisperX for local transcription",
		})
	}
	return requirements
}

// MissingRequired returns the names of required dependencies that are not available.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
