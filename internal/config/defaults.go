package config

const (
	defaultStagingDir = "~/.local/share/epicenter/staging"
	defaultLibraryDir = "~/transcripts"
	defaultLogDir     = "~/.local/share/epicenter/logs"
	defaultReviewDir  = "~/.local/share/epicenter/review"

	defaultProvider = "openai"

	// Chunking defaults mirror the 25 MiB upload ceiling common to hosted
	// transcription APIs, with a safety margin so multipart overhead never
	// tips a chunk over the limit.
	defaultChunkMaxMB       = 25.0
	defaultChunkSafetyMB    = 2.0
	defaultChunkBitrateKbps = 128
	defaultMinChunkSec      = 30

	// Voice recordings compress well; 64 kbps Opus keeps speech intelligible
	// while shrinking payloads roughly an order of magnitude from WAV.
	defaultCompressionBitrateKbps = 64
	defaultCompressionFormat      = "ogg"

	defaultOpenAIModel     = "whisper-1"
	defaultDeepgramBaseURL = "https://api.deepgram.com"
	defaultDeepgramModel   = "nova-2"
	defaultCloudflareModel = "@cf/openai/whisper"
	defaultWhisperXModel   = "small"
	defaultVADMethod       = "silero"

	defaultNotifyRequestTimeout     = 10
	defaultNotifyDedupWindowSeconds = 600

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

var defaultOutputFormats = []string{"txt", "json"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			ReviewDir:  defaultReviewDir,
		},
		Transcription: Transcription{
			Provider:      defaultProvider,
			OutputFormats: append([]string(nil), defaultOutputFormats...),
		},
		Chunking: Chunking{
			Enabled:     true,
			MaxMB:       defaultChunkMaxMB,
			SafetyMB:    defaultChunkSafetyMB,
			BitrateKbps: defaultChunkBitrateKbps,
			MinChunkSec: defaultMinChunkSec,
			SplitTags:   true,
		},
		Compression: Compression{
			Enabled:     true,
			BitrateKbps: defaultCompressionBitrateKbps,
			Format:      defaultCompressionFormat,
		},
		OpenAI: OpenAI{
			Model: defaultOpenAIModel,
		},
		Deepgram: Deepgram{
			BaseURL: defaultDeepgramBaseURL,
			Model:   defaultDeepgramModel,
		},
		Cloudflare: Cloudflare{
			Model: defaultCloudflareModel,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultVADMethod,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Queue:              true,
			Transcription:      true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
