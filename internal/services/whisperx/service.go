// Package whisperx runs WhisperX locally through uvx for offline
// transcription. It has no upload limit, so prepared files are never chunked.
package whisperx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "github.com/Leshadowx/epicenter-AlvaroRemix/internal/language"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

// Config captures runtime settings for WhisperX runs.
type Config struct {
	// Model is the WhisperX model to use (e.g. "large-v3-turbo").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// WorkDir receives WhisperX output files; a temp dir is used when empty.
	WorkDir string
}

// WhisperX invocation constants.
const (
	DefaultModel      = "small"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	uvxCommand = "uvx"
)

// Service runs WhisperX via uvx and implements transcription.Provider.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Name identifies this provider in configuration and logs.
func (s *Service) Name() string { return "whisperx" }

// UploadLimitBytes is 0: local transcription has no payload cap.
func (s *Service) UploadLimitBytes() int64 { return 0 }

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// HealthCheck verifies the uvx binary is resolvable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(uvxCommand); err != nil {
		return services.Wrap(
			services.ErrExternalTool, "whisperx", "health check",
			"uvx binary not found; install uv to use the whisperx provider", err)
	}
	return nil
}

// Transcribe runs WhisperX against one audio file and loads the JSON output.
func (s *Service) Transcribe(ctx context.Context, req transcription.Request) (transcription.Result, error) {
	var empty transcription.Result
	source := strings.TrimSpace(req.AudioPath)
	if source == "" {
		return empty, services.Wrap(
			services.ErrValidation, "whisperx", "transcribe",
			"Audio path required", nil)
	}

	outputDir := s.cfg.WorkDir
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "whisperx-")
		if err != nil {
			return empty, fmt.Errorf("whisperx: temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		outputDir = dir
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return empty, fmt.Errorf("whisperx: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir, req.Language)
	if err := s.run(ctx, uvxCommand, args...); err != nil {
		return empty, services.Wrap(
			services.ErrExternalTool, "whisperx", "transcribe",
			"WhisperX run failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return empty, services.Wrap(
			services.ErrExternalTool, "whisperx", "transcribe",
			"WhisperX produced no readable output", err)
	}

	result := transcription.Result{Language: req.Language}
	var parts []string
	for _, seg := range segments {
		text := transcription.CleanText(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		result.Segments = append(result.Segments, transcription.Segment{
			StartSec: seg.Start,
			EndSec:   seg.End,
			Text:     text,
		})
	}
	result.Text = strings.Join(parts, " ")
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	// Force legacy behavior so bundled WhisperX binaries can load checkpoints safely.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := langpkg.Normalize(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}
