// Package transcriber routes prepared audio to the configured speech-to-text
// provider, uploading the whole file or chunk by chunk per the stored plan.
package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/chunking"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/media/audioconv"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/notifications"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

// Transcriber sends prepared audio through a transcription provider.
type Transcriber struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	provider transcription.Provider
	notifier notifications.Service
	extract  func(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error

	mu        sync.Mutex
	overrides map[string]transcription.Provider
}

// NewTranscriber constructs the transcribing stage handler using the
// configured provider.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Transcriber, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewTranscriberWithDependencies(cfg, store, logger, provider, notifications.NewService(cfg)), nil
}

// NewTranscriberWithDependencies allows injecting collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, provider transcription.Provider, notifier notifications.Service) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transcriber"))
	}
	return &Transcriber{
		cfg:       cfg,
		store:     store,
		logger:    stageLogger,
		provider:  provider,
		notifier:  notifier,
		extract:   audioconv.ExtractSegment,
		overrides: make(map[string]transcription.Provider),
	}
}

// providerFor resolves the provider an item should use. Items without a
// recorded provider, or whose provider matches the configured default, use
// the default instance; overrides are built once and cached.
func (t *Transcriber) providerFor(item *queue.Item) (transcription.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(item.Provider))
	if name == "" || name == t.provider.Name() {
		return t.provider, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if provider, ok := t.overrides[name]; ok {
		return provider, nil
	}
	provider, err := NamedProvider(t.cfg, name)
	if err != nil {
		return nil, err
	}
	t.overrides[name] = provider
	return provider, nil
}

// WithExtractor overrides the ffmpeg segment extraction call (used in tests).
func (t *Transcriber) WithExtractor(extract func(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error) {
	t.extract = extract
}

// Provider exposes the active provider for workflow wiring.
func (t *Transcriber) Provider() transcription.Provider {
	return t.provider
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	provider, err := t.providerFor(item)
	if err != nil {
		return err
	}
	item.InitProgress("Transcribing", "Sending audio to "+provider.Name())
	logger.Info(
		"starting transcription",
		logging.String("provider", provider.Name()),
		logging.String("prepared_file", item.PreparedFile),
	)
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	provider, err := t.providerFor(item)
	if err != nil {
		return err
	}
	ctx = services.WithProvider(ctx, provider.Name())
	logger := logging.WithContext(ctx, t.logger)

	source := strings.TrimSpace(item.PreparedFile)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "transcribing", "validate inputs",
			"No prepared file present; rerun preparation", nil)
	}
	chunks, err := stage.ParseChunkPlan(item.ChunkPlanJSON)
	if err != nil {
		return err
	}

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionStarted(ctx, item.Title, provider.Name()); err != nil {
			logger.Warn("start notification failed", logging.Error(err))
		}
	}

	var (
		text     string
		segments []transcription.Segment
	)
	if len(chunks) <= 1 {
		text, segments, err = t.transcribeWhole(ctx, provider, item, source)
	} else {
		text, segments, err = t.transcribeChunks(ctx, provider, item, source, chunks)
	}
	if err != nil {
		return err
	}

	item.TranscriptText = text
	item.SegmentsJSON = encodeSegments(segments)
	item.Status = queue.StatusTranscribed
	item.SetProgressComplete("Transcribed", fmt.Sprintf("Transcript ready (%d chunks)", len(chunks)))
	logger.Info(
		"transcription completed",
		logging.Int("chunks", len(chunks)),
		logging.Int("transcript_chars", len(text)),
	)

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionCompleted(ctx, item.Title, len(chunks)); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (t *Transcriber) transcribeWhole(ctx context.Context, provider transcription.Provider, item *queue.Item, source string) (string, []transcription.Segment, error) {
	result, err := provider.Transcribe(ctx, transcription.Request{
		AudioPath: source,
		Language:  item.Language,
		Prompt:    t.cfg.Transcription.Prompt,
	})
	if err != nil {
		return "", nil, err
	}
	if result.Language != "" && item.Language == "" {
		item.Language = result.Language
	}
	return result.Text, result.Segments, nil
}

// transcribeChunks cuts each planned segment out of the prepared file and
// uploads them in order. Any chunk failure aborts the item; a partial
// transcript is worse than a retryable failure.
func (t *Transcriber) transcribeChunks(ctx context.Context, provider transcription.Provider, item *queue.Item, source string, chunks []chunking.Chunk) (string, []transcription.Segment, error) {
	logger := logging.WithContext(ctx, t.logger)

	workDir := filepath.Join(t.cfg.Paths.StagingDir, fmt.Sprintf("item-%d", item.ID), "chunks")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", nil, services.Wrap(
			services.ErrConfiguration, "transcribing", "ensure chunk dir",
			"Failed to create chunk working directory", err)
	}
	defer os.RemoveAll(workDir)

	ext := filepath.Ext(source)
	if ext == "" {
		ext = ".ogg"
	}

	texts := make([]string, 0, len(chunks))
	var segments []transcription.Segment
	for i, chunk := range chunks {
		percent := float64(i) / float64(len(chunks)) * 100
		item.SetProgress("Transcribing", fmt.Sprintf("Chunk %d of %d", chunk.Index, len(chunks)), percent)
		if err := t.store.Update(ctx, item); err != nil {
			logger.Warn("failed to persist chunk progress", logging.Error(err))
		}

		segmentPath := filepath.Join(workDir, fmt.Sprintf("chunk-%03d%s", chunk.Index, ext))
		if err := t.extract(ctx, t.cfg.FFmpegBinary(), source, chunk.StartSec, chunk.DurationSec(), segmentPath); err != nil {
			return "", nil, services.Wrap(
				services.ErrExternalTool, "transcribing", "extract chunk",
				fmt.Sprintf("Failed to extract chunk %d", chunk.Index), err)
		}

		result, err := provider.Transcribe(ctx, transcription.Request{
			AudioPath: segmentPath,
			Language:  item.Language,
			Prompt:    t.cfg.Transcription.Prompt,
		})
		if err != nil {
			return "", nil, services.Wrap(
				services.ErrProvider, "transcribing", "transcribe chunk",
				fmt.Sprintf("Chunk %d of %d failed", chunk.Index, len(chunks)), err)
		}
		if result.Language != "" && item.Language == "" {
			item.Language = result.Language
		}
		texts = append(texts, result.Text)
		for _, segment := range result.Segments {
			segment.StartSec += chunk.StartSec
			segment.EndSec += chunk.StartSec
			segments = append(segments, segment)
		}
		_ = os.Remove(segmentPath)
	}

	return chunking.Merge(chunks, texts, t.cfg.Chunking.SplitTags), segments, nil
}

// encodeSegments serializes provider segments for storage. Providers that
// return no timing information yield an empty string.
func encodeSegments(segments []transcription.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return ""
	}
	return string(data)
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.provider == nil {
		return stage.Unhealthy(name, "no transcription provider configured")
	}
	if err := t.provider.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
