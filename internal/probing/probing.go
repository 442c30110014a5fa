// Package probing inspects newly queued audio with ffprobe and records the
// duration, size, and language metadata later stages depend on.
package probing

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/language"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/media/ffprobe"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
)

// Prober validates queued audio files and captures their media metadata.
type Prober struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewProber constructs the probing stage handler.
func NewProber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Prober {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "prober"))
	}
	return &Prober{cfg: cfg, store: store, logger: stageLogger, inspect: ffprobe.Inspect}
}

// WithInspector overrides the ffprobe invocation (used in tests).
func (p *Prober) WithInspector(inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	p.inspect = inspect
}

func (p *Prober) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Probing", "Inspecting audio file")
	logger.Info("starting probe", logging.String("source", item.SourcePath))
	return nil
}

func (p *Prober) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation, "probing", "validate inputs",
			"Queue item has no source path", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrNotFound, "probing", "stat source",
			"Audio file missing or unreadable; it may have been moved since it was queued", err)
	}

	result, err := p.inspect(ctx, p.cfg.FFprobeBinary(), source)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "probing", "ffprobe",
			"ffprobe failed to inspect the file", err)
	}
	if result.AudioStreamCount() == 0 {
		return services.Wrap(
			services.ErrValidation, "probing", "validate streams",
			"File contains no audio stream", nil)
	}

	item.ProbeJSON = string(result.RawJSON())
	if item.Title == "" {
		base := filepath.Base(source)
		item.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if item.Language == "" {
		if audio := result.FirstAudioStream(); audio != nil {
			item.Language = language.FromTags(audio.Tags)
		}
	}

	item.Status = queue.StatusProbed
	item.SetProgressComplete("Probed", "Audio metadata captured")
	logger.Info(
		"probe completed",
		logging.Float64("duration_sec", result.DurationSeconds()),
		logging.Int64("size_bytes", result.SizeBytes()),
		logging.String("language", item.Language),
	)
	return nil
}

func (p *Prober) HealthCheck(ctx context.Context) stage.Health {
	const name = "prober"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if _, err := exec.LookPath(p.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, "ffprobe binary not found")
	}
	return stage.Healthy(name)
}
