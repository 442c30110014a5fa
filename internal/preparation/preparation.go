// Package preparation readies probed audio for upload: optional compression
// into a smaller codec, then a chunk plan sized to the provider's limits.
package preparation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/chunking"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/media/audioconv"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/media/ffprobe"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
)

// UploadLimiter reports a provider's payload cap; 0 means unlimited.
type UploadLimiter interface {
	UploadLimitBytes() int64
}

// LimiterResolver builds the limiter for a named provider, used when an
// item records a provider other than the configured default.
type LimiterResolver func(name string) (UploadLimiter, error)

// Preparer compresses probed audio and computes its chunk plan.
type Preparer struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	limiter  UploadLimiter
	resolve  LimiterResolver
	compress func(ctx context.Context, ffmpegBinary, source, dest string, bitrateKbps int) error

	mu       sync.Mutex
	limiters map[string]UploadLimiter
}

// NewPreparer constructs the preparation stage handler. The limiter comes
// from the default transcription provider.
func NewPreparer(cfg *config.Config, store *queue.Store, logger *slog.Logger, limiter UploadLimiter) *Preparer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "preparer"))
	}
	return &Preparer{
		cfg:      cfg,
		store:    store,
		logger:   stageLogger,
		limiter:  limiter,
		compress: audioconv.Compress,
		limiters: make(map[string]UploadLimiter),
	}
}

// WithCompressor overrides the ffmpeg compression call (used in tests).
func (p *Preparer) WithCompressor(compress func(ctx context.Context, ffmpegBinary, source, dest string, bitrateKbps int) error) {
	p.compress = compress
}

// WithLimiterResolver installs the resolver for per-item provider overrides.
func (p *Preparer) WithLimiterResolver(resolve LimiterResolver) {
	p.resolve = resolve
}

// limiterFor resolves the upload limiter for an item. Items without a
// recorded provider, or whose provider matches the configured default, use
// the default limiter; overrides are built once and cached.
func (p *Preparer) limiterFor(item *queue.Item) (UploadLimiter, error) {
	name := strings.ToLower(strings.TrimSpace(item.Provider))
	if name == "" || name == strings.ToLower(strings.TrimSpace(p.cfg.Transcription.Provider)) || p.resolve == nil {
		return p.limiter, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if limiter, ok := p.limiters[name]; ok {
		return limiter, nil
	}
	limiter, err := p.resolve(name)
	if err != nil {
		return nil, err
	}
	p.limiters[name] = limiter
	return limiter, nil
}

func (p *Preparer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Preparing", "Preparing audio for transcription")
	logger.Info("starting preparation", logging.String("source", item.SourcePath))
	return nil
}

func (p *Preparer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	probe, err := ffprobe.Parse([]byte(item.ProbeJSON))
	if err != nil {
		return services.Wrap(
			services.ErrValidation, "preparing", "parse probe",
			"Probe metadata missing or invalid; rerun probing", err)
	}

	limiter, err := p.limiterFor(item)
	if err != nil {
		return services.Wrap(
			services.ErrConfiguration, "preparing", "resolve provider",
			fmt.Sprintf("Provider %q is not configured", item.Provider), err)
	}
	limit := int64(0)
	if limiter != nil {
		limit = limiter.UploadLimitBytes()
	}
	opts := chunking.OptionsFromConfig(p.cfg.Chunking).ClampToLimit(limit)

	workDir := filepath.Join(p.cfg.Paths.StagingDir, fmt.Sprintf("item-%d", item.ID))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "preparing", "ensure staging dir",
			"Failed to create staging directory", err)
	}

	prepared := item.SourcePath
	sizeBytes := probe.SizeBytes()
	durationSec := probe.DurationSeconds()

	// Compression only runs when the payload actually exceeds the provider's
	// budget; audio that already fits uploads as-is. Providers with no upload
	// limit never need the payload shrunk.
	if p.cfg.Compression.Enabled && limit > 0 && sizeBytes > opts.BudgetBytes() {
		item.SetProgress("Preparing", "Compressing audio", 20)
		dest := filepath.Join(workDir, "audio."+compressionExt(p.cfg.Compression.Format))
		if err := p.compress(ctx, p.cfg.FFmpegBinary(), item.SourcePath, dest, p.cfg.Compression.BitrateKbps); err != nil {
			// Compression is an optimization; the chunk planner can still
			// split the original, so continue with the source file.
			logger.Warn("compression failed, continuing with original audio", logging.Error(err))
		} else if info, statErr := os.Stat(dest); statErr == nil {
			prepared = dest
			sizeBytes = info.Size()
			logger.Info(
				"audio compressed",
				logging.String("prepared_file", dest),
				logging.Int64("size_bytes", sizeBytes),
			)
		}
	}

	item.SetProgress("Preparing", "Planning chunks", 70)
	plan := planChunks(opts, limit, sizeBytes, durationSec)
	encoded, err := stage.EncodeChunkPlan(plan)
	if err != nil {
		return services.Wrap(services.ErrTransient, "preparing", "encode chunk plan", "Failed to encode chunk plan", err)
	}

	item.PreparedFile = prepared
	item.ChunkPlanJSON = encoded
	item.Status = queue.StatusPrepared
	message := "Single upload"
	if len(plan) > 1 {
		message = fmt.Sprintf("Split into %d chunks", len(plan))
	}
	item.SetProgressComplete("Prepared", message)
	logger.Info(
		"preparation completed",
		logging.String("prepared_file", prepared),
		logging.Int("chunks", len(plan)),
	)
	return nil
}

// planChunks sizes the chunk plan from the options already clamped to the
// item's provider limit. A provider with no limit never splits.
func planChunks(opts chunking.Options, limit, sizeBytes int64, durationSec float64) []chunking.Chunk {
	if !opts.Enabled || limit == 0 {
		return chunking.SingleChunk(durationSec)
	}
	return opts.Plan(sizeBytes, durationSec)
}

func (p *Preparer) HealthCheck(ctx context.Context) stage.Health {
	const name = "preparer"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(p.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	if p.cfg.Compression.Enabled || p.cfg.Chunking.Enabled {
		if _, err := exec.LookPath(p.cfg.FFmpegBinary()); err != nil {
			return stage.Unhealthy(name, "ffmpeg binary not found")
		}
	}
	return stage.Healthy(name)
}

func compressionExt(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "mp3", "m4a", "ogg", "opus":
		return format
	default:
		return "ogg"
	}
}
