// Package export writes finished transcripts into the library directory in
// the configured output formats and closes out the queue item.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/notifications"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/textutil"
)

// Document is the JSON export shape.
type Document struct {
	Title      string    `json:"title"`
	SourcePath string    `json:"source_path"`
	Provider   string    `json:"provider"`
	Language   string    `json:"language,omitempty"`
	Chunks     int       `json:"chunks"`
	CreatedAt  time.Time `json:"created_at"`
	Text       string    `json:"text"`
}

// Exporter persists transcripts to the library directory.
type Exporter struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service
}

// NewExporter constructs the export stage handler.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Exporter {
	return NewExporterWithDependencies(cfg, store, logger, notifications.NewService(cfg))
}

// NewExporterWithDependencies allows injecting collaborators (used in tests).
func NewExporterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Exporter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "exporter"))
	}
	return &Exporter{cfg: cfg, store: store, logger: stageLogger, notifier: notifier}
}

func (e *Exporter) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Exporting", "Writing transcript files")
	logger.Info("starting export", logging.String("title", item.Title))
	return nil
}

func (e *Exporter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	if strings.TrimSpace(item.TranscriptText) == "" {
		return services.Wrap(
			services.ErrValidation, "exporting", "validate inputs",
			"No transcript present; run transcription before exporting", nil)
	}
	libraryDir := strings.TrimSpace(e.cfg.Paths.LibraryDir)
	if libraryDir == "" {
		return services.Wrap(
			services.ErrConfiguration, "exporting", "resolve library dir",
			"Library directory not configured; set paths.library_dir", nil)
	}
	if err := os.MkdirAll(libraryDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "exporting", "ensure library dir",
			"Failed to create library directory", err)
	}

	baseName := exportBaseName(item)
	formats := e.cfg.Transcription.OutputFormats
	if len(formats) == 0 {
		formats = []string{"txt"}
	}

	var primary string
	for i, format := range formats {
		percent := float64(i) / float64(len(formats)) * 100
		item.SetProgress("Exporting", "Writing "+format, percent)

		target, err := nextExportPath(libraryDir, baseName, "."+format)
		if err != nil {
			return services.Wrap(services.ErrTransient, "exporting", "allocate filename", "Unable to allocate transcript filename", err)
		}
		switch format {
		case "txt":
			err = os.WriteFile(target, []byte(item.TranscriptText+"\n"), 0o644)
		case "json":
			err = e.writeJSON(target, item)
		case "srt":
			if strings.TrimSpace(item.SegmentsJSON) == "" {
				logger.Warn("skipping srt output: provider returned no timed segments",
					logging.String("provider", item.Provider))
				continue
			}
			err = writeSRT(target, item.SegmentsJSON)
		default:
			logger.Warn("skipping unknown output format", logging.String("format", format))
			continue
		}
		if err != nil {
			return services.Wrap(services.ErrTransient, "exporting", "write transcript", "Failed to write transcript file", err)
		}
		if primary == "" || format == "txt" {
			primary = target
		}
		logger.Info("transcript written", logging.String("file", target))
	}

	if primary == "" {
		// Every configured format was skipped; a completed item must still
		// leave a transcript behind.
		target, err := nextExportPath(libraryDir, baseName, ".txt")
		if err != nil {
			return services.Wrap(services.ErrTransient, "exporting", "allocate filename", "Unable to allocate transcript filename", err)
		}
		if err := os.WriteFile(target, []byte(item.TranscriptText+"\n"), 0o644); err != nil {
			return services.Wrap(services.ErrTransient, "exporting", "write transcript", "Failed to write transcript file", err)
		}
		primary = target
		logger.Info("transcript written", logging.String("file", target))
	}

	item.TranscriptFile = primary
	item.Status = queue.StatusCompleted
	item.SetProgressComplete("Completed", fmt.Sprintf("Transcript available: %s", filepath.Base(primary)))

	e.cleanStaging(item, logger)

	if e.notifier != nil {
		if err := e.notifier.NotifyExportCompleted(ctx, item.Title, primary); err != nil {
			logger.Warn("export notification failed", logging.Error(err))
		}
	}
	logger.Info("export completed", logging.String("transcript_file", primary))
	return nil
}

// cleanStaging removes the item's staging work directory once the transcript
// is safely in the library. Failure to clean is not a failure of the item.
func (e *Exporter) cleanStaging(item *queue.Item, logger *slog.Logger) {
	stagingDir := strings.TrimSpace(e.cfg.Paths.StagingDir)
	if stagingDir == "" {
		return
	}
	workDir := filepath.Join(stagingDir, fmt.Sprintf("item-%d", item.ID))
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("failed to clean staging directory",
			logging.String("dir", workDir), logging.Error(err))
	}
}

func (e *Exporter) writeJSON(target string, item *queue.Item) error {
	chunkCount := 1
	if chunks, err := stage.ParseChunkPlan(item.ChunkPlanJSON); err == nil {
		chunkCount = len(chunks)
	}
	doc := Document{
		Title:      item.Title,
		SourcePath: item.SourcePath,
		Provider:   item.Provider,
		Language:   item.Language,
		Chunks:     chunkCount,
		CreatedAt:  time.Now().UTC(),
		Text:       item.TranscriptText,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(target, append(data, '\n'), 0o644)
}

func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "exporter"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	return stage.Healthy(name)
}

func exportBaseName(item *queue.Item) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		base := filepath.Base(item.SourcePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if title == "" {
		title = fmt.Sprintf("transcript-%d", item.ID)
	}
	cleaned := textutil.SanitizeFileName(title)
	if cleaned == "" {
		return "transcript"
	}
	return cleaned
}

// nextExportPath returns the first non-existing path for base+ext, suffixing
// -2, -3, ... when earlier exports already claimed the name.
func nextExportPath(dir, base, ext string) (string, error) {
	candidate := filepath.Join(dir, base+ext)
	for counter := 2; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		if counter > 1000 {
			return "", fmt.Errorf("no free filename for %s%s", base, ext)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, counter, ext))
	}
}
