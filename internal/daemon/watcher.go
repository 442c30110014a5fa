package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/notifications"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
)

// audioExtensions lists the container formats the pipeline accepts. Video
// containers are included because ffmpeg extracts their audio track during
// preparation.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".aac":  {},
	".flac": {},
	".ogg":  {},
	".opus": {},
	".wma":  {},
	".webm": {},
	".mp4":  {},
	".mov":  {},
	".mkv":  {},
}

// IsAudioFile reports whether the path has a supported audio extension.
func IsAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// settleInterval is how long a watched file must stop growing before it is
// considered fully copied and safe to enqueue.
const settleInterval = 500 * time.Millisecond

// Watcher ingests audio files dropped into the configured watch directory.
type Watcher struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service
	fs       *fsnotify.Watcher
	settle   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over cfg.Paths.WatchDir.
func NewWatcher(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) (*Watcher, error) {
	dir := strings.TrimSpace(cfg.Paths.WatchDir)
	if dir == "" {
		return nil, errors.New("watch directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}

	return &Watcher{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "watcher")),
		notifier: notifier,
		fs:       fs,
		settle:   settleInterval,
	}, nil
}

// Start begins processing filesystem events. Files already present in the
// watch directory are picked up once at startup.
func (w *Watcher) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.ingestExisting(runCtx)
		w.run(runCtx)
	}()
}

// Stop shuts down event processing and waits for in-flight ingestion.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	_ = w.fs.Close()
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !IsAudioFile(event.Name) {
				continue
			}
			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				w.ingestWhenSettled(ctx, path)
			}(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// ingestExisting enqueues audio files that were already sitting in the watch
// directory when the daemon started.
func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.Paths.WatchDir)
	if err != nil {
		w.logger.Warn("failed to scan watch directory", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.Paths.WatchDir, entry.Name())
		if !IsAudioFile(path) {
			continue
		}
		w.enqueue(ctx, path)
	}
}

// ingestWhenSettled waits until the file stops growing, then enqueues it.
// Copies into the watch directory fire a create event long before the bytes
// finish arriving.
func (w *Watcher) ingestWhenSettled(ctx context.Context, path string) {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.settle):
		}
		info, err := os.Stat(path)
		if err != nil {
			// File vanished before it settled.
			return
		}
		if info.Size() == lastSize {
			break
		}
		lastSize = info.Size()
	}
	w.enqueue(ctx, path)
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	item, err := EnqueueFile(ctx, w.store, w.cfg, path, "", "", "")
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Debug("skipping watched file", logging.String("path", path), logging.Error(err))
		return
	}
	w.logger.Info("watched file queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source", item.SourcePath))
	if w.notifier != nil {
		if err := w.notifier.NotifyFileDetected(ctx, item.Title); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Debug("file detected notification failed", logging.Error(err))
		}
	}
}
