// Package daemonrun wires the full daemon process: logger, queue store,
// pipeline stages, workflow manager, IPC server, and signal handling. The
// CLI's hidden `daemon` command is its only caller.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/daemon"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/deps"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/export"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/ipc"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/preparation"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/probing"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/textutil"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcriber"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	SocketPath string
}

// Run starts the epicenter daemon runtime loop and blocks until the context
// is cancelled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := buildLogger(cfg, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "epicenter.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	workflowManager := workflow.NewManager(cfg, store, logger)
	if err := registerStages(workflowManager, cfg, store, logger); err != nil {
		return err
	}

	d, err := daemon.New(cfg, store, logger, workflowManager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("epicenter daemon shutting down")
	return nil
}

func buildLogger(cfg *config.Config, level string) (*slog.Logger, error) {
	if strings.TrimSpace(level) == "" {
		return logging.NewFromConfig(cfg)
	}

	outputPaths := []string{"stdout"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		outputPaths = append(outputPaths, filepath.Join(dir, "epicenter.log"))
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputPaths,
	})
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) error {
	transcribeStage, err := transcriber.NewTranscriber(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("build transcriber: %w", err)
	}

	prepareStage := preparation.NewPreparer(cfg, store, logger, transcribeStage.Provider())
	prepareStage.WithLimiterResolver(func(name string) (preparation.UploadLimiter, error) {
		return transcriber.NamedProvider(cfg, name)
	})

	mgr.ConfigureStages(workflow.StageSet{
		Prober:      probing.NewProber(cfg, store, logger),
		Preparer:    prepareStage,
		Transcriber: transcribeStage,
		Exporter:    export.NewExporter(cfg, store, logger),
	})
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.CheckBinaries(deps.ForConfig(cfg))
	attrs := make([]logging.Attr, 0, len(statuses)+2)
	attrs = append(attrs,
		logging.String("provider", cfg.Transcription.Provider),
		logging.Bool("watch_dir_configured", strings.TrimSpace(cfg.Paths.WatchDir) != ""),
	)
	for _, status := range statuses {
		key := textutil.SanitizeToken(status.Name) + "_available"
		attrs = append(attrs, logging.Bool(key, status.Available))
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger.Info("dependency snapshot", args...)
}
