package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/fileutil"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	if resolved == queue.StatusReview {
		item.Status = queue.StatusReview
		item.NeedsReview = true
		item.ReviewReason = message
		item.ErrorMessage = message
		item.ProgressMessage = message
		item.LastHeartbeat = nil
		if copied, err := m.preserveReviewArtifact(item); err != nil {
			logger.Warn("could not preserve review artifact", logging.Error(err))
		} else if copied != "" {
			logger.Info("review artifact preserved", logging.String("path", copied))
		}
	} else {
		item.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	if m.notifier != nil {
		var notifyErr error
		if resolved == queue.StatusReview {
			notifyErr = m.notifier.NotifyReviewRequired(ctx, item.Title, message)
		} else {
			notifyErr = m.notifier.NotifyError(ctx, stageErr, fmt.Sprintf("%s (item #%d)", stageName, item.ID))
		}
		if notifyErr != nil && !errors.Is(notifyErr, context.Canceled) {
			logger.Debug("stage failure notification failed", logging.Error(notifyErr))
		}
	}
	m.checkQueueCompletion(ctx)
}

// preserveReviewArtifact copies the audio an item was working from into the
// review directory so it survives staging cleanup. Returns the destination
// path, or empty when nothing needed copying.
func (m *Manager) preserveReviewArtifact(item *queue.Item) (string, error) {
	reviewDir := strings.TrimSpace(m.cfg.Paths.ReviewDir)
	if reviewDir == "" {
		return "", nil
	}
	src := strings.TrimSpace(item.PreparedFile)
	if src == "" {
		src = strings.TrimSpace(item.SourcePath)
	}
	if src == "" {
		return "", nil
	}
	if _, err := os.Stat(src); err != nil {
		return "", nil
	}
	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(reviewDir, fmt.Sprintf("item-%d-%s", item.ID, filepath.Base(src)))
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func classifyStageFailure(stageName string, stageErr error) string {
	message := ""
	if stageErr != nil {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		if stageName == "" {
			stageName = "workflow"
		}
		message = fmt.Sprintf("%s failed without error detail", stageName)
	}
	return message
}
