package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing rolls every in-flight item back to its stage start.
// Called on daemon startup so items interrupted by a crash re-run the stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	for _, transition := range stageRollbackTransitions {
		result, err := s.execWithRetry(ctx, `
			UPDATE queue_items
			SET status = ?, last_heartbeat = NULL, progress_message = 'Recovered after restart', updated_at = ?
			WHERE status = ?`,
			string(transition.to), formatTime(time.Now().UTC()), string(transition.from))
		if err != nil {
			return total, fmt.Errorf("reset %s items: %w", transition.from, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("reset %s items: %w", transition.from, err)
		}
		total += affected
	}
	return total, nil
}

// UpdateHeartbeat records liveness for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := formatTime(time.Now().UTC())
	_, err := s.execWithRetry(ctx,
		"UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?",
		now, now, id)
	if err != nil {
		return fmt.Errorf("update heartbeat for item %d: %w", id, err)
	}
	return nil
}

// ReclaimStaleProcessing rolls back in-flight items whose heartbeat is older
// than the cutoff, so a wedged stage doesn't hold an item forever.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	cutoffStr := formatTime(cutoff)
	for _, transition := range stageRollbackTransitions {
		result, err := s.execWithRetry(ctx, `
			UPDATE queue_items
			SET status = ?, last_heartbeat = NULL, progress_message = 'Reclaimed after stale heartbeat', updated_at = ?
			WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
			string(transition.to), formatTime(time.Now().UTC()), string(transition.from), cutoffStr)
		if err != nil {
			return total, fmt.Errorf("reclaim %s items: %w", transition.from, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("reclaim %s items: %w", transition.from, err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed (and optionally review) items back to pending so
// the pipeline picks them up again. Returns the number of items reset.
func (s *Store) RetryFailed(ctx context.Context, includeReview bool) (int64, error) {
	statuses := []string{string(StatusFailed)}
	if includeReview {
		statuses = append(statuses, string(StatusReview))
	}

	var total int64
	now := formatTime(time.Now().UTC())
	for _, status := range statuses {
		result, err := s.execWithRetry(ctx, `
			UPDATE queue_items
			SET status = ?, error_message = '', progress_stage = '', progress_percent = 0,
				progress_message = '', needs_review = 0, review_reason = '',
				last_heartbeat = NULL, updated_at = ?
			WHERE status = ?`,
			string(StatusPending), now, status)
		if err != nil {
			return total, fmt.Errorf("retry %s items: %w", status, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("retry %s items: %w", status, err)
		}
		total += affected
	}
	return total, nil
}

// RetryItem resets a single failed or review item to pending.
func (s *Store) RetryItem(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("retry item %d: not found", id)
	}
	if item.Status != StatusFailed && item.Status != StatusReview {
		return fmt.Errorf("retry item %d: status %s is not retryable", id, item.Status)
	}

	item.Status = StatusPending
	item.ErrorMessage = ""
	item.ProgressStage = ""
	item.ProgressPercent = 0
	item.ProgressMessage = ""
	item.NeedsReview = false
	item.ReviewReason = ""
	item.LastHeartbeat = nil
	return s.Update(ctx, item)
}
