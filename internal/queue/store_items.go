package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = `id, source_path, title, provider, language, status, error_message,
	created_at, updated_at, probe_json, prepared_file, chunk_plan_json,
	transcript_text, segments_json, transcript_file, progress_stage, progress_percent,
	progress_message, last_heartbeat, needs_review, review_reason`

// NewFile inserts a pending queue item for the given audio file.
func (s *Store) NewFile(ctx context.Context, sourcePath, title, provider, language string) (*Item, error) {
	now := time.Now().UTC()
	item := &Item{
		SourcePath: sourcePath,
		Title:      title,
		Provider:   provider,
		Language:   language,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	result, err := s.execWithRetry(ctx, `
		INSERT INTO queue_items (source_path, title, provider, language, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.SourcePath, item.Title, item.Provider, item.Language,
		string(item.Status), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}
	item.ID = id
	return item, nil
}

// GetByID returns the item with the given id, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM queue_items WHERE id = ?", itemColumns)
	var item Item
	err := retryOnBusy(ctx, func() error {
		return scanItem(s.db.QueryRowContext(ctx, query, id), &item)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item %d: %w", id, err)
	}
	return &item, nil
}

// FindBySourcePath returns the most recent item for a source file, or nil.
func (s *Store) FindBySourcePath(ctx context.Context, sourcePath string) (*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM queue_items WHERE source_path = ? ORDER BY id DESC LIMIT 1", itemColumns)
	var item Item
	err := retryOnBusy(ctx, func() error {
		return scanItem(s.db.QueryRowContext(ctx, query, sourcePath), &item)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find queue item by source: %w", err)
	}
	return &item, nil
}

// Update persists all mutable fields of an item and bumps updated_at.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return fmt.Errorf("update queue item: item is nil")
	}
	item.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(ctx, `
		UPDATE queue_items SET
			source_path = ?, title = ?, provider = ?, language = ?, status = ?,
			error_message = ?, updated_at = ?, probe_json = ?, prepared_file = ?,
			chunk_plan_json = ?, transcript_text = ?, segments_json = ?, transcript_file = ?,
			progress_stage = ?, progress_percent = ?, progress_message = ?,
			last_heartbeat = ?, needs_review = ?, review_reason = ?
		WHERE id = ?`,
		item.SourcePath, item.Title, item.Provider, item.Language, string(item.Status),
		item.ErrorMessage, formatTime(item.UpdatedAt), item.ProbeJSON, item.PreparedFile,
		item.ChunkPlanJSON, item.TranscriptText, item.SegmentsJSON, item.TranscriptFile,
		item.ProgressStage, item.ProgressPercent, item.ProgressMessage,
		formatNullableTime(item.LastHeartbeat), boolToInt(item.NeedsReview), item.ReviewReason,
		item.ID)
	if err != nil {
		return fmt.Errorf("update queue item %d: %w", item.ID, err)
	}
	return nil
}

// List returns items, optionally filtered to the given statuses, ordered by id.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := fmt.Sprintf("SELECT %s FROM queue_items", itemColumns)
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY id ASC"

	var items []*Item
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		items = items[:0]
		for rows.Next() {
			var item Item
			if err := scanItem(rows, &item); err != nil {
				return err
			}
			items = append(items, &item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

// NextForStatuses claims the oldest item in any of the given statuses.
// Returns nil when no item is ready.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = string(status)
	}
	query := fmt.Sprintf(
		"SELECT %s FROM queue_items WHERE status IN (%s) ORDER BY id ASC LIMIT 1",
		itemColumns, strings.Join(placeholders, ", "))

	var item Item
	err := retryOnBusy(ctx, func() error {
		return scanItem(s.db.QueryRowContext(ctx, query, args...), &item)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queue item: %w", err)
	}
	return &item, nil
}

// Remove deletes the item with the given id. Returns true when a row was removed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	result, err := s.execWithRetry(ctx, "DELETE FROM queue_items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("remove queue item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove queue item %d: %w", id, err)
	}
	return affected > 0, nil
}

// Clear removes every item from the queue and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.execWithRetry(ctx, "DELETE FROM queue_items")
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return affected, nil
}

// ClearCompleted removes completed items and returns the number removed.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, StatusCompleted)
}

// ClearFailed removes failed items and returns the number removed.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, StatusFailed)
}

func (s *Store) clearByStatus(ctx context.Context, status Status) (int64, error) {
	result, err := s.execWithRetry(ctx, "DELETE FROM queue_items WHERE status = ?", string(status))
	if err != nil {
		return 0, fmt.Errorf("clear %s items: %w", status, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear %s items: %w", status, err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, item *Item) error {
	var (
		status        string
		createdAt     string
		updatedAt     string
		lastHeartbeat sql.NullString
		needsReview   int
		errorMessage  sql.NullString
		probeJSON     sql.NullString
		preparedFile  sql.NullString
		chunkPlan     sql.NullString
		transcript    sql.NullString
		segments      sql.NullString
		transcriptOut sql.NullString
		progStage     sql.NullString
		progMessage   sql.NullString
		reviewReason  sql.NullString
	)
	err := row.Scan(
		&item.ID, &item.SourcePath, &item.Title, &item.Provider, &item.Language,
		&status, &errorMessage, &createdAt, &updatedAt, &probeJSON, &preparedFile,
		&chunkPlan, &transcript, &segments, &transcriptOut, &progStage, &item.ProgressPercent,
		&progMessage, &lastHeartbeat, &needsReview, &reviewReason)
	if err != nil {
		return err
	}

	item.Status = Status(status)
	item.ErrorMessage = errorMessage.String
	item.ProbeJSON = probeJSON.String
	item.PreparedFile = preparedFile.String
	item.ChunkPlanJSON = chunkPlan.String
	item.TranscriptText = transcript.String
	item.SegmentsJSON = segments.String
	item.TranscriptFile = transcriptOut.String
	item.ProgressStage = progStage.String
	item.ProgressMessage = progMessage.String
	item.NeedsReview = needsReview != 0
	item.ReviewReason = reviewReason.String

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}
	if lastHeartbeat.Valid && lastHeartbeat.String != "" {
		hb, err := parseTime(lastHeartbeat.String)
		if err != nil {
			return fmt.Errorf("parse last_heartbeat: %w", err)
		}
		item.LastHeartbeat = &hb
	} else {
		item.LastHeartbeat = nil
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
