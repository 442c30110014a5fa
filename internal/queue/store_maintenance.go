package queue

import (
	"context"
	"fmt"
	"os"
)

// Stats returns a count of items per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	stats := make(map[Status]int, len(allStatuses))
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM queue_items GROUP BY status")
		if err != nil {
			return err
		}
		defer rows.Close()

		clear(stats)
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			stats[Status(status)] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}

// Health aggregates queue counts into lifecycle buckets.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}

	var summary HealthSummary
	for status, count := range stats {
		summary.Total += count
		switch {
		case status == StatusPending:
			summary.Pending += count
		case IsProcessingStatus(status) || status == StatusProbed || status == StatusPrepared || status == StatusTranscribed:
			summary.Processing += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusReview:
			summary.Review += count
		case status == StatusCompleted:
			summary.Completed += count
		}
	}
	return summary, nil
}

// CheckHealth runs diagnostics against the queue database file and schema.
func (s *Store) CheckHealth(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{DBPath: s.path}

	if _, err := os.Stat(s.path); err != nil {
		health.Error = fmt.Sprintf("database file: %v", err)
		return health
	}
	health.DatabaseExists = true

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = fmt.Sprintf("database ping: %v", err)
		return health
	}
	health.DatabaseReadable = true

	var version int
	if err := s.queryRowScan(ctx, "SELECT version FROM schema_version LIMIT 1", nil, &version); err != nil {
		health.Error = fmt.Sprintf("schema version: %v", err)
		return health
	}
	health.SchemaVersion = fmt.Sprintf("%d", version)

	var tableCount int
	if err := s.queryRowScan(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='queue_items'",
		nil, &tableCount); err != nil {
		health.Error = fmt.Sprintf("table check: %v", err)
		return health
	}
	health.TableExists = tableCount > 0

	var integrity string
	if err := s.queryRowScan(ctx, "PRAGMA integrity_check", nil, &integrity); err != nil {
		health.Error = fmt.Sprintf("integrity check: %v", err)
		return health
	}
	health.IntegrityCheck = integrity == "ok"
	if !health.IntegrityCheck {
		health.Error = fmt.Sprintf("integrity check reported: %s", integrity)
	}

	if err := s.queryRowScan(ctx, "SELECT COUNT(1) FROM queue_items", nil, &health.TotalItems); err != nil {
		health.Error = fmt.Sprintf("count items: %v", err)
	}
	return health
}
