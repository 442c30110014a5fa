package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/ipc"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/language"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ipc.QueueItem, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			displayTitle(item),
			formatStatusLabel(item.Status),
			item.Provider,
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func printQueueItemDetail(out io.Writer, item ipc.QueueItem) {
	fmt.Fprintf(out, "Item #%d\n", item.ID)
	fmt.Fprintf(out, "  Title:       %s\n", displayTitle(item))
	fmt.Fprintf(out, "  Source:      %s\n", item.SourcePath)
	fmt.Fprintf(out, "  Status:      %s\n", formatStatusLabel(item.Status))
	fmt.Fprintf(out, "  Provider:    %s\n", item.Provider)
	if item.Language != "" {
		fmt.Fprintf(out, "  Language:    %s (%s)\n", language.DisplayName(item.Language), item.Language)
	}
	fmt.Fprintf(out, "  Created:     %s\n", formatDisplayTime(item.CreatedAt))
	fmt.Fprintf(out, "  Updated:     %s\n", formatDisplayTime(item.UpdatedAt))
	if item.ProgressStage != "" || item.ProgressMessage != "" {
		fmt.Fprintf(out, "  Progress:    %s (%.0f%%) %s\n", item.ProgressStage, item.ProgressPercent, item.ProgressMessage)
	}
	if item.TranscriptFile != "" {
		fmt.Fprintf(out, "  Transcript:  %s\n", item.TranscriptFile)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:       %s\n", item.ErrorMessage)
	}
	if item.NeedsReview {
		fmt.Fprintf(out, "  Review:      %s\n", item.ReviewReason)
	}
}

func displayTitle(item ipc.QueueItem) string {
	title := strings.TrimSpace(item.Title)
	if title != "" {
		return title
	}
	source := strings.TrimSpace(item.SourcePath)
	if source != "" {
		return filepath.Base(source)
	}
	return "Unknown"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
