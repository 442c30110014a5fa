package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/testsupport"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alphaPath := env.audioFile(t, "alpha.mp3")
	testsupport.NewFile(t, env.store, alphaPath, "Alpha")

	betaPath := env.audioFile(t, "beta.mp3")
	beta := testsupport.NewFile(t, env.store, betaPath, "Beta")
	beta.Status = queue.StatusFailed
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Alpha")
	requireContains(t, out, "Beta")
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha := testsupport.NewFile(t, env.store, env.audioFile(t, "alpha.mp3"), "Alpha")
	alpha.Status = queue.StatusFailed
	if err := env.store.Update(ctx, alpha); err != nil {
		t.Fatalf("alpha failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed items")

	updated, err := env.store.GetByID(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	updated.Status = queue.StatusFailed
	if err := env.store.Update(ctx, updated); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed items")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear all: %v", err)
	}
	requireContains(t, out, "Cleared")
}

func TestQueueRetrySpecificID(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alpha := testsupport.NewFile(t, env.store, env.audioFile(t, "alpha.mp3"), "Alpha")
	alpha.Status = queue.StatusFailed
	if err := env.store.Update(ctx, alpha); err != nil {
		t.Fatalf("alpha failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry specific: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d reset for retry", alpha.ID))
}

func TestQueueRetryInvalidID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "retry", "abc"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueRemoveAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	alpha := testsupport.NewFile(t, env.store, env.audioFile(t, "alpha.mp3"), "Alpha")

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Alpha")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d removed", alpha.ID))

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", alpha.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove missing: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d not found", alpha.ID))
}

func TestQueueShowSpellsOutLanguage(t *testing.T) {
	env := setupCLITestEnv(t)

	item := testsupport.NewFile(t, env.store, env.audioFile(t, "vortrag.mp3"), "Vortrag")
	item.Language = "de"
	if err := env.store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "German (de)")
}

func TestQueueHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Database path:")
	requireContains(t, out, "queue_items table present:")
}

func TestQueueListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.NewFile(t, env.store, env.audioFile(t, "alpha.mp3"), "Alpha")
	beta := testsupport.NewFile(t, env.store, env.audioFile(t, "beta.mp3"), "Beta")
	beta.Status = queue.StatusCompleted
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta completed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "list", "--status", "completed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list filtered: %v", err)
	}
	requireContains(t, out, "Beta")
	if strings.Contains(out, "Alpha") {
		t.Fatalf("expected Alpha to be filtered out, got %q", out)
	}

	_, _, err = runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewFile(t, env.store, env.audioFile(t, "alpha.mp3"), "Alpha")
	testsupport.NewFile(t, env.store, env.audioFile(t, "beta.mp3"), "Beta")

	out, _, err := runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, item := range items {
		if _, ok := item["id"]; !ok {
			t.Fatal("missing 'id' key in JSON item")
		}
		if _, ok := item["status"]; !ok {
			t.Fatal("missing 'status' key in JSON item")
		}
	}
}

func TestAddCommandQueuesFile(t *testing.T) {
	env := setupCLITestEnv(t)

	path := env.audioFile(t, "episode.mp3")
	out, _, err := runCLI(t, []string{"add", path, "--title", "Episode One"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued audio file as item #")
	requireContains(t, out, filepath.Base(path))

	items, err := env.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 queued item, got %d", len(items))
	}
	if items[0].Title != "Episode One" {
		t.Fatalf("expected title override, got %q", items[0].Title)
	}
}
