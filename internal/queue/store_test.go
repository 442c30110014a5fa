package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewFile(ctx, "/audio/meeting.wav", "meeting", "openai", "en")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "meeting" || fetched.Provider != "openai" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindBySourcePath(ctx, "/audio/meeting.wav")
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item, got %#v", item)
	}
}

func TestUpdateRoundTripsFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewFile(t, store, "/audio/a.mp3", "a")

	heartbeat := time.Now().UTC().Truncate(time.Millisecond)
	item.Status = queue.StatusTranscribing
	item.PreparedFile = "/staging/a.ogg"
	item.ChunkPlanJSON = `[{"index":1,"start_sec":0,"end_sec":30}]`
	item.TranscriptText = "hello world"
	item.SegmentsJSON = `[{"start_sec":0,"end_sec":4.2,"text":"hello world"}]`
	item.ProgressStage = "Transcribing"
	item.ProgressPercent = 42.5
	item.ProgressMessage = "chunk 1 of 2"
	item.LastHeartbeat = &heartbeat
	item.NeedsReview = true
	item.ReviewReason = "manual check"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusTranscribing {
		t.Fatalf("expected transcribing, got %s", fetched.Status)
	}
	if fetched.PreparedFile != "/staging/a.ogg" || fetched.TranscriptText != "hello world" {
		t.Fatalf("unexpected fields: %#v", fetched)
	}
	if fetched.SegmentsJSON != item.SegmentsJSON {
		t.Fatalf("unexpected segments json: %q", fetched.SegmentsJSON)
	}
	if fetched.ProgressPercent != 42.5 || fetched.ProgressMessage != "chunk 1 of 2" {
		t.Fatalf("unexpected progress: %#v", fetched)
	}
	if fetched.LastHeartbeat == nil || !fetched.LastHeartbeat.Equal(heartbeat) {
		t.Fatalf("unexpected heartbeat: %v", fetched.LastHeartbeat)
	}
	if !fetched.NeedsReview || fetched.ReviewReason != "manual check" {
		t.Fatalf("unexpected review fields: %#v", fetched)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewFile(t, store, fmt.Sprintf("/audio/%d.wav", i), fmt.Sprintf("clip-%d", i))
	}
	done := testsupport.NewFile(t, store, "/audio/done.wav", "done")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 items, got %d", len(all))
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List pending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending items, got %d", len(pending))
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewFile(t, store, "/audio/first.wav", "first")
	testsupport.NewFile(t, store, "/audio/second.wav", "second")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest item %d, got %#v", first.ID, next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusExporting)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil, got %#v", none)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"probing", queue.StatusProbing, queue.StatusPending},
		{"preparing", queue.StatusPreparing, queue.StatusProbed},
		{"transcribing", queue.StatusTranscribing, queue.StatusPrepared},
		{"exporting", queue.StatusExporting, queue.StatusTranscribed},
	}
	var ids []int64
	for i, tc := range cases {
		item := testsupport.NewFile(t, store, fmt.Sprintf("/audio/reset-%d.wav", i), tc.name)
		item.Status = tc.initialStatus
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Fatalf("expected %d items reset, got %d", len(cases), reset)
	}

	for i, tc := range cases {
		fetched, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, fetched.Status)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewFile(t, store, "/audio/stale.wav", "stale")
	staleBeat := time.Now().UTC().Add(-10 * time.Minute)
	stale.Status = queue.StatusTranscribing
	stale.LastHeartbeat = &staleBeat
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.NewFile(t, store, "/audio/fresh.wav", "fresh")
	freshBeat := time.Now().UTC()
	fresh.Status = queue.StatusTranscribing
	fresh.LastHeartbeat = &freshBeat
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", reclaimed)
	}

	got, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != queue.StatusPrepared {
		t.Fatalf("expected stale item rolled back to prepared, got %s", got.Status)
	}
	untouched, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusTranscribing {
		t.Fatalf("expected fresh item untouched, got %s", untouched.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.NewFile(t, store, "/audio/failed.wav", "failed")
	failed.SetFailed("transcription error")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	review := testsupport.NewFile(t, store, "/audio/review.wav", "review")
	review.Status = queue.StatusReview
	review.NeedsReview = true
	review.ReviewReason = "missing credentials"
	if err := store.Update(ctx, review); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx, false)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried item, got %d", count)
	}

	count, err = store.RetryFailed(ctx, true)
	if err != nil {
		t.Fatalf("RetryFailed with review failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 review item retried, got %d", count)
	}

	got, err := store.GetByID(ctx, review.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != queue.StatusPending || got.NeedsReview || got.ReviewReason != "" {
		t.Fatalf("expected reset review item, got %#v", got)
	}
}

func TestRetryItemRejectsNonRetryable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewFile(t, store, "/audio/pending.wav", "pending")
	if err := store.RetryItem(ctx, item.ID); err == nil {
		t.Fatal("expected error retrying a pending item")
	}

	item.SetFailed("boom")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.RetryItem(ctx, item.ID); err != nil {
		t.Fatalf("RetryItem failed: %v", err)
	}
	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != queue.StatusPending || got.ErrorMessage != "" {
		t.Fatalf("expected pending retry, got %#v", got)
	}
}

func TestClearOperations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	completed := testsupport.NewFile(t, store, "/audio/c.wav", "c")
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewFile(t, store, "/audio/f.wav", "f")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewFile(t, store, "/audio/p.wav", "p")

	n, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completed removed, got %d", n)
	}
	n, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 failed removed, got %d", n)
	}
	n, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 remaining removed, got %d", n)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewFile(t, store, "/audio/1.wav", "one")
	item := testsupport.NewFile(t, store, "/audio/2.wav", "two")
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusPending] != 1 || stats[queue.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	health := store.CheckHealth(ctx)
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %#v", health)
	}
	if health.TotalItems != 2 {
		t.Fatalf("expected 2 items, got %d", health.TotalItems)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Pending "); !ok || status != queue.StatusPending {
		t.Fatalf("expected pending, got %q ok=%v", status, ok)
	}
	if _, ok := queue.ParseStatus("uploading"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
