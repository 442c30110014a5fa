package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/notifications"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/testsupport"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/workflow"
)

type stubHandler struct {
	name    string
	execute func(ctx context.Context, item *queue.Item) error

	mu    sync.Mutex
	calls int
}

func (s *stubHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (s *stubHandler) Execute(ctx context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.execute != nil {
		return s.execute(ctx, item)
	}
	return nil
}

func (s *stubHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func (s *stubHandler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func noopNotifier(t *testing.T) notifications.Service {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	return notifications.NewService(cfg)
}

func fullStageSet() workflow.StageSet {
	return workflow.StageSet{
		Prober:      &stubHandler{name: "prober"},
		Preparer:    &stubHandler{name: "preparer"},
		Transcriber: &stubHandler{name: "transcriber"},
		Exporter:    &stubHandler{name: "exporter"},
	}
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item != nil && item.Status == want {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
	item, _ := store.GetByID(context.Background(), id)
	t.Fatalf("item %d never reached %s, last seen %#v", id, want, item)
	return nil
}

func TestManagerRunsFullPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewFile(t, store, "/audio/talk.mp3", "talk")

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	set := fullStageSet()
	manager.ConfigureStages(set)

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	done := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if done.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", done.ProgressPercent)
	}
	for _, handler := range []*stubHandler{
		set.Prober.(*stubHandler),
		set.Preparer.(*stubHandler),
		set.Transcriber.(*stubHandler),
		set.Exporter.(*stubHandler),
	} {
		if handler.callCount() != 1 {
			t.Fatalf("expected %s to run once, got %d", handler.name, handler.callCount())
		}
	}
}

func TestManagerRequiresConfiguredStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	if err := manager.Start(context.Background()); err == nil {
		manager.Stop()
		t.Fatal("expected Start to fail without configured stages")
	}
}

func TestManagerRejectsDoubleStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	manager.ConfigureStages(fullStageSet())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestManagerMarksTransientFailuresFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewFile(t, store, "/audio/broken.mp3", "broken")

	set := fullStageSet()
	set.Prober = &stubHandler{name: "prober", execute: func(ctx context.Context, item *queue.Item) error {
		return services.Wrap(services.ErrTransient, "probing", "inspect", "ffprobe crashed", nil)
	}}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	manager.ConfigureStages(set)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	failed := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}
	if failed.NeedsReview {
		t.Fatal("transient failure should not flag review")
	}
}

func TestManagerRoutesValidationFailuresToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewFile(t, store, "/audio/noaudio.mkv", "noaudio")

	set := fullStageSet()
	set.Prober = &stubHandler{name: "prober", execute: func(ctx context.Context, item *queue.Item) error {
		return services.Wrap(services.ErrValidation, "probing", "inspect", "No audio streams found", nil)
	}}

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	manager.ConfigureStages(set)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	review := waitForStatus(t, store, item.ID, queue.StatusReview)
	if !review.NeedsReview || review.ReviewReason == "" {
		t.Fatalf("expected review metadata, got %#v", review)
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewFile(t, store, "/audio/a.mp3", "a")

	manager := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), noopNotifier(t))
	manager.ConfigureStages(fullStageSet())

	summary := manager.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	if len(summary.StageHealth) != 4 {
		t.Fatalf("expected 4 stage health entries, got %d", len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("expected %s healthy, got %#v", name, health)
		}
	}
	if summary.QueueStats[queue.StatusPending] != 1 {
		t.Fatalf("expected one pending item, got %#v", summary.QueueStats)
	}
}
