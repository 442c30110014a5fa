package ipc_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/daemon"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/ipc"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/logging"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/queue"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/testsupport"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/workflow"
)

type idleHandler struct{ name string }

func (h idleHandler) Prepare(context.Context, *queue.Item) error { return nil }
func (h idleHandler) Execute(context.Context, *queue.Item) error { return nil }
func (h idleHandler) HealthCheck(context.Context) stage.Health   { return stage.Healthy(h.name) }

type fixture struct {
	cfg    *config.Config
	store  *queue.Store
	daemon *daemon.Daemon
	client *ipc.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manager := workflow.NewManager(cfg, store, logging.NewNop())
	manager.ConfigureStages(workflow.StageSet{
		Prober:      idleHandler{name: "prober"},
		Preparer:    idleHandler{name: "preparer"},
		Transcriber: idleHandler{name: "transcriber"},
		Exporter:    idleHandler{name: "exporter"},
	})

	d, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	server, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &fixture{cfg: cfg, store: store, daemon: d, client: client}
}

func (f *fixture) audioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(f.cfg), name)
	testsupport.WriteFile(t, path, 64)
	return path
}

func TestStatusOverSocket(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon should not report running")
	}
	if resp.QueueDBPath != f.store.Path() {
		t.Fatalf("expected db path %s, got %s", f.store.Path(), resp.QueueDBPath)
	}
	if len(resp.StageHealth) != 4 {
		t.Fatalf("expected 4 stage health entries, got %d", len(resp.StageHealth))
	}
}

func TestAddFileAndQueueList(t *testing.T) {
	f := newFixture(t)
	path := f.audioFile(t, "ep1.mp3")

	added, err := f.client.AddFile(ipc.AddFileRequest{Path: path})
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if added.Item.Title != "ep1" || added.Item.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected item: %#v", added.Item)
	}

	list, err := f.client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != added.Item.ID {
		t.Fatalf("unexpected listing: %#v", list.Items)
	}

	filtered, err := f.client.QueueList([]string{"completed"})
	if err != nil {
		t.Fatalf("QueueList filtered failed: %v", err)
	}
	if len(filtered.Items) != 0 {
		t.Fatalf("expected no completed items, got %d", len(filtered.Items))
	}

	if _, err := f.client.QueueList([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueDescribeAndRemove(t *testing.T) {
	f := newFixture(t)
	path := f.audioFile(t, "ep2.wav")

	added, err := f.client.AddFile(ipc.AddFileRequest{Path: path, Title: "override"})
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	described, err := f.client.QueueDescribe(added.Item.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if described.Item.Title != "override" {
		t.Fatalf("expected title override, got %q", described.Item.Title)
	}

	removed, err := f.client.QueueRemove(added.Item.ID)
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if !removed.Removed {
		t.Fatal("expected item to be removed")
	}
	if _, err := f.client.QueueDescribe(added.Item.ID); err == nil {
		t.Fatal("expected describe to fail after removal")
	}
}

func TestQueueClearScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := testsupport.NewFile(t, f.store, f.audioFile(t, "done.mp3"), "done")
	item.Status = queue.StatusCompleted
	if err := f.store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewFile(t, f.store, f.audioFile(t, "todo.mp3"), "todo")

	cleared, err := f.client.QueueClear("completed")
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", cleared.Removed)
	}

	if _, err := f.client.QueueClear("nonsense"); err == nil {
		t.Fatal("expected error for unknown scope")
	}

	all, err := f.client.QueueClear("all")
	if err != nil {
		t.Fatalf("QueueClear all failed: %v", err)
	}
	if all.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", all.Removed)
	}
}

func TestQueueRetryOverSocket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := testsupport.NewFile(t, f.store, f.audioFile(t, "broken.mp3"), "broken")
	item.SetFailed("provider exploded")
	if err := f.store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retried, err := f.client.QueueRetry(0, false)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retried.Updated != 1 {
		t.Fatalf("expected 1 retried, got %d", retried.Updated)
	}

	fetched, err := f.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", fetched.Status)
	}
}

func TestQueueHealthOverSocket(t *testing.T) {
	f := newFixture(t)
	testsupport.NewFile(t, f.store, f.audioFile(t, "a.mp3"), "a")

	health, err := f.client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if health.Total != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}

	db, err := f.client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth failed: %v", err)
	}
	if !db.DatabaseExists || !db.TableExists || !db.IntegrityCheck {
		t.Fatalf("unexpected database health: %#v", db)
	}
}
