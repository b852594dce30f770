package janitor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"pland/internal/config"
	"pland/internal/eventbus"
	"pland/internal/storage"
	logx "pland/pkg/logx"
)

func seedStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := storage.Open(storage.Config{
		Driver: "file",
		Path:   filepath.Join(t.TempDir(), "history.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	now := time.Now().UTC()
	entries := []storage.PlanEntry{
		{ID: "ancient", CreatedAt: now.Add(-72 * time.Hour)},
		{ID: "stale", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "fresh", CreatedAt: now.Add(-time.Minute)},
	}
	for _, e := range entries {
		e.Result = json.RawMessage(`{}`)
		if err := st.AppendPlan(ctx, e); err != nil {
			t.Fatalf("seed %s: %v", e.ID, err)
		}
	}
	return st
}

func TestRunOncePrunesAndPublishes(t *testing.T) {
	st := seedStore(t)
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	svc := New(st, bus, logx.Nop())
	err := svc.Apply(config.JanitorConfig{Enabled: true, Retention: "24h"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	svc.runOnce()

	list, err := st.ListPlans(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "fresh" {
		t.Fatalf("unexpected survivors: %+v", list)
	}

	select {
	case e := <-events:
		if e.Type != eventbus.TypeHistoryPruned {
			t.Fatalf("unexpected event type %q", e.Type)
		}
		if n, ok := e.Data.(int); !ok || n != 2 {
			t.Fatalf("unexpected prune count: %+v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no history.pruned event published")
	}
}

func TestRunOnceNoRemovalNoEvent(t *testing.T) {
	st := seedStore(t)
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	svc := New(st, bus, logx.Nop())
	if err := svc.Apply(config.JanitorConfig{Enabled: true, Retention: "8760h"}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	svc.runOnce()

	select {
	case e := <-events:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApplyRejectsBadConfig(t *testing.T) {
	svc := New(seedStore(t), nil, logx.Nop())

	if err := svc.Apply(config.JanitorConfig{Enabled: true, Retention: "soon"}); err == nil {
		t.Fatal("bad retention accepted")
	}

	// A bad cron spec only surfaces once the scheduler exists.
	if err := svc.Apply(config.JanitorConfig{Enabled: true, Spec: "not a cron"}); err != nil {
		t.Fatalf("apply before start: %v", err)
	}
	if err := svc.Start(); err == nil {
		t.Fatal("bad cron spec accepted at start")
	}
}
