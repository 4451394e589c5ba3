package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alfredjeanlab/invtrack/internal/metrics"
	"github.com/alfredjeanlab/invtrack/internal/store/memory"
)

// mockDestination records calls to Write.
type mockDestination struct {
	name   string
	err    error
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Name() string { return d.name }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	st := seedStore(t)
	dest := &mockDestination{name: "mock"}

	sched := NewScheduler(st, []Destination{dest}, 50*time.Millisecond, discardLogger(), nil)
	sched.Start()

	// Wait for at least the initial sync + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 2 inventories + 3 items
	if lines := nonEmptyLines(string(data)); len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(memory.New(), nil, time.Minute, discardLogger(), nil)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSyncOnceContinuesPastFailingDestination(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	bad := &mockDestination{name: "bad", err: errors.New("unreachable")}
	good := &mockDestination{name: "good"}

	sched := NewScheduler(seedStore(t), []Destination{bad, good}, time.Minute, discardLogger(), m)
	if err := sched.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if good.writes.Load() != 1 {
		t.Fatal("good destination was skipped after a failure")
	}
	if got := testutil.ToFloat64(m.ExportTotal.WithLabelValues("bad", "error")); got != 1 {
		t.Errorf("bad errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ExportTotal.WithLabelValues("good", "ok")); got != 1 {
		t.Errorf("good ok = %v, want 1", got)
	}
}

func TestSyncOnceExportError(t *testing.T) {
	dest := &mockDestination{name: "mock"}
	st := &failingStore{Store: seedStore(t), failItems: true}

	sched := NewScheduler(st, []Destination{dest}, time.Minute, discardLogger(), nil)
	if err := sched.SyncOnce(context.Background()); !errors.Is(err, errListItems) {
		t.Fatalf("err = %v, want %v", err, errListItems)
	}
	if dest.writes.Load() != 0 {
		t.Fatal("destination written after failed export")
	}
}
