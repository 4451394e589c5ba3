package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/metrics"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Name labels the destination in logs and metrics.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval. m may be nil.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		metrics:      m,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	// Run once immediately at startup.
	_ = s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports the store and writes the result to every destination.
// It returns the first export error; destination failures are logged and
// counted but do not stop the remaining destinations.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	start := time.Now()
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		s.metrics.ObserveExport("export", err, time.Since(start))
		return err
	}
	data := buf.Bytes()

	for _, dest := range s.destinations {
		destStart := time.Now()
		err := dest.Write(ctx, data)
		s.metrics.ObserveExport(dest.Name(), err, time.Since(destStart))
		if err != nil {
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
		}
	}

	s.logger.Info("sync completed", "destinations", len(s.destinations), "bytes", len(data))
	return nil
}
