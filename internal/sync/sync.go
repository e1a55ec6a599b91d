package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/store"
)

// Destination is the interface for a backup target.
type Destination interface {
	// Name identifies the destination in logs and status.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Status describes the most recent sync run.
type Status struct {
	LastRun   time.Time `json:"last_run,omitempty"`
	LastBytes int       `json:"last_bytes"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
}

// Scheduler runs periodic backups of the store to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	status Status
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick and whenever Trigger is called.
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

// Trigger requests a sync ahead of the next tick. Requests made while one is
// already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the last sync run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-s.trigger:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		s.record(0, err)
		return
	}
	data := buf.Bytes()

	var firstErr error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.record(len(data), firstErr)

	s.logger.Info("sync completed", "destinations", len(s.destinations), "bytes", len(data))
}

func (s *Scheduler) record(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastRun = time.Now().UTC()
	s.status.LastBytes = n
	s.status.Runs++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
}
