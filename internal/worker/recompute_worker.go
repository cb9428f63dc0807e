package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// Recomputer is the part of the budget service the worker drives.
type Recomputer interface {
	Revision(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context, q services.Query) (*services.Snapshot, error)
	Publish(ctx context.Context, w sheets.ReportWriter, snap *services.Snapshot) error
}

// Consumer delivers recompute requests.
type Consumer interface {
	ConsumeRecompute(ctx context.Context, handler amqp.Handler) error
}

var (
	_ Recomputer = (*services.BudgetService)(nil)
	_ Consumer   = (*amqp.Client)(nil)
)

// RecomputeWorker rebuilds the reports whenever the store changes and
// writes them to the report backend.
type RecomputeWorker struct {
	service Recomputer
	writer  sheets.ReportWriter
	query   services.Query

	mu       sync.Mutex
	served   bool
	revision int64
}

func NewRecomputeWorker(service Recomputer, writer sheets.ReportWriter, query services.Query) *RecomputeWorker {
	return &RecomputeWorker{
		service: service,
		writer:  writer,
		query:   query,
	}
}

// LastRevision returns the newest revision written so far.
func (w *RecomputeWorker) LastRevision() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revision, w.served
}

// HandleRecomputeMessage processes a single recompute request from AMQP.
// Requests for a revision already written are acknowledged without work.
func (w *RecomputeWorker) HandleRecomputeMessage(ctx context.Context, msg *amqp.RecomputeMessage) error {
	slog.InfoContext(ctx, "Processing recompute message", log.NewFields().
		WithComponent(log.ComponentWorker).
		WithOperation(log.OpConsume).
		WithMessageID(msg.ID).
		WithReason(msg.Reason).
		WithRevision(msg.Revision).
		ToSlice()...)

	if last, ok := w.LastRevision(); ok && msg.Revision <= last {
		slog.DebugContext(ctx, "Revision already published, skipping",
			log.FieldMessageID, msg.ID,
			log.FieldRevision, msg.Revision,
			"last_revision", last)
		return nil
	}
	return w.Recompute(ctx, msg.Reason)
}

// ProcessIfStale recomputes when the store moved past the last written
// revision. This is the backup path for lost messages.
func (w *RecomputeWorker) ProcessIfStale(ctx context.Context) error {
	rev, err := w.service.Revision(ctx)
	if err != nil {
		return fmt.Errorf("read revision: %w", err)
	}
	if last, ok := w.LastRevision(); ok && rev <= last {
		return nil
	}
	return w.Recompute(ctx, amqp.ReasonSchedule)
}

// Recompute builds a snapshot and writes it out.
func (w *RecomputeWorker) Recompute(ctx context.Context, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	snap, err := w.service.Snapshot(ctx, w.query)
	if err != nil {
		return fmt.Errorf("compute snapshot: %w", err)
	}
	if w.served && snap.Revision <= w.revision {
		return nil
	}
	if err := w.service.Publish(ctx, w.writer, snap); err != nil {
		return fmt.Errorf("publish reports: %w", err)
	}
	w.served, w.revision = true, snap.Revision

	slog.InfoContext(ctx, "Reports published", log.NewFields().
		WithComponent(log.ComponentWorker).
		WithOperation(log.OpRecompute).
		WithReason(reason).
		WithRevision(snap.Revision).
		With("has_plan", snap.HasPlan).
		WithDuration(time.Since(start).Milliseconds(), true).
		ToSlice()...)
	return nil
}

// RunConfig controls the background loops started by Run.
type RunConfig struct {
	// Interval between stale checks. Zero disables the schedule.
	Interval time.Duration
	// JanitorInterval between cache sweeps. Ignored when Janitor is nil.
	JanitorInterval time.Duration
	Janitor         *cache.Janitor
}

// Run performs a startup check and then serves consumer and the schedule
// until ctx is done. consumer may be nil.
func (w *RecomputeWorker) Run(ctx context.Context, consumer Consumer, cfg RunConfig) error {
	slog.InfoContext(ctx, "Performing startup recompute check...", log.FieldComponent, log.ComponentWorker)
	if err := w.ProcessIfStale(ctx); err != nil {
		// The schedule retries; keep serving.
		slog.ErrorContext(ctx, "Failed startup recompute", log.NewFields().
			WithComponent(log.ComponentWorker).
			WithOperation(log.OpStartup).
			WithError(err).
			ToSlice()...)
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeRecompute(gctx, w.HandleRecomputeMessage)
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.InfoContext(ctx, "Skipping AMQP message consumption - no consumer configured")
	}

	if cfg.Interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := w.ProcessIfStale(gctx); err != nil {
						slog.ErrorContext(gctx, "Periodic recompute failed", log.FieldError, err)
					}
				}
			}
		})
	}

	if cfg.Janitor != nil && cfg.JanitorInterval > 0 {
		g.Go(func() error {
			return cfg.Janitor.Run(gctx, cfg.JanitorInterval)
		})
	}

	return g.Wait()
}
