package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/sheets/memory"
)

type fakeService struct {
	mu         sync.Mutex
	revision   int64
	snapshots  int
	publishes  int
	publishErr error
}

func (f *fakeService) setRevision(rev int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revision = rev
}

func (f *fakeService) counts() (snapshots, publishes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots, f.publishes
}

func (f *fakeService) Revision(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revision, nil
}

func (f *fakeService) Snapshot(_ context.Context, _ services.Query) (*services.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return &services.Snapshot{Revision: f.revision}, nil
}

func (f *fakeService) Publish(ctx context.Context, w sheets.ReportWriter, snap *services.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.publishes++
	return w.WriteTrend(ctx, snap.Trend)
}

type fakeConsumer struct {
	messages []*amqp.RecomputeMessage
	results  []error
}

func (c *fakeConsumer) ConsumeRecompute(ctx context.Context, handler amqp.Handler) error {
	for _, msg := range c.messages {
		c.results = append(c.results, handler(ctx, msg))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRecomputeWorker_HandleRecomputeMessage(t *testing.T) {
	svc := &fakeService{revision: 3}
	out := memory.New()
	w := NewRecomputeWorker(svc, out, services.Query{})
	ctx := context.Background()

	msg := amqp.NewRecomputeMessage(amqp.ReasonImport, 3)
	if err := w.HandleRecomputeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleRecomputeMessage failed: %v", err)
	}
	if rev, ok := w.LastRevision(); !ok || rev != 3 {
		t.Errorf("LastRevision = %d, %v; want 3, true", rev, ok)
	}

	// same revision again is skipped without computing
	if err := w.HandleRecomputeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleRecomputeMessage failed: %v", err)
	}
	if snaps, pubs := svc.counts(); snaps != 1 || pubs != 1 {
		t.Errorf("snapshots/publishes = %d/%d, want 1/1", snaps, pubs)
	}

	svc.setRevision(4)
	if err := w.HandleRecomputeMessage(ctx, amqp.NewRecomputeMessage(amqp.ReasonPlan, 4)); err != nil {
		t.Fatalf("HandleRecomputeMessage failed: %v", err)
	}
	if _, pubs := svc.counts(); pubs != 2 {
		t.Errorf("publishes = %d, want 2", pubs)
	}
	if out.Writes() != 2 {
		t.Errorf("writes = %d, want 2", out.Writes())
	}
}

func TestRecomputeWorker_PublishError(t *testing.T) {
	svc := &fakeService{revision: 1, publishErr: errors.New("sheets unavailable")}
	w := NewRecomputeWorker(svc, memory.New(), services.Query{})

	err := w.HandleRecomputeMessage(context.Background(), amqp.NewRecomputeMessage(amqp.ReasonImport, 1))
	if err == nil {
		t.Fatal("expected publish error to be returned so the message is requeued")
	}
	if _, ok := w.LastRevision(); ok {
		t.Error("a failed publish must not mark the revision as served")
	}
}

func TestRecomputeWorker_ProcessIfStale(t *testing.T) {
	svc := &fakeService{revision: 5}
	w := NewRecomputeWorker(svc, memory.New(), services.Query{})
	ctx := context.Background()

	if err := w.ProcessIfStale(ctx); err != nil {
		t.Fatalf("ProcessIfStale failed: %v", err)
	}
	if err := w.ProcessIfStale(ctx); err != nil {
		t.Fatalf("ProcessIfStale failed: %v", err)
	}
	if snaps, _ := svc.counts(); snaps != 1 {
		t.Errorf("snapshots = %d, want 1 when nothing changed", snaps)
	}

	svc.setRevision(6)
	if err := w.ProcessIfStale(ctx); err != nil {
		t.Fatalf("ProcessIfStale failed: %v", err)
	}
	if rev, _ := w.LastRevision(); rev != 6 {
		t.Errorf("LastRevision = %d, want 6", rev)
	}
}

func TestRecomputeWorker_Run(t *testing.T) {
	svc := &fakeService{revision: 2}
	w := NewRecomputeWorker(svc, memory.New(), services.Query{})
	consumer := &fakeConsumer{messages: []*amqp.RecomputeMessage{
		amqp.NewRecomputeMessage(amqp.ReasonImport, 1),
		amqp.NewRecomputeMessage(amqp.ReasonImport, 2),
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx, consumer, RunConfig{Interval: 10 * time.Millisecond}); err != nil {
		t.Fatalf("Run returned %v, want nil on cancellation", err)
	}
	// startup check publishes revision 2; both messages are then stale
	if _, pubs := svc.counts(); pubs != 1 {
		t.Errorf("publishes = %d, want 1", pubs)
	}
	for i, err := range consumer.results {
		if err != nil {
			t.Errorf("message %d: unexpected error %v", i, err)
		}
	}
}
