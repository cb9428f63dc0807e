package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"budget/internal/aggregate"
	"budget/internal/amqp"
	"budget/internal/budget"
	"budget/internal/cache"
	"budget/internal/cashflow"
	"budget/internal/core"
	"budget/internal/importer"
	"budget/internal/log"
	"budget/internal/policy"
	"budget/internal/rollover"
	"budget/internal/sheets"
	"budget/internal/storage"
	"budget/internal/trend"

	"golang.org/x/sync/errgroup"
)

// Store is the persistence collaborator the service reads from and writes to.
type Store interface {
	SaveTransactions(ctx context.Context, txns []core.Transaction) (int, error)
	ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]core.Category, error)
	SavePlan(ctx context.Context, plan core.BudgetPlan) error
	GetPlan(ctx context.Context) (core.BudgetPlan, error)
	Revision(ctx context.Context) (int64, error)
}

// ErrNoRollover is returned for a statement of a category that does not
// carry variance forward.
var ErrNoRollover = errors.New("rollover not enabled")

// Publisher announces that stored data changed.
type Publisher interface {
	PublishRecompute(ctx context.Context, reason string, revision int64) error
}

var (
	_ Store     = (*storage.SQLiteRepository)(nil)
	_ Publisher = (*amqp.Client)(nil)
)

// Query selects what a snapshot is computed over.
type Query struct {
	Filters policy.Filters
	// TrendGranularity is the period the trend is summarized by. Empty
	// means monthly.
	TrendGranularity core.Granularity
}

func (q Query) granularity() core.Granularity {
	if q.TrendGranularity == "" {
		return core.Monthly
	}
	return q.TrendGranularity
}

// key identifies a query within one store revision.
func (q Query) key(revision int64) string {
	hidden := make([]string, 0, len(q.Filters.HiddenCategories))
	for c, h := range q.Filters.HiddenCategories {
		if h {
			hidden = append(hidden, string(c))
		}
	}
	sort.Strings(hidden)
	var start, end string
	if !q.Filters.DateRangeStart.IsZero() {
		start = q.Filters.DateRangeStart.String()
	}
	if !q.Filters.DateRangeEnd.IsZero() {
		end = q.Filters.DateRangeEnd.String()
	}
	return strings.Join([]string{
		strconv.FormatInt(revision, 10),
		string(q.granularity()),
		strings.Join(hidden, ","),
		strconv.FormatBool(q.Filters.ShowVacation),
		strconv.FormatBool(q.Filters.IncludeTransfers),
		start, end,
	}, "|")
}

// Snapshot is every report computed from one store revision.
type Snapshot struct {
	Revision     int64
	HasPlan      bool
	Plan         core.BudgetPlan
	Transactions int
	Weekly       []core.WeeklyAggregate
	WeeklyReport []budget.WeeklyBudgetComparison
	Monthly      []budget.MonthlyBudgetComparison
	// Ledger is nil without a plan.
	Ledger       *rollover.Ledger
	Prediction   cashflow.CashFlowPrediction
	Trend        []trend.Point
	ComputedAt   time.Time
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	Saved    int
	Rejected []importer.RowError
}

// BudgetService loads data from the store, runs the engine over it and
// caches the result per store revision.
type BudgetService struct {
	store       Store
	publisher   Publisher
	parser      *importer.Parser
	snapshots   cache.Cache[*Snapshot]
	trendWindow int
}

// NewBudgetService wires a service. publisher and snapshots may be nil.
func NewBudgetService(store Store, publisher Publisher, snapshots cache.Cache[*Snapshot], trendWindow int) *BudgetService {
	if trendWindow < 1 {
		trendWindow = trend.DefaultWindow
	}
	return &BudgetService{
		store:       store,
		publisher:   publisher,
		parser:      importer.NewParser(),
		snapshots:   snapshots,
		trendWindow: trendWindow,
	}
}

// Import parses a CSV stream and saves the valid rows. Rejected rows are
// reported, not fatal.
func (s *BudgetService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse csv: %w", err)
	}
	for _, rej := range parsed.Rejected {
		slog.WarnContext(ctx, "Rejected CSV row", log.NewFields().
			WithComponent(log.ComponentImporter).
			WithError(rej.Err).
			With("row", rej.Row).
			ToSlice()...)
	}

	saved, err := s.store.SaveTransactions(ctx, parsed.Transactions)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save transactions: %w", err)
	}

	slog.InfoContext(ctx, "Imported transactions", log.NewFields().
		WithComponent(log.ComponentService).
		WithOperation(log.OpImport).
		WithCount(saved).
		With("rejected", len(parsed.Rejected)).
		ToSlice()...)

	if saved > 0 {
		s.requestRecompute(ctx, amqp.ReasonImport)
	}
	return ImportResult{Saved: saved, Rejected: parsed.Rejected}, nil
}

// DeleteTransaction removes one stored transaction by id.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &core.ValidationError{Field: "id", Reason: "is empty"}
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.requestRecompute(ctx, amqp.ReasonDelete)
	return nil
}

// Categories lists the categories that have stored transactions.
func (s *BudgetService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.Categories(ctx)
}

// Statement returns the rollover entries of category for q. Categories
// without rollover have no statement.
func (s *BudgetService) Statement(ctx context.Context, q Query, category core.Category) ([]rollover.Entry, error) {
	snap, err := s.Snapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	if snap.Ledger == nil {
		return nil, storage.ErrNoPlan
	}
	if !snap.Plan.Categories[category].RolloverEnabled {
		return nil, fmt.Errorf("%w: %s does not roll over", ErrNoRollover, category)
	}
	return snap.Ledger.Statement(category), nil
}

// SetPlan validates and stores a new budget plan.
func (s *BudgetService) SetPlan(ctx context.Context, plan core.BudgetPlan) error {
	if err := s.store.SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	s.requestRecompute(ctx, amqp.ReasonPlan)
	return nil
}

// SyncPlan copies the plan maintained in reader into the store.
func (s *BudgetService) SyncPlan(ctx context.Context, reader sheets.PlanReader) (core.BudgetPlan, error) {
	plan, err := reader.ReadPlan(ctx)
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("read plan: %w", err)
	}
	if err := s.SetPlan(ctx, plan); err != nil {
		return core.BudgetPlan{}, err
	}
	return plan, nil
}

// Plan returns the stored plan.
func (s *BudgetService) Plan(ctx context.Context) (core.BudgetPlan, error) {
	return s.store.GetPlan(ctx)
}

// RequestRecompute asks the worker to rebuild reports.
func (s *BudgetService) RequestRecompute(ctx context.Context, reason string) error {
	if s.publisher == nil {
		return errors.New("no recompute publisher configured")
	}
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return fmt.Errorf("read revision: %w", err)
	}
	return s.publisher.PublishRecompute(ctx, reason, rev)
}

func (s *BudgetService) requestRecompute(ctx context.Context, reason string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No recompute publisher, skipping", log.FieldReason, reason)
		return
	}
	if err := s.RequestRecompute(ctx, reason); err != nil {
		// The data is stored; the worker's schedule will catch up.
		slog.ErrorContext(ctx, "Failed to publish recompute request", log.NewFields().
			WithComponent(log.ComponentService).
			WithOperation(log.OpPublish).
			WithReason(reason).
			WithError(err).
			ToSlice()...)
	}
}

// Revision reports the store revision snapshots are keyed by.
func (s *BudgetService) Revision(ctx context.Context) (int64, error) {
	return s.store.Revision(ctx)
}

// Snapshot computes every report for q, reusing a cached result when the
// store has not changed since.
func (s *BudgetService) Snapshot(ctx context.Context, q Query) (*Snapshot, error) {
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("read revision: %w", err)
	}
	key := q.key(rev)
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(key); ok {
			slog.DebugContext(ctx, "Snapshot cache hit", log.FieldComponent, log.ComponentCache, log.FieldRevision, rev)
			return snap, nil
		}
	}

	var (
		txns    []core.Transaction
		plan    core.BudgetPlan
		hasPlan bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = s.store.ListTransactions(gctx, core.Date{}, core.Date{})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		p, err := s.store.GetPlan(gctx)
		switch {
		case errors.Is(err, storage.ErrNoPlan):
			return nil
		case err != nil:
			return fmt.Errorf("load plan: %w", err)
		}
		plan, hasPlan = p, true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := s.compute(rev, txns, plan, hasPlan, q)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Computed snapshot", log.NewFields().
		WithComponent(log.ComponentService).
		WithOperation(log.OpReport).
		WithRevision(rev).
		WithCount(len(txns)).
		WithDuration(time.Since(start).Milliseconds(), true).
		ToSlice()...)

	if s.snapshots != nil {
		s.snapshots.Set(key, snap)
	}
	return snap, nil
}

func (s *BudgetService) compute(rev int64, txns []core.Transaction, plan core.BudgetPlan, hasPlan bool, q Query) (*Snapshot, error) {
	snap := &Snapshot{
		Revision:     rev,
		HasPlan:      hasPlan,
		Plan:         plan,
		Transactions: len(txns),
		Weekly:       aggregate.AggregateWeekly(txns, q.Filters),
		ComputedAt:   time.Now().UTC(),
	}
	snap.Trend = trend.Summarize(aggregate.NetIncomeByPeriod(txns, q.granularity(), q.Filters), s.trendWindow)

	if !hasPlan {
		return snap, nil
	}

	var err error
	if snap.Ledger, err = rollover.NewLedger(snap.Weekly, plan); err != nil {
		return nil, fmt.Errorf("rollover ledger: %w", err)
	}
	if snap.WeeklyReport, err = budget.BuildWeeklyReport(snap.Weekly, plan); err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}
	if snap.Monthly, err = budget.BuildMonthlyReport(snap.Weekly, plan); err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	historic := make([]core.PeriodAggregate, len(snap.Weekly))
	for i, w := range snap.Weekly {
		historic[i] = w.PeriodAggregate
	}
	snap.Prediction = cashflow.PredictCashFlow(plan, historic)
	return snap, nil
}

// Publish writes a snapshot's reports through w. Reports that need a plan
// are skipped when there is none.
func (s *BudgetService) Publish(ctx context.Context, w sheets.ReportWriter, snap *Snapshot) error {
	if snap.HasPlan {
		if err := w.WriteWeeklyReport(ctx, snap.WeeklyReport); err != nil {
			return fmt.Errorf("write weekly report: %w", err)
		}
		if err := w.WriteMonthlyReport(ctx, snap.Monthly); err != nil {
			return fmt.Errorf("write monthly report: %w", err)
		}
	}
	if err := w.WriteTrend(ctx, snap.Trend); err != nil {
		return fmt.Errorf("write trend: %w", err)
	}
	return nil
}

// Close releases the store and publisher when they hold resources.
func (s *BudgetService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %w", errors.Join(errs...))
	}
	return nil
}
