// Package memory keeps written reports in process. It backs the "memory"
// report backend and stands in for Google Sheets in tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"budget/internal/budget"
	"budget/internal/core"
	ports "budget/internal/sheets"
	"budget/internal/trend"
)

// ErrNoPlan is returned by ReadPlan when no plan was seeded.
var ErrNoPlan = errors.New("memory store has no plan")

type Store struct {
	mu      sync.Mutex
	plan    *core.BudgetPlan
	weekly  [][]any
	monthly [][]any
	trend   [][]any
	writes  int
}

var (
	_ ports.ReportWriter = (*Store)(nil)
	_ ports.PlanReader   = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// SetPlan seeds the plan returned by ReadPlan.
func (s *Store) SetPlan(plan core.BudgetPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = &plan
}

func (s *Store) ReadPlan(_ context.Context) (core.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return core.BudgetPlan{}, ErrNoPlan
	}
	return *s.plan, nil
}

func (s *Store) WriteWeeklyReport(_ context.Context, report []budget.WeeklyBudgetComparison) error {
	rows := ports.WeeklyRows(report)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekly = rows
	s.writes++
	return nil
}

func (s *Store) WriteMonthlyReport(_ context.Context, report []budget.MonthlyBudgetComparison) error {
	rows := ports.MonthlyRows(report)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly = rows
	s.writes++
	return nil
}

func (s *Store) WriteTrend(_ context.Context, points []trend.Point) error {
	rows := ports.TrendRows(points)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trend = rows
	s.writes++
	return nil
}

// Weekly returns the last weekly report written, header included.
func (s *Store) Weekly() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekly
}

func (s *Store) Monthly() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monthly
}

func (s *Store) Trend() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trend
}

// Writes counts every report written since creation.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
