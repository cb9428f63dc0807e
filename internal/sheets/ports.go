// Package sheets defines the outbound ports reports are written through and
// the plan is read from, plus the tabular layout shared by every adapter.
package sheets

import (
	"context"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/trend"
)

// Ports for outbound adapters.
type (
	ReportWriter interface {
		WriteWeeklyReport(ctx context.Context, rows []budget.WeeklyBudgetComparison) error
		WriteMonthlyReport(ctx context.Context, rows []budget.MonthlyBudgetComparison) error
		WriteTrend(ctx context.Context, points []trend.Point) error
	}

	// PlanReader loads a budget plan maintained outside the store.
	PlanReader interface {
		ReadPlan(ctx context.Context) (core.BudgetPlan, error)
	}
)
