package sheets

import (
	"strconv"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/trend"
)

var (
	WeeklyHeader  = []any{"Week", "Category", "Actual", "Target", "Variance", "Rollover", "Effective Target"}
	MonthlyHeader = []any{"Month", "Category", "Weeks", "Actual", "Target", "Variance", "Rollover", "Effective Target"}
	TrendHeader   = []any{"Period", "Income", "Expense", "Net", "Average"}
)

// WeeklyRows lays out a weekly report as a header plus one row per
// comparison. Amounts are rounded to cents for display.
func WeeklyRows(report []budget.WeeklyBudgetComparison) [][]any {
	rows := make([][]any, 0, len(report)+1)
	rows = append(rows, WeeklyHeader)
	for _, c := range report {
		rows = append(rows, []any{
			c.Week().String(),
			c.Category().String(),
			core.FormatAmount(c.Actual()),
			core.FormatAmount(c.Target()),
			core.FormatAmount(c.Variance()),
			core.FormatAmount(c.RolloverAccumulated()),
			core.FormatAmount(c.EffectiveTarget()),
		})
	}
	return rows
}

func MonthlyRows(report []budget.MonthlyBudgetComparison) [][]any {
	rows := make([][]any, 0, len(report)+1)
	rows = append(rows, MonthlyHeader)
	for _, c := range report {
		rows = append(rows, []any{
			c.Month().String(),
			c.Category().String(),
			strconv.Itoa(c.Weeks()),
			core.FormatAmount(c.Actual()),
			core.FormatAmount(c.Target()),
			core.FormatAmount(c.Variance()),
			core.FormatAmount(c.RolloverAccumulated()),
			core.FormatAmount(c.EffectiveTarget()),
		})
	}
	return rows
}

func TrendRows(points []trend.Point) [][]any {
	rows := make([][]any, 0, len(points)+1)
	rows = append(rows, TrendHeader)
	for _, p := range points {
		rows = append(rows, []any{
			p.Period,
			core.FormatAmount(p.Income),
			core.FormatAmount(p.Expense),
			core.FormatAmount(p.Net),
			core.FormatAmount(p.Average),
		})
	}
	return rows
}
