package sheets

import (
	"testing"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/trend"
)

func TestWeeklyRows(t *testing.T) {
	cmp, err := budget.CompareToWeeklyBudget(core.MustParseWeekID("2025-W02"), core.CategoryGroceries, -450.125, -500, 100)
	if err != nil {
		t.Fatal(err)
	}
	rows := WeeklyRows([]budget.WeeklyBudgetComparison{cmp})
	if len(rows) != 2 {
		t.Fatalf("WeeklyRows() returned %d rows, want 2", len(rows))
	}
	if rows[0][0] != "Week" {
		t.Errorf("missing header: %v", rows[0])
	}
	want := []any{"2025-W02", "groceries", "-450.13", "-500.00", "49.88", "100.00", "-400.00"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("column %d = %v, want %v", i, rows[1][i], v)
		}
	}
}

func TestTrendRowsEmpty(t *testing.T) {
	rows := TrendRows(nil)
	if len(rows) != 1 || len(rows[0]) != len(TrendHeader) {
		t.Errorf("TrendRows(nil) = %v", rows)
	}
	rows = TrendRows([]trend.Point{{Period: "2025-01", Net: 10, Average: 10}})
	if rows[1][3] != "10.00" {
		t.Errorf("net cell = %v", rows[1][3])
	}
}

func TestMonthlyRowsEmpty(t *testing.T) {
	if rows := MonthlyRows(nil); len(rows) != 1 {
		t.Errorf("MonthlyRows(nil) = %v", rows)
	}
}
