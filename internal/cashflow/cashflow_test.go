package cashflow

import (
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
)

func plan() core.BudgetPlan {
	return core.BudgetPlan{
		Categories: map[core.Category]core.CategoryBudget{
			core.CategoryIncome:    {WeeklyTarget: 2000},
			core.CategoryGroceries: {WeeklyTarget: -500},
			core.CategoryDining:    {WeeklyTarget: -200},
		},
		LastModified: "2025-01-01T00:00:00Z",
	}
}

func agg(period string, c core.Category, amount float64) core.PeriodAggregate {
	return core.PeriodAggregate{
		Period:      period,
		Granularity: core.Weekly,
		Category:    c,
		Amount:      amount,
		IsIncome:    amount > 0,
	}
}

func TestPredictCashFlow(t *testing.T) {
	historic := []core.PeriodAggregate{
		agg("2025-W02", core.CategoryIncome, 1800),
		agg("2025-W02", core.CategoryGroceries, -450),
	}

	got := PredictCashFlow(plan(), historic)

	assert.Equal(t, CashFlowPrediction{
		TotalIncomeTarget:  2000,
		TotalExpenseTarget: 700,
		PredictedNetIncome: 1300,
		HistoricAvgIncome:  1800,
		HistoricAvgExpense: 450,
		Variance:           -50,
		HistoricPeriods:    1,
	}, got)
	assert.True(t, got.HasHistory())
}

func TestPredictCashFlowAveragesOverPeriods(t *testing.T) {
	historic := []core.PeriodAggregate{
		agg("2025-W02", core.CategoryIncome, 1800),
		agg("2025-W02", core.CategoryGroceries, -450),
		agg("2025-W03", core.CategoryIncome, 2200),
		agg("2025-W03", core.CategoryDining, -150),
		agg("2025-W03", core.CategoryGroceries, -400),
	}

	got := PredictCashFlow(plan(), historic)

	assert.Equal(t, 2000.0, got.HistoricAvgIncome)
	assert.Equal(t, 500.0, got.HistoricAvgExpense)
	assert.Equal(t, -200.0, got.Variance)
	assert.Equal(t, 2, got.HistoricPeriods)
}

func TestPredictCashFlowZeroAmountHistory(t *testing.T) {
	historic := []core.PeriodAggregate{
		agg("2025-W02", core.CategoryGroceries, 0),
		agg("2025-W03", core.CategoryDining, 0),
	}

	got := PredictCashFlow(plan(), historic)

	assert.Equal(t, 0.0, got.HistoricAvgIncome)
	assert.Equal(t, 0.0, got.HistoricAvgExpense)
	assert.Equal(t, 2, got.HistoricPeriods)
	assert.True(t, got.HasHistory())
}

func TestPredictCashFlowEmptyHistory(t *testing.T) {
	got := PredictCashFlow(plan(), nil)

	assert.Equal(t, 0.0, got.HistoricAvgIncome)
	assert.Equal(t, 0.0, got.HistoricAvgExpense)
	assert.Equal(t, 1300.0, got.Variance)
	assert.Equal(t, 0, got.HistoricPeriods)
	assert.False(t, got.HasHistory())
}

func TestPredictCashFlowEmptyPlan(t *testing.T) {
	got := PredictCashFlow(core.BudgetPlan{}, []core.PeriodAggregate{agg("2025-01", core.CategoryIncome, 100)})

	assert.Equal(t, 0.0, got.PredictedNetIncome)
	assert.Equal(t, -100.0, got.Variance)
}

func TestPredictCashFlowIsRepeatable(t *testing.T) {
	historic := []core.PeriodAggregate{agg("2025-W02", core.CategoryIncome, 1800)}
	assert.Equal(t, PredictCashFlow(plan(), historic), PredictCashFlow(plan(), historic))
}
