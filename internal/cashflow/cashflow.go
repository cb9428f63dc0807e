// Package cashflow projects net income from a budget plan and compares it
// with what the history actually shows.
package cashflow

import (
	"math"

	"budget/internal/core"
)

// CashFlowPrediction is the plan's projected net income next to the
// historic per-period averages.
type CashFlowPrediction struct {
	TotalIncomeTarget  float64 `json:"totalIncomeTarget"`
	TotalExpenseTarget float64 `json:"totalExpenseTarget"`
	PredictedNetIncome float64 `json:"predictedNetIncome"`
	HistoricAvgIncome  float64 `json:"historicAvgIncome"`
	HistoricAvgExpense float64 `json:"historicAvgExpense"`
	Variance           float64 `json:"variance"`
	HistoricPeriods    int     `json:"historicPeriods"`
}

// HasHistory reports whether any historic period contributed to the averages,
// even when those periods netted to zero.
func (p CashFlowPrediction) HasHistory() bool {
	return p.HistoricPeriods > 0
}

// PredictCashFlow sums the plan's positive and negative targets and averages
// income and expense over the distinct periods in historic. An empty history
// yields zero averages.
func PredictCashFlow(plan core.BudgetPlan, historic []core.PeriodAggregate) CashFlowPrediction {
	var p CashFlowPrediction
	for _, c := range plan.SortedCategories() {
		target := plan.Categories[c].WeeklyTarget
		switch {
		case target > 0:
			p.TotalIncomeTarget += target
		case target < 0:
			p.TotalExpenseTarget += math.Abs(target)
		}
	}
	p.PredictedNetIncome = p.TotalIncomeTarget - p.TotalExpenseTarget

	periods := make(map[string]struct{})
	var income, expense float64
	for _, a := range historic {
		periods[a.Period] = struct{}{}
		if a.Amount > 0 {
			income += a.Amount
		} else {
			expense += math.Abs(a.Amount)
		}
	}
	p.HistoricPeriods = len(periods)
	if n := float64(p.HistoricPeriods); n > 0 {
		p.HistoricAvgIncome = income / n
		p.HistoricAvgExpense = expense / n
	}

	p.Variance = p.PredictedNetIncome - (p.HistoricAvgIncome - p.HistoricAvgExpense)
	return p
}
