package budget

import (
	"fmt"
	"sort"

	"budget/internal/core"
	"budget/internal/rollover"
)

type weekCategory struct {
	week     core.WeekID
	category core.Category
}

// BuildWeeklyReport compares every (week, category) present in history
// against the plan. Categories without a budget are left out. The history
// and plan are validated first; the result is ordered by week then category.
func BuildWeeklyReport(history []core.WeeklyAggregate, plan core.BudgetPlan) ([]WeeklyBudgetComparison, error) {
	ledger, err := rollover.NewLedger(history, plan)
	if err != nil {
		return nil, err
	}
	return weeklyReport(history, ledger)
}

func weeklyReport(history []core.WeeklyAggregate, ledger *rollover.Ledger) ([]WeeklyBudgetComparison, error) {
	plan := ledger.Plan()
	actuals := make(map[weekCategory]float64)
	for _, a := range history {
		if _, ok := plan.Budget(a.Category); !ok {
			continue
		}
		actuals[weekCategory{week: a.Week, category: a.Category}] += a.Amount
	}

	keys := make([]weekCategory, 0, len(actuals))
	for k := range actuals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := keys[i].week.Compare(keys[j].week); c != 0 {
			return c < 0
		}
		return keys[i].category < keys[j].category
	})

	out := make([]WeeklyBudgetComparison, 0, len(keys))
	for _, k := range keys {
		b, _ := plan.Budget(k.category)
		cmp, err := CompareToWeeklyBudget(k.week, k.category, actuals[k], b.WeeklyTarget, ledger.Accumulated(k.category, k.week))
		if err != nil {
			return nil, err
		}
		out = append(out, cmp)
	}
	return out, nil
}

// MonthlyBudgetComparison is a month's view derived from the weekly ledger.
type MonthlyBudgetComparison struct {
	month               core.MonthID
	category            core.Category
	weeks               int
	actual              float64
	target              float64
	variance            float64
	rolloverAccumulated float64
	effectiveTarget     float64
}

func (c MonthlyBudgetComparison) Month() core.MonthID { return c.month }
func (c MonthlyBudgetComparison) Category() core.Category { return c.category }
func (c MonthlyBudgetComparison) Weeks() int { return c.weeks }
func (c MonthlyBudgetComparison) Actual() float64 { return c.actual }
func (c MonthlyBudgetComparison) Target() float64 { return c.target }
func (c MonthlyBudgetComparison) Variance() float64 { return c.variance }
func (c MonthlyBudgetComparison) RolloverAccumulated() float64 { return c.rolloverAccumulated }
func (c MonthlyBudgetComparison) EffectiveTarget() float64 { return c.effectiveTarget }

type monthCategory struct {
	month    core.MonthID
	category core.Category
}

// BuildMonthlyReport sums the weekly comparisons of each month. A week
// belongs to the month containing its Thursday. The monthly target is the
// weekly target times the number of weeks in the month, and the rollover is
// what the ledger carries into the month's first week.
func BuildMonthlyReport(history []core.WeeklyAggregate, plan core.BudgetPlan) ([]MonthlyBudgetComparison, error) {
	ledger, err := rollover.NewLedger(history, plan)
	if err != nil {
		return nil, err
	}
	weekly, err := weeklyReport(history, ledger)
	if err != nil {
		return nil, err
	}

	actuals := make(map[monthCategory]float64)
	var keys []monthCategory
	for _, w := range weekly {
		k := monthCategory{month: w.Week().Month(), category: w.Category()}
		if _, seen := actuals[k]; !seen {
			keys = append(keys, k)
		}
		actuals[k] += w.Actual()
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if c := keys[i].month.Compare(keys[j].month); c != 0 {
			return c < 0
		}
		return keys[i].category < keys[j].category
	})

	out := make([]MonthlyBudgetComparison, 0, len(keys))
	for _, k := range keys {
		weeks := k.month.Weeks()
		if len(weeks) == 0 {
			return nil, fmt.Errorf("month %s has no weeks", k.month)
		}
		b, _ := plan.Budget(k.category)
		var target float64
		for range weeks {
			target += b.WeeklyTarget
		}
		carried := ledger.Accumulated(k.category, weeks[0])
		f, err := compare(k.category, k.month.String(), actuals[k], target, carried)
		if err != nil {
			return nil, err
		}
		out = append(out, MonthlyBudgetComparison{
			month:               k.month,
			category:            k.category,
			weeks:               len(weeks),
			actual:              f.actual,
			target:              f.target,
			variance:            f.variance,
			rolloverAccumulated: f.rollover,
			effectiveTarget:     f.effectiveTarget,
		})
	}
	return out, nil
}
