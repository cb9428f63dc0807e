// Package rollover carries weekly budget surplus and deficit forward per
// category.
//
// The amount carried into week W for category c is the sum, over every
// earlier week that has an aggregate for c, of actual minus weekly target.
// Weeks without transactions contribute nothing. Categories without a
// budget, or with rollover disabled, carry nothing.
package rollover

import (
	"fmt"
	"sort"

	"budget/internal/core"
)

// Accumulated folds the full history for category up to, but excluding,
// week. It holds no state between calls.
func Accumulated(category core.Category, week core.WeekID, history []core.WeeklyAggregate, plan core.BudgetPlan) float64 {
	b, ok := plan.Budget(category)
	if !ok || !b.RolloverEnabled {
		return 0
	}
	weeks, actuals := weeklyActuals(category, history)
	var sum float64
	for _, w := range weeks {
		if !w.Before(week) {
			break
		}
		sum += actuals[w] - b.WeeklyTarget
	}
	return sum
}

// weeklyActuals sums the history for one category per week and returns the
// weeks in chronological order.
func weeklyActuals(category core.Category, history []core.WeeklyAggregate) ([]core.WeekID, map[core.WeekID]float64) {
	actuals := make(map[core.WeekID]float64)
	for _, a := range history {
		if a.Category != category {
			continue
		}
		actuals[a.Week] += a.Amount
	}
	weeks := make([]core.WeekID, 0, len(actuals))
	for w := range actuals {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks, actuals
}

// Entry is one week of a category's ledger.
type Entry struct {
	Week      core.WeekID
	Actual    float64
	Target    float64
	Variance  float64
	CarriedIn float64
}

type categoryLedger struct {
	target  float64
	entries []Entry
	// prefix[i] is the amount carried into entries[i]; the last element is
	// the amount carried past the final entry.
	prefix []float64
}

// Ledger is a validated snapshot of a history and plan with per-category
// prefix sums. Its results are identical to Accumulated for the same inputs.
type Ledger struct {
	plan       core.BudgetPlan
	categories map[core.Category]*categoryLedger
}

// NewLedger validates the plan and every aggregate before building the
// prefix sums. The first inconsistency is returned.
func NewLedger(history []core.WeeklyAggregate, plan core.BudgetPlan) (*Ledger, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("budget plan: %w", err)
	}
	for _, a := range history {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	l := &Ledger{plan: plan, categories: make(map[core.Category]*categoryLedger)}
	for _, c := range plan.SortedCategories() {
		b := plan.Categories[c]
		if !b.RolloverEnabled {
			continue
		}
		weeks, actuals := weeklyActuals(c, history)
		cl := &categoryLedger{
			target:  b.WeeklyTarget,
			entries: make([]Entry, 0, len(weeks)),
			prefix:  make([]float64, 1, len(weeks)+1),
		}
		var sum float64
		for _, w := range weeks {
			variance := actuals[w] - b.WeeklyTarget
			cl.entries = append(cl.entries, Entry{
				Week:      w,
				Actual:    actuals[w],
				Target:    b.WeeklyTarget,
				Variance:  variance,
				CarriedIn: sum,
			})
			sum += variance
			cl.prefix = append(cl.prefix, sum)
		}
		l.categories[c] = cl
	}
	return l, nil
}

// Accumulated returns the amount carried into week for category.
func (l *Ledger) Accumulated(category core.Category, week core.WeekID) float64 {
	cl, ok := l.categories[category]
	if !ok {
		return 0
	}
	i := sort.Search(len(cl.entries), func(i int) bool {
		return !cl.entries[i].Week.Before(week)
	})
	return cl.prefix[i]
}

// Statement returns the category's weekly entries in chronological order,
// or nil when the category does not roll over.
func (l *Ledger) Statement(category core.Category) []Entry {
	cl, ok := l.categories[category]
	if !ok {
		return nil
	}
	return append([]Entry(nil), cl.entries...)
}

// Plan returns the plan the ledger was built from.
func (l *Ledger) Plan() core.BudgetPlan {
	return l.plan
}
