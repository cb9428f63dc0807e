// Package budget compares actual spending with the effective budget, which
// is the weekly target plus the accumulated rollover.
package budget

import (
	"math"

	"budget/internal/core"
)

// WeeklyBudgetComparison is immutable and can only be built by
// CompareToWeeklyBudget.
type WeeklyBudgetComparison struct {
	week                core.WeekID
	category            core.Category
	actual              float64
	target              float64
	variance            float64
	rolloverAccumulated float64
	effectiveTarget     float64
}

func (c WeeklyBudgetComparison) Week() core.WeekID { return c.week }
func (c WeeklyBudgetComparison) Category() core.Category { return c.category }
func (c WeeklyBudgetComparison) Actual() float64 { return c.actual }
func (c WeeklyBudgetComparison) Target() float64 { return c.target }
func (c WeeklyBudgetComparison) Variance() float64 { return c.variance }
func (c WeeklyBudgetComparison) RolloverAccumulated() float64 { return c.rolloverAccumulated }
func (c WeeklyBudgetComparison) EffectiveTarget() float64 { return c.effectiveTarget }

type figures struct {
	actual, target, rollover  float64
	variance, effectiveTarget float64
}

// compare validates the inputs and derives variance and effective target.
// period labels the error; it is a week or month identifier.
func compare(category core.Category, period string, actual, target, rollover float64) (figures, error) {
	inputs := []struct {
		field string
		value float64
	}{
		{"actual", actual},
		{"target", target},
		{"rolloverAccumulated", rollover},
	}
	for _, in := range inputs {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return figures{}, &core.ValidationError{
				Category: category,
				Week:     period,
				Field:    in.field,
				Reason:   "is not finite",
			}
		}
	}

	f := figures{
		actual:          actual,
		target:          target,
		rollover:        rollover,
		variance:        actual - target,
		effectiveTarget: target + rollover,
	}
	if math.IsInf(f.variance, 0) || math.IsNaN(f.variance) {
		return figures{}, &core.OverflowError{Category: category, Week: period, Field: "variance"}
	}
	if math.IsInf(f.effectiveTarget, 0) || math.IsNaN(f.effectiveTarget) {
		return figures{}, &core.OverflowError{Category: category, Week: period, Field: "effectiveTarget"}
	}
	return f, nil
}

// CompareToWeeklyBudget is the only way to build a WeeklyBudgetComparison.
// It rejects a zero week or non-finite inputs with a *core.ValidationError
// and non-finite derived values with a *core.OverflowError. Values are never
// rounded.
func CompareToWeeklyBudget(week core.WeekID, category core.Category, actual, target, rolloverAccumulated float64) (WeeklyBudgetComparison, error) {
	if week.IsZero() {
		return WeeklyBudgetComparison{}, &core.ValidationError{Category: category, Field: "week", Reason: "is not set"}
	}
	f, err := compare(category, week.String(), actual, target, rolloverAccumulated)
	if err != nil {
		return WeeklyBudgetComparison{}, err
	}
	return WeeklyBudgetComparison{
		week:                week,
		category:            category,
		actual:              f.actual,
		target:              f.target,
		variance:            f.variance,
		rolloverAccumulated: f.rollover,
		effectiveTarget:     f.effectiveTarget,
	}, nil
}
