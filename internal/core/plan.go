package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// MaxWeeklyTarget bounds the magnitude of any category's weekly target.
const MaxWeeklyTarget = 1_000_000

type (
	// CategoryBudget is a weekly target for one category. Income targets are
	// positive, every other category is negative. Zero is not allowed: a
	// category without a budget is simply absent from the plan.
	CategoryBudget struct {
		WeeklyTarget    float64
		RolloverEnabled bool
	}

	// BudgetPlan maps categories to their budget. LastModified must be an
	// RFC 3339 timestamp.
	BudgetPlan struct {
		Categories   map[Category]CategoryBudget
		LastModified string
	}
)

// Validate checks the sign, magnitude and non-zero rules for category c.
func (b CategoryBudget) Validate(c Category) error {
	invalid := func(reason string) error {
		return &ValidationError{Category: c, Field: "weeklyTarget", Reason: reason}
	}
	t := b.WeeklyTarget
	switch {
	case math.IsNaN(t) || math.IsInf(t, 0):
		return invalid("is not finite")
	case t == 0:
		return invalid("must not be zero")
	case math.Abs(t) > MaxWeeklyTarget:
		return invalid(fmt.Sprintf("magnitude %v exceeds %d", math.Abs(t), MaxWeeklyTarget))
	case c == CategoryIncome && t < 0:
		return invalid("must be positive for income")
	case c != CategoryIncome && t > 0:
		return invalid("must be negative for expense categories")
	}
	return nil
}

// Budget returns the configured budget for c. ok is false when the plan has
// no budget for the category.
func (p BudgetPlan) Budget(c Category) (CategoryBudget, bool) {
	b, ok := p.Categories[c]
	return b, ok
}

// SortedCategories returns the plan's categories in lexical order.
func (p BudgetPlan) SortedCategories() []Category {
	cats := make([]Category, 0, len(p.Categories))
	for c := range p.Categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Validate reports every invalid entry, joined into one error.
func (p BudgetPlan) Validate() error {
	var errs []error
	for _, c := range p.SortedCategories() {
		if !c.IsValid() {
			errs = append(errs, &ValidationError{Category: c, Field: "category", Reason: "is not a known category"})
			continue
		}
		if err := p.Categories[c].Validate(c); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := time.Parse(time.RFC3339Nano, p.LastModified); err != nil {
		errs = append(errs, &ValidationError{Field: "lastModified", Reason: fmt.Sprintf("%q is not an RFC 3339 timestamp", p.LastModified)})
	}
	return errors.Join(errs...)
}
