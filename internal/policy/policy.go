// Package policy decides which transactions take part in a view and how much
// each one counts.
package policy

import "budget/internal/core"

// Filters selects the transactions shown in a view. Zero-valued range bounds
// are open.
type Filters struct {
	HiddenCategories map[core.Category]bool
	ShowVacation     bool
	IncludeTransfers bool
	DateRangeStart   core.Date
	DateRangeEnd     core.Date
}

// DefaultFilters shows everything except transfers.
func DefaultFilters() Filters {
	return Filters{ShowVacation: true}
}

// DisplayAmount is the amount used by every aggregate and comparison.
// Redeemable transactions count at their redemption rate.
func DisplayAmount(t core.Transaction) float64 {
	if t.Redeemable {
		return t.Amount * t.RedemptionRate
	}
	return t.Amount
}

// PassesFilter reports whether t participates in the view described by f.
// Both range bounds are inclusive.
func PassesFilter(t core.Transaction, f Filters) bool {
	if f.HiddenCategories[t.Category] {
		return false
	}
	if t.Vacation && !f.ShowVacation {
		return false
	}
	if t.Transfer && !f.IncludeTransfers {
		return false
	}
	if !f.DateRangeStart.IsZero() && t.Date.Before(f.DateRangeStart) {
		return false
	}
	if !f.DateRangeEnd.IsZero() && t.Date.After(f.DateRangeEnd) {
		return false
	}
	return true
}
