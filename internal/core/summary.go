package core

import "fmt"

// QualifierBreakdown splits a bucket total along the redeemable and vacation
// axes. Redeemable+NonRedeemable and Vacation+NonVacation both equal the
// bucket's total display amount.
type QualifierBreakdown struct {
	Redeemable       float64
	NonRedeemable    float64
	Vacation         float64
	NonVacation      float64
	TransactionCount int
}

// Add folds one transaction's display amount into the breakdown.
func (q *QualifierBreakdown) Add(amount float64, redeemable, vacation bool) {
	if redeemable {
		q.Redeemable += amount
	} else {
		q.NonRedeemable += amount
	}
	if vacation {
		q.Vacation += amount
	} else {
		q.NonVacation += amount
	}
	q.TransactionCount++
}

// PeriodAggregate is the total display amount of one category in one period.
// Period is a week identifier (YYYY-Wnn) or a month identifier (YYYY-MM).
type PeriodAggregate struct {
	Period      string
	Granularity Granularity
	Category    Category
	Amount      float64
	IsIncome    bool
	Qualifiers  QualifierBreakdown
}

// WeeklyAggregate carries the week's calendar boundaries in addition to the
// period aggregate. They must match Week.Bounds().
type WeeklyAggregate struct {
	PeriodAggregate
	Week      WeekID
	WeekStart Date
	WeekEnd   Date
}

// Validate checks that IsIncome agrees with the sign of Amount.
func (a PeriodAggregate) Validate() error {
	if a.IsIncome != (a.Amount > 0) {
		return &ConsistencyError{
			Category: a.Category,
			Week:     weekLabel(a),
			Reason:   fmt.Sprintf("isIncome=%t disagrees with amount %v", a.IsIncome, a.Amount),
		}
	}
	return nil
}

// Validate checks the sign invariant and that the stored boundaries are the
// ones implied by the week identifier.
func (a WeeklyAggregate) Validate() error {
	if a.Week.IsZero() {
		return &ValidationError{Category: a.Category, Field: "week", Reason: "is not initialized"}
	}
	if a.Period != a.Week.String() {
		return &ConsistencyError{
			Category: a.Category,
			Week:     a.Week.String(),
			Reason:   fmt.Sprintf("period %q does not match week identifier", a.Period),
		}
	}
	start, end := a.Week.Bounds()
	if !a.WeekStart.Equal(start) || !a.WeekEnd.Equal(end) {
		return &ConsistencyError{
			Category: a.Category,
			Week:     a.Week.String(),
			Reason: fmt.Sprintf("stored bounds %s..%s differ from %s..%s",
				a.WeekStart, a.WeekEnd, start, end),
		}
	}
	return a.PeriodAggregate.Validate()
}

func weekLabel(a PeriodAggregate) string {
	if a.Granularity == Weekly {
		return a.Period
	}
	return ""
}
