// Package aggregate buckets transactions into per-period category totals.
//
// Every function performs a full scan of its input and allocates fresh
// results; inputs are never modified.
package aggregate

import (
	"math"
	"sort"

	"budget/internal/core"
	"budget/internal/policy"
)

type bucketKey struct {
	period   string
	category core.Category
}

type bucket struct {
	week       core.WeekID
	amount     float64
	qualifiers core.QualifierBreakdown
}

// PeriodKey returns the bucket identifier of d: YYYY-MM for monthly
// granularity, the ISO week identifier otherwise.
func PeriodKey(d core.Date, g core.Granularity) string {
	if g == core.Monthly {
		return core.MonthOf(d).String()
	}
	return core.WeekOf(d).String()
}

func fold(txns []core.Transaction, g core.Granularity, f policy.Filters) map[bucketKey]*bucket {
	buckets := make(map[bucketKey]*bucket)
	for _, t := range txns {
		if !policy.PassesFilter(t, f) {
			continue
		}
		amount := policy.DisplayAmount(t)
		key := bucketKey{period: PeriodKey(t.Date, g), category: t.Category}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			if g != core.Monthly {
				b.week = core.WeekOf(t.Date)
			}
			buckets[key] = b
		}
		b.amount += amount
		b.qualifiers.Add(amount, t.Redeemable, t.Vacation)
	}
	return buckets
}

func sortedKeys(buckets map[bucketKey]*bucket) []bucketKey {
	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].period != keys[j].period {
			return keys[i].period < keys[j].period
		}
		return keys[i].category < keys[j].category
	})
	return keys
}

func toAggregate(k bucketKey, b *bucket, g core.Granularity) core.PeriodAggregate {
	if g != core.Monthly {
		g = core.Weekly
	}
	return core.PeriodAggregate{
		Period:      k.period,
		Granularity: g,
		Category:    k.category,
		Amount:      b.amount,
		IsIncome:    b.amount > 0,
		Qualifiers:  b.qualifiers,
	}
}

// AggregateByPeriod returns one aggregate per observed (period, category)
// pair, sorted by period then category. Transactions rejected by f are
// skipped and every amount is the display amount.
func AggregateByPeriod(txns []core.Transaction, g core.Granularity, f policy.Filters) []core.PeriodAggregate {
	buckets := fold(txns, g, f)
	out := make([]core.PeriodAggregate, 0, len(buckets))
	for _, k := range sortedKeys(buckets) {
		out = append(out, toAggregate(k, buckets[k], g))
	}
	return out
}

// AggregateWeekly is AggregateByPeriod at weekly granularity with the week's
// calendar boundaries attached.
func AggregateWeekly(txns []core.Transaction, f policy.Filters) []core.WeeklyAggregate {
	buckets := fold(txns, core.Weekly, f)
	out := make([]core.WeeklyAggregate, 0, len(buckets))
	for _, k := range sortedKeys(buckets) {
		b := buckets[k]
		start, end := b.week.Bounds()
		out = append(out, core.WeeklyAggregate{
			PeriodAggregate: toAggregate(k, b, core.Weekly),
			Week:            b.week,
			WeekStart:       start,
			WeekEnd:         end,
		})
	}
	return out
}

// PeriodNetIncome is the income and expense split of one period.
type PeriodNetIncome struct {
	Period  string
	Income  float64
	Expense float64 // absolute value of the period's negative amounts
	Net     float64
}

// NetIncomeByPeriod sums positive and negative display amounts per period,
// ignoring categories and qualifiers. The result is ordered by period.
func NetIncomeByPeriod(txns []core.Transaction, g core.Granularity, f policy.Filters) []PeriodNetIncome {
	byPeriod := make(map[string]*PeriodNetIncome)
	for _, t := range txns {
		if !policy.PassesFilter(t, f) {
			continue
		}
		amount := policy.DisplayAmount(t)
		key := PeriodKey(t.Date, g)
		p, ok := byPeriod[key]
		if !ok {
			p = &PeriodNetIncome{Period: key}
			byPeriod[key] = p
		}
		if amount > 0 {
			p.Income += amount
		} else {
			p.Expense += math.Abs(amount)
		}
	}
	out := make([]PeriodNetIncome, 0, len(byPeriod))
	for _, p := range byPeriod {
		p.Net = p.Income - p.Expense
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
