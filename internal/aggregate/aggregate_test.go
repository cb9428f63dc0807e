package aggregate

import (
	"testing"

	"budget/internal/core"
	"budget/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(id string, date core.Date, amount float64, category core.Category) core.Transaction {
	return core.Transaction{ID: id, Date: date, Amount: amount, Category: category}
}

func sampleTransactions() []core.Transaction {
	redeemable := txn("r1", core.NewDate(2025, 1, 7), -100, core.CategoryGroceries)
	redeemable.Redeemable = true
	redeemable.RedemptionRate = 0.5

	vacation := txn("v1", core.NewDate(2025, 1, 8), -30, core.CategoryDining)
	vacation.Vacation = true

	transfer := txn("x1", core.NewDate(2025, 1, 9), -500, core.CategoryOther)
	transfer.Transfer = true

	return []core.Transaction{
		txn("p1", core.NewDate(2025, 1, 10), 1800, core.CategoryIncome),
		redeemable,
		txn("g2", core.NewDate(2025, 1, 6), -25, core.CategoryGroceries),
		vacation,
		transfer,
		txn("g3", core.NewDate(2025, 1, 14), -60, core.CategoryGroceries),
		txn("g4", core.NewDate(2025, 2, 3), -70, core.CategoryGroceries),
	}
}

func TestAggregateByPeriodWeekly(t *testing.T) {
	got := AggregateByPeriod(sampleTransactions(), core.Weekly, policy.DefaultFilters())

	require.Len(t, got, 5)
	assert.Equal(t, "2025-W02", got[0].Period)
	assert.Equal(t, core.CategoryDining, got[0].Category)
	assert.Equal(t, core.CategoryGroceries, got[1].Category)
	assert.Equal(t, core.CategoryIncome, got[2].Category)
	assert.Equal(t, "2025-W03", got[3].Period)
	assert.Equal(t, "2025-W06", got[4].Period)

	groceries := got[1]
	assert.Equal(t, -75.0, groceries.Amount)
	assert.False(t, groceries.IsIncome)
	assert.Equal(t, core.Weekly, groceries.Granularity)
	assert.Equal(t, core.QualifierBreakdown{
		Redeemable:       -50,
		NonRedeemable:    -25,
		Vacation:         0,
		NonVacation:      -75,
		TransactionCount: 2,
	}, groceries.Qualifiers)

	income := got[2]
	assert.True(t, income.IsIncome)
	assert.Equal(t, 1800.0, income.Amount)

	for _, a := range got {
		assert.NoError(t, a.Validate())
		assert.NotEqual(t, core.CategoryOther, a.Category, "transfers are excluded by default")
	}
}

func TestAggregateByPeriodMonthly(t *testing.T) {
	got := AggregateByPeriod(sampleTransactions(), core.Monthly, policy.DefaultFilters())

	require.Len(t, got, 4)
	assert.Equal(t, "2025-01", got[1].Period)
	assert.Equal(t, core.CategoryGroceries, got[1].Category)
	assert.Equal(t, -135.0, got[1].Amount)
	assert.Equal(t, 3, got[1].Qualifiers.TransactionCount)
	assert.Equal(t, "2025-02", got[3].Period)
	assert.Equal(t, core.Monthly, got[3].Granularity)
}

func TestAggregateByPeriodFilters(t *testing.T) {
	f := policy.Filters{
		ShowVacation:     false,
		IncludeTransfers: true,
		HiddenCategories: map[core.Category]bool{core.CategoryIncome: true},
		DateRangeEnd:     core.NewDate(2025, 1, 12),
	}
	got := AggregateByPeriod(sampleTransactions(), core.Weekly, f)

	require.Len(t, got, 2)
	assert.Equal(t, core.CategoryGroceries, got[0].Category)
	assert.Equal(t, core.CategoryOther, got[1].Category)
	assert.Equal(t, -500.0, got[1].Amount)
}

func TestAggregateByPeriodEmpty(t *testing.T) {
	got := AggregateByPeriod(nil, core.Weekly, policy.DefaultFilters())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregateByPeriodIsIdempotent(t *testing.T) {
	txns := sampleTransactions()
	snapshot := append([]core.Transaction(nil), txns...)

	first := AggregateByPeriod(txns, core.Weekly, policy.DefaultFilters())
	second := AggregateByPeriod(txns, core.Weekly, policy.DefaultFilters())

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, txns, "input must not be mutated")
}

func TestAggregateWeeklyBounds(t *testing.T) {
	txns := []core.Transaction{
		txn("a", core.NewDate(2024, 12, 31), -10, core.CategoryDining),
		txn("b", core.NewDate(2025, 1, 2), -15, core.CategoryDining),
	}
	got := AggregateWeekly(txns, policy.DefaultFilters())

	require.Len(t, got, 1, "a week spanning two calendar years is one bucket")
	a := got[0]
	assert.Equal(t, "2025-W01", a.Period)
	assert.Equal(t, "2025-W01", a.Week.String())
	assert.True(t, a.WeekStart.Equal(core.NewDate(2024, 12, 30)))
	assert.True(t, a.WeekEnd.Equal(core.NewDate(2025, 1, 5)))
	assert.Equal(t, -25.0, a.Amount)
	assert.NoError(t, a.Validate())
}

func TestNetIncomeByPeriod(t *testing.T) {
	got := NetIncomeByPeriod(sampleTransactions(), core.Weekly, policy.DefaultFilters())

	require.Len(t, got, 3)
	assert.Equal(t, PeriodNetIncome{Period: "2025-W02", Income: 1800, Expense: 105, Net: 1695}, got[0])
	assert.Equal(t, PeriodNetIncome{Period: "2025-W03", Income: 0, Expense: 60, Net: -60}, got[1])
	assert.Equal(t, "2025-W06", got[2].Period)
}

func TestPeriodKey(t *testing.T) {
	d := core.NewDate(2024, 12, 30)
	assert.Equal(t, "2024-12", PeriodKey(d, core.Monthly))
	assert.Equal(t, "2025-W01", PeriodKey(d, core.Weekly))
}
