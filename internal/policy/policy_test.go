package policy

import (
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestDisplayAmount(t *testing.T) {
	tests := []struct {
		name string
		txn  core.Transaction
		want float64
	}{
		{
			name: "redeemable at half rate",
			txn:  core.Transaction{Amount: -100, Redeemable: true, RedemptionRate: 0.5},
			want: -50,
		},
		{
			name: "non-redeemable ignores rate",
			txn:  core.Transaction{Amount: -100, Redeemable: false, RedemptionRate: 0.5},
			want: -100,
		},
		{
			name: "redeemable at zero rate",
			txn:  core.Transaction{Amount: -80, Redeemable: true, RedemptionRate: 0},
			want: 0,
		},
		{
			name: "income fully redeemed",
			txn:  core.Transaction{Amount: 1200, Redeemable: true, RedemptionRate: 1},
			want: 1200,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayAmount(tt.txn))
		})
	}
}

func TestPassesFilter(t *testing.T) {
	base := core.Transaction{
		ID:       "t1",
		Date:     core.NewDate(2025, 1, 15),
		Amount:   -20,
		Category: core.CategoryDining,
	}

	tests := []struct {
		name    string
		mutate  func(*core.Transaction)
		filters Filters
		want    bool
	}{
		{
			name:    "plain transaction passes defaults",
			filters: DefaultFilters(),
			want:    true,
		},
		{
			name:    "hidden category excluded",
			filters: Filters{ShowVacation: true, HiddenCategories: map[core.Category]bool{core.CategoryDining: true}},
			want:    false,
		},
		{
			name:    "vacation hidden",
			mutate:  func(t *core.Transaction) { t.Vacation = true },
			filters: Filters{ShowVacation: false},
			want:    false,
		},
		{
			name:    "vacation shown",
			mutate:  func(t *core.Transaction) { t.Vacation = true },
			filters: Filters{ShowVacation: true},
			want:    true,
		},
		{
			name:    "transfer excluded by default",
			mutate:  func(t *core.Transaction) { t.Transfer = true },
			filters: DefaultFilters(),
			want:    false,
		},
		{
			name:    "transfer included on request",
			mutate:  func(t *core.Transaction) { t.Transfer = true },
			filters: Filters{ShowVacation: true, IncludeTransfers: true},
			want:    true,
		},
		{
			name:    "start bound inclusive",
			filters: Filters{ShowVacation: true, DateRangeStart: core.NewDate(2025, 1, 15)},
			want:    true,
		},
		{
			name:    "end bound inclusive",
			filters: Filters{ShowVacation: true, DateRangeEnd: core.NewDate(2025, 1, 15)},
			want:    true,
		},
		{
			name:    "before range",
			filters: Filters{ShowVacation: true, DateRangeStart: core.NewDate(2025, 1, 16)},
			want:    false,
		},
		{
			name:    "after range",
			filters: Filters{ShowVacation: true, DateRangeEnd: core.NewDate(2025, 1, 14)},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := base
			if tt.mutate != nil {
				tt.mutate(&txn)
			}
			assert.Equal(t, tt.want, PassesFilter(txn, tt.filters))
		})
	}
}
