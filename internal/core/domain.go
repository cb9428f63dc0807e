// Package core defines the budget domain: transactions, categories, period
// identifiers, budget plans and the error taxonomy shared by the engine.
//
// Amount sign convention: positive amounts are income or inflow, negative
// amounts are expenses or outflow.
package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by transactions and statements.
const DateLayout = "2006-01-02"

// Category is the closed budget category enumeration.
type Category string

const (
	CategoryIncome         Category = "income"
	CategoryHousing        Category = "housing"
	CategoryUtilities      Category = "utilities"
	CategoryGroceries      Category = "groceries"
	CategoryDining         Category = "dining"
	CategoryTransportation Category = "transportation"
	CategoryHealthcare     Category = "healthcare"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryTravel         Category = "travel"
	CategoryInvestment     Category = "investment"
	CategoryOther          Category = "other"
)

// Granularity selects the bucketing period.
type Granularity string

const (
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

type (
	// Date is a calendar day, normalized to midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is owned by the persistence layer; the engine only reads it.
	Transaction struct {
		ID          string
		Date        Date
		Description string
		// Positive = income/inflow, negative = expense/outflow.
		Amount              float64
		Category            Category
		Redeemable          bool
		Vacation            bool
		Transfer            bool
		RedemptionRate      float64
		LinkedTransactionID *string
		StatementIDs        []string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrEmptyID            = errors.New("empty transaction id")
)

var allCategories = []Category{
	CategoryIncome, CategoryHousing, CategoryUtilities, CategoryGroceries,
	CategoryDining, CategoryTransportation, CategoryHealthcare, CategoryEntertainment,
	CategoryShopping, CategoryTravel, CategoryInvestment, CategoryOther,
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// IsValid reports whether c belongs to the enumeration.
func (c Category) IsValid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (c Category) String() string {
	return string(c)
}

// ParseCategory normalizes case and whitespace before checking the enumeration.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// ParseGranularity accepts "week" or "month".
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Validate checks the fields the engine reads. It is used by importers and
// storage; the engine itself trusts its inputs.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("transaction %s: %w: not finite", t.ID, ErrInvalidAmount)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("transaction %s: %w: %q", t.ID, ErrInvalidCategory, t.Category)
	}
	if math.IsNaN(t.RedemptionRate) || t.RedemptionRate < 0 || t.RedemptionRate > 1 {
		return fmt.Errorf("transaction %s: redemption rate %v outside [0,1]", t.ID, t.RedemptionRate)
	}
	return nil
}
