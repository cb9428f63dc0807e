package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every engine error unwraps to exactly one of these.
var (
	ErrValidation      = errors.New("validation error")
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrDataConsistency = errors.New("data consistency error")
)

// ValidationError reports an input that violates a numeric or format rule.
type ValidationError struct {
	Category Category
	Week     string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s%s: %s %s", ErrValidation, location(e.Category, e.Week), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OverflowError reports a derived value that became non-finite.
type OverflowError struct {
	Category Category
	Week     string
	Field    string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s%s: %s is not finite", ErrOverflow, location(e.Category, e.Week), e.Field)
}

func (e *OverflowError) Unwrap() error { return ErrOverflow }

// ConsistencyError reports stored data that contradicts its own identifiers.
type ConsistencyError struct {
	Category Category
	Week     string
	Reason   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s%s: %s", ErrDataConsistency, location(e.Category, e.Week), e.Reason)
}

func (e *ConsistencyError) Unwrap() error { return ErrDataConsistency }

func location(category Category, week string) string {
	var parts []string
	if category != "" {
		parts = append(parts, "category "+string(category))
	}
	if week != "" {
		parts = append(parts, "week "+week)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
