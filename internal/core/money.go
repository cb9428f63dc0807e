// This file contains functions for parsing signed monetary amounts from
// strings and formatting them for reports.
package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a signed decimal string to a float64 amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a leading
// currency symbol, thousands grouping (1,234 or 1.234,50), and accounting
// negatives written in parentheses. A lone comma followed by exactly three
// digits is grouping, not a decimal separator.
//
// Examples:
//
//	ParseAmount("-12.34")    -> -12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("$1,234.50") -> 1234.5, nil
//	ParseAmount("-1,200")    -> -1200, nil
//	ParseAmount("(45.00)")   -> -45, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	s = strings.TrimLeft(s, "$€£ ")
	s, ok := normalizeSeparators(s)
	if !ok || s == "" || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if negative {
		if d.IsNegative() {
			return 0, ErrInvalidAmount
		}
		d = d.Neg()
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return f, nil
}

var (
	commaGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	dotGrouped   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
)

// normalizeSeparators rewrites s to a plain dot-decimal number. Grouping
// must be regular; anything else with more than one separator is rejected.
func normalizeSeparators(s string) (string, bool) {
	commas, dots := strings.Count(s, ","), strings.Count(s, ".")
	switch {
	case commas == 0:
		return s, true
	case commaGrouped.MatchString(s):
		return strings.ReplaceAll(s, ",", ""), true
	case dots > 0 && dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1), true
	case commas == 1 && dots == 0:
		return strings.Replace(s, ",", ".", 1), true
	default:
		return "", false
	}
}

// FormatAmount renders an amount rounded half away from zero to two decimals.
// Non-finite values are rendered as-is so they remain visible.
func FormatAmount(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return decimal.NewFromFloat(f).StringFixed(2)
}
