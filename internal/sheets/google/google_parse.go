package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"
)

// parsePlan converts a values matrix (as returned by the Sheets API) into a
// budget plan. The first row must name the Category and Weekly Target
// columns; a Rollover column is optional. Blank rows are skipped.
func parsePlan(values [][]interface{}, lastModified string) (core.BudgetPlan, error) {
	plan := core.BudgetPlan{
		Categories:   make(map[core.Category]core.CategoryBudget),
		LastModified: lastModified,
	}
	if len(values) == 0 {
		return plan, errors.New("plan sheet is empty")
	}

	headers := toStrings(values[0])
	colCategory := indexOf(headers, "Category")
	colTarget := indexOf(headers, "Weekly Target")
	colRollover := indexOf(headers, "Rollover")
	if colCategory == -1 || colTarget == -1 {
		return plan, fmt.Errorf("unexpected plan header: need Category and Weekly Target; got headers=%v", headers)
	}

	var errs []error
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, colCategory)
		if name == "" {
			continue
		}
		category, err := core.ParseCategory(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		if _, dup := plan.Categories[category]; dup {
			errs = append(errs, fmt.Errorf("row %d: category %s listed twice", i+1, category))
			continue
		}
		target, err := core.ParseAmount(safeGet(row, colTarget))
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: weekly target %q: %w", i+1, safeGet(row, colTarget), err))
			continue
		}
		plan.Categories[category] = core.CategoryBudget{
			WeeklyTarget:    target,
			RolloverEnabled: isTrue(safeGet(row, colRollover)),
		}
	}
	if len(errs) > 0 {
		return plan, errors.Join(errs...)
	}
	if err := plan.Validate(); err != nil {
		return plan, fmt.Errorf("plan sheet: %w", err)
	}
	return plan, nil
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "x", "✓":
		return true
	}
	return false
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			// %v would switch to exponent form for large targets
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
