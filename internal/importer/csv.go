// Package importer loads transactions from CSV exports into the store.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"budget/internal/core"

	"github.com/google/uuid"
)

// Columns in their canonical order. Only date, amount and category are
// required in the header; the rest may be omitted.
var Columns = []string{
	"id", "date", "description", "amount", "category",
	"redeemable", "vacation", "transfer", "redemption_rate",
	"linked_transaction_id", "statement_ids",
}

var requiredColumns = []string{"date", "amount", "category"}

// ErrMissingHeader is returned when the input has no header row or the
// header lacks a required column.
var ErrMissingHeader = errors.New("csv header missing or incomplete")

// RowError describes a rejected data row. Row is 1-based and counts the
// header, so it matches what a spreadsheet shows.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// Result is the outcome of parsing one CSV file.
type Result struct {
	Transactions []core.Transaction
	Rejected     []RowError
}

// Parser turns CSV rows into validated transactions.
type Parser struct {
	newID func() string
}

func NewParser() *Parser {
	return &Parser{newID: uuid.NewString}
}

// Parse reads every row of r. Malformed rows are collected in
// Result.Rejected; only a missing header or an unreadable stream fails the
// whole parse.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrMissingHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := headerIndex(header)
	if err != nil {
		return Result{}, err
	}

	res := Result{Transactions: []core.Transaction{}}
	seen := make(map[string]int)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rejected = append(res.Rejected, RowError{Row: row, Err: err})
				continue
			}
			return res, fmt.Errorf("read row %d: %w", row, err)
		}
		if blank(record) {
			continue
		}

		t, err := p.toTransaction(cols, record)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Row: row, Err: err})
			continue
		}
		if first, dup := seen[t.ID]; dup {
			res.Rejected = append(res.Rejected, RowError{Row: row, Err: fmt.Errorf("duplicate id %q (first seen on row %d)", t.ID, first)})
			continue
		}
		seen[t.ID] = row
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[name] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: no %q column", ErrMissingHeader, c)
		}
	}
	return cols, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (p *Parser) toTransaction(cols map[string]int, record []string) (core.Transaction, error) {
	field := func(name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var t core.Transaction
	var err error

	t.ID = field("id")
	if t.ID == "" {
		t.ID = p.newID()
	}
	if t.Date, err = core.ParseDate(field("date")); err != nil {
		return t, err
	}
	t.Description = field("description")
	if t.Amount, err = core.ParseAmount(field("amount")); err != nil {
		return t, err
	}
	if t.Category, err = core.ParseCategory(field("category")); err != nil {
		return t, err
	}
	if t.Redeemable, err = parseFlag("redeemable", field("redeemable")); err != nil {
		return t, err
	}
	if t.Vacation, err = parseFlag("vacation", field("vacation")); err != nil {
		return t, err
	}
	if t.Transfer, err = parseFlag("transfer", field("transfer")); err != nil {
		return t, err
	}
	if raw := field("redemption_rate"); raw != "" {
		if t.RedemptionRate, err = parseRate(raw); err != nil {
			return t, err
		}
	}
	if linked := field("linked_transaction_id"); linked != "" {
		t.LinkedTransactionID = &linked
	}
	if raw := field("statement_ids"); raw != "" {
		for _, s := range strings.Split(raw, ";") {
			if s = strings.TrimSpace(s); s != "" {
				t.StatementIDs = append(t.StatementIDs, s)
			}
		}
	}
	return t, t.Validate()
}

func parseFlag(name, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("%s: %q is not a boolean", name, raw)
}

// parseRate accepts a fraction ("0.25") or a percentage ("25%").
func parseRate(raw string) (float64, error) {
	pct := strings.HasSuffix(raw, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("redemption_rate: %q is not a number", raw)
	}
	if pct {
		v /= 100
	}
	return v, nil
}
