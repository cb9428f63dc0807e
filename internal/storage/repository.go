// Package storage persists transactions and the budget plan in SQLite. It is
// the only package that talks to the database; the engine packages receive
// plain values loaded from here.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"budget/internal/core"
	"budget/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNoPlan is returned by GetPlan before any plan has been saved.
var ErrNoPlan = errors.New("no budget plan stored")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTransactions inserts or replaces the given transactions in one
// database transaction. Every transaction is validated first; nothing is
// written if any is invalid.
func (r *SQLiteRepository) SaveTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	for i, t := range txns {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d (%s): %w", i, t.ID, err)
		}
	}
	if len(txns) == 0 {
		return 0, nil
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		upsert, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (id, date, description, amount, category, redeemable, vacation, transfer, redemption_rate, linked_transaction_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				date = excluded.date,
				description = excluded.description,
				amount = excluded.amount,
				category = excluded.category,
				redeemable = excluded.redeemable,
				vacation = excluded.vacation,
				transfer = excluded.transfer,
				redemption_rate = excluded.redemption_rate,
				linked_transaction_id = excluded.linked_transaction_id,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer upsert.Close()

		for _, t := range txns {
			var linked sql.NullString
			if t.LinkedTransactionID != nil {
				linked = sql.NullString{String: *t.LinkedTransactionID, Valid: true}
			}
			if _, err := upsert.ExecContext(ctx,
				t.ID, t.Date.String(), t.Description, t.Amount, string(t.Category),
				t.Redeemable, t.Vacation, t.Transfer, t.RedemptionRate, linked,
			); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_statements WHERE transaction_id = ?`, t.ID); err != nil {
				return fmt.Errorf("clear statements of %s: %w", t.ID, err)
			}
			for _, s := range t.StatementIDs {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO transaction_statements (transaction_id, statement_id) VALUES (?, ?)`,
					t.ID, s,
				); err != nil {
					return fmt.Errorf("link statement %s to %s: %w", s, t.ID, err)
				}
			}
		}
		return bumpRevision(ctx, tx)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldCount, len(txns))
	return len(txns), nil
}

// ListTransactions returns the stored transactions dated within [from, to],
// ordered by date then id. A zero bound is open.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	query := `SELECT id, date, description, amount, category, redeemable, vacation, transfer, redemption_rate, linked_transaction_id FROM transactions`
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, to.String())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	index := make(map[string]int)
	for rows.Next() {
		var (
			t        core.Transaction
			date     string
			category string
			linked   sql.NullString
		)
		if err := rows.Scan(&t.ID, &date, &t.Description, &t.Amount, &category,
			&t.Redeemable, &t.Vacation, &t.Transfer, &t.RedemptionRate, &linked); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Category = core.Category(category)
		if linked.Valid {
			id := linked.String
			t.LinkedTransactionID = &id
		}
		index[t.ID] = len(txns)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	if err := r.attachStatements(ctx, txns, index); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *SQLiteRepository) attachStatements(ctx context.Context, txns []core.Transaction, index map[string]int) error {
	if len(txns) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT transaction_id, statement_id FROM transaction_statements ORDER BY transaction_id, statement_id`)
	if err != nil {
		return fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txID, stmtID string
		if err := rows.Scan(&txID, &stmtID); err != nil {
			return fmt.Errorf("scan statement: %w", err)
		}
		if i, ok := index[txID]; ok {
			txns[i].StatementIDs = append(txns[i].StatementIDs, stmtID)
		}
	}
	return rows.Err()
}

// DeleteTransaction removes a transaction and its statement links.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_statements WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete statements of %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete transaction %s: %w", id, sql.ErrNoRows)
		}
		return bumpRevision(ctx, tx)
	})
}

// SavePlan replaces the stored plan. The plan is validated first.
func (r *SQLiteRepository) SavePlan(ctx context.Context, plan core.BudgetPlan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("budget plan: %w", err)
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_budgets`); err != nil {
			return fmt.Errorf("clear category budgets: %w", err)
		}
		for _, c := range plan.SortedCategories() {
			b := plan.Categories[c]
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_budgets (category, weekly_target, rollover_enabled) VALUES (?, ?, ?)`,
				string(c), b.WeeklyTarget, b.RolloverEnabled,
			); err != nil {
				return fmt.Errorf("insert budget for %s: %w", c, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budget_plans (id, last_modified) VALUES (1, ?)
			 ON CONFLICT(id) DO UPDATE SET last_modified = excluded.last_modified`,
			plan.LastModified,
		); err != nil {
			return fmt.Errorf("upsert budget plan: %w", err)
		}
		return bumpRevision(ctx, tx)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget plan saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldCount, len(plan.Categories))
	return nil
}

// GetPlan loads the stored plan, or ErrNoPlan if none was saved.
func (r *SQLiteRepository) GetPlan(ctx context.Context) (core.BudgetPlan, error) {
	plan := core.BudgetPlan{Categories: make(map[core.Category]core.CategoryBudget)}

	err := r.db.QueryRowContext(ctx, `SELECT last_modified FROM budget_plans WHERE id = 1`).Scan(&plan.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetPlan{}, ErrNoPlan
	}
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("query budget plan: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT category, weekly_target, rollover_enabled FROM category_budgets`)
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("query category budgets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			b        core.CategoryBudget
		)
		if err := rows.Scan(&category, &b.WeeklyTarget, &b.RolloverEnabled); err != nil {
			return core.BudgetPlan{}, fmt.Errorf("scan category budget: %w", err)
		}
		plan.Categories[core.Category(category)] = b
	}
	if err := rows.Err(); err != nil {
		return core.BudgetPlan{}, fmt.Errorf("iterate category budgets: %w", err)
	}
	return plan, nil
}

// Revision is a counter bumped by every write. Two reads returning the same
// revision saw the same data.
func (r *SQLiteRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, `SELECT revision FROM store_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("query revision: %w", err)
	}
	return rev, nil
}

// Categories returns the distinct categories that have transactions, sorted.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, core.Category(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, rows.Err()
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.WarnContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func bumpRevision(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE store_revision SET revision = revision + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}
	return nil
}
