package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/policy"
	"budget/internal/rollover"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/storage"
)

type app struct {
	cfg    *config.Config
	svc    *services.BudgetService
	out    io.Writer
	logger *log.Logger
}

// filterFlags registers the view filters shared by the report commands.
type filterFlags struct {
	from, to     string
	hide         string
	hideVacation bool
	transfers    bool
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.from, "from", "", "first day to include (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "last day to include (YYYY-MM-DD)")
	fs.StringVar(&f.hide, "hide", "", "comma-separated categories to hide")
	fs.BoolVar(&f.hideVacation, "hide-vacation", false, "exclude vacation transactions")
	fs.BoolVar(&f.transfers, "transfers", false, "include transfers")
}

func (f *filterFlags) filters() (policy.Filters, error) {
	out := policy.DefaultFilters()
	out.ShowVacation = !f.hideVacation
	out.IncludeTransfers = f.transfers

	var err error
	if f.from != "" {
		if out.DateRangeStart, err = core.ParseDate(f.from); err != nil {
			return policy.Filters{}, fmt.Errorf("-from: %w", err)
		}
	}
	if f.to != "" {
		if out.DateRangeEnd, err = core.ParseDate(f.to); err != nil {
			return policy.Filters{}, fmt.Errorf("-to: %w", err)
		}
	}
	if strings.TrimSpace(f.hide) != "" {
		out.HiddenCategories = make(map[core.Category]bool)
		for _, raw := range strings.Split(f.hide, ",") {
			c, err := core.ParseCategory(raw)
			if err != nil {
				return policy.Filters{}, fmt.Errorf("-hide: %w", err)
			}
			out.HiddenCategories[c] = true
		}
	}
	return out, nil
}

// snapshotFor parses the shared flags and returns the matching snapshot.
func (a *app) snapshotFor(ctx context.Context, name string, args []string, extra func(*flag.FlagSet)) (*services.Snapshot, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var ff filterFlags
	ff.register(fs)
	granularity := fs.String("granularity", string(core.Monthly), "trend period: week or month")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	filters, err := ff.filters()
	if err != nil {
		return nil, err
	}
	g, err := core.ParseGranularity(*granularity)
	if err != nil {
		return nil, err
	}
	return a.svc.Snapshot(ctx, services.Query{Filters: filters, TrendGranularity: g})
}

func (a *app) importCSV(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import takes exactly one file: %w", errUsage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.svc.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d transactions, rejected %d rows\n", res.Saved, len(res.Rejected))
	for _, rej := range res.Rejected {
		fmt.Fprintf(a.out, "  %v\n", rej)
	}
	return nil
}

func (a *app) weekly(ctx context.Context, args []string) error {
	snap, err := a.snapshotFor(ctx, "report", args, nil)
	if err != nil {
		return err
	}
	if !snap.HasPlan {
		return errNoPlan
	}
	return writeTable(a.out, sheets.WeeklyRows(snap.WeeklyReport))
}

func (a *app) monthly(ctx context.Context, args []string) error {
	snap, err := a.snapshotFor(ctx, "monthly", args, nil)
	if err != nil {
		return err
	}
	if !snap.HasPlan {
		return errNoPlan
	}
	return writeTable(a.out, sheets.MonthlyRows(snap.Monthly))
}

func (a *app) predict(ctx context.Context, args []string) error {
	var asJSON bool
	snap, err := a.snapshotFor(ctx, "predict", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&asJSON, "json", false, "print JSON")
	})
	if err != nil {
		return err
	}
	if !snap.HasPlan {
		return errNoPlan
	}
	p := snap.Prediction
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	return writeTable(a.out, [][]any{
		{"Income target", core.FormatAmount(p.TotalIncomeTarget)},
		{"Expense target", core.FormatAmount(p.TotalExpenseTarget)},
		{"Predicted net", core.FormatAmount(p.PredictedNetIncome)},
		{"Historic avg income", core.FormatAmount(p.HistoricAvgIncome)},
		{"Historic avg expense", core.FormatAmount(p.HistoricAvgExpense)},
		{"Historic periods", p.HistoricPeriods},
		{"Variance", core.FormatAmount(p.Variance)},
	})
}

func (a *app) trend(ctx context.Context, args []string) error {
	snap, err := a.snapshotFor(ctx, "trend", args, nil)
	if err != nil {
		return err
	}
	return writeTable(a.out, sheets.TrendRows(snap.Trend))
}

// ledger prints the rollover statement of one category. Flags follow the
// category name.
func (a *app) ledger(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ledger needs a category: %w", errUsage)
	}
	c, err := core.ParseCategory(args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	var ff filterFlags
	ff.register(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	filters, err := ff.filters()
	if err != nil {
		return err
	}
	entries, err := a.svc.Statement(ctx, services.Query{Filters: filters}, c)
	if errors.Is(err, storage.ErrNoPlan) {
		return errNoPlan
	}
	if err != nil {
		return err
	}
	return writeTable(a.out, statementRows(entries))
}

func statementRows(entries []rollover.Entry) [][]any {
	rows := [][]any{{"Week", "Actual", "Target", "Variance", "Carried In", "Effective Target"}}
	for _, e := range entries {
		rows = append(rows, []any{
			e.Week.String(),
			core.FormatAmount(e.Actual),
			core.FormatAmount(e.Target),
			core.FormatAmount(e.Variance),
			core.FormatAmount(e.CarriedIn),
			core.FormatAmount(e.Target + e.CarriedIn),
		})
	}
	return rows
}

func (a *app) deleteTx(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete takes exactly one transaction id: %w", errUsage)
	}
	if err := a.svc.DeleteTransaction(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted transaction %s\n", args[0])
	return nil
}

func (a *app) categories(ctx context.Context, _ []string) error {
	cats, err := a.svc.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Fprintln(a.out, c)
	}
	return nil
}

func (a *app) recompute(ctx context.Context, _ []string) error {
	if err := a.svc.RequestRecompute(ctx, amqp.ReasonManual); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "recompute requested")
	return nil
}

func (a *app) publish(ctx context.Context, args []string) error {
	snap, err := a.snapshotFor(ctx, "publish", args, nil)
	if err != nil {
		return err
	}
	b, cleanup, err := a.backend(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.svc.Publish(ctx, b, snap); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "published revision %d to %s\n", snap.Revision, a.cfg.ReportBackend)
	return nil
}

func (a *app) plan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("plan needs show, set or sync: %w", errUsage)
	}
	switch args[0] {
	case "show":
		plan, err := a.svc.Plan(ctx)
		if errors.Is(err, storage.ErrNoPlan) {
			return errNoPlan
		}
		if err != nil {
			return err
		}
		return writePlan(a.out, plan)
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("plan set takes one JSON file: %w", errUsage)
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		plan, err := decodePlan(f, time.Now())
		if err != nil {
			return err
		}
		if err := a.svc.SetPlan(ctx, plan); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "stored plan with %d categories\n", len(plan.Categories))
		return nil
	case "sync":
		b, cleanup, err := a.backend(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		plan, err := a.svc.SyncPlan(ctx, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "synced plan with %d categories from %s\n", len(plan.Categories), a.cfg.ReportBackend)
		return nil
	default:
		return fmt.Errorf("unknown plan command %q: %w", args[0], errUsage)
	}
}

func (a *app) backend(ctx context.Context) (backend.Backend, func(), error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				a.logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}
	}
	return res.Backend, cleanup, nil
}

var errNoPlan = errors.New("no budget plan stored; run 'budget plan set' or 'budget plan sync' first")

// planFile is the JSON layout accepted by 'plan set'.
type planFile struct {
	LastModified string `json:"lastModified,omitempty"`
	Categories   map[string]struct {
		WeeklyTarget    float64 `json:"weeklyTarget"`
		RolloverEnabled bool    `json:"rolloverEnabled"`
	} `json:"categories"`
}

// decodePlan reads a plan file. A missing lastModified is stamped with now.
func decodePlan(r io.Reader, now time.Time) (core.BudgetPlan, error) {
	var pf planFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pf); err != nil {
		return core.BudgetPlan{}, fmt.Errorf("decode plan: %w", err)
	}

	plan := core.BudgetPlan{
		Categories:   make(map[core.Category]core.CategoryBudget, len(pf.Categories)),
		LastModified: pf.LastModified,
	}
	if plan.LastModified == "" {
		plan.LastModified = now.UTC().Format(time.RFC3339)
	}
	for name, b := range pf.Categories {
		c, err := core.ParseCategory(name)
		if err != nil {
			return core.BudgetPlan{}, err
		}
		plan.Categories[c] = core.CategoryBudget{WeeklyTarget: b.WeeklyTarget, RolloverEnabled: b.RolloverEnabled}
	}
	return plan, plan.Validate()
}

func writePlan(w io.Writer, plan core.BudgetPlan) error {
	rows := [][]any{{"Category", "Weekly Target", "Rollover"}}
	for _, c := range plan.SortedCategories() {
		b, _ := plan.Budget(c)
		carry := "no"
		if b.RolloverEnabled {
			carry = "yes"
		}
		rows = append(rows, []any{c.String(), core.FormatAmount(b.WeeklyTarget), carry})
	}
	rows = append(rows, []any{"last modified", plan.LastModified, ""})
	return writeTable(w, rows)
}

func writeTable(w io.Writer, rows [][]any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
