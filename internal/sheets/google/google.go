package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/log"
	ports "budget/internal/sheets"
	"budget/internal/trend"

	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Sheets allows 60 requests per minute per user; stay under it with a
// small burst for the clear+update pairs.
const (
	requestInterval = time.Second
	requestBurst    = 4
)

// Config names the spreadsheet and tabs the client works with. Empty sheet
// names fall back to Weekly, Monthly, Trend and Plan.
type Config struct {
	SpreadsheetID   string
	WeeklySheet     string
	MonthlySheet    string
	TrendSheet      string
	PlanSheet       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	weeklySheet   string
	monthlySheet  string
	trendSheet    string
	planSheet     string
	limiter       *rate.Limiter
	now           func() time.Time
}

// Ensure interface conformance
var (
	_ ports.ReportWriter = (*Client)(nil)
	_ ports.PlanReader   = (*Client)(nil)
)

// New creates a Sheets client authenticated with service account
// credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		weeklySheet:   orDefault(cfg.WeeklySheet, "Weekly"),
		monthlySheet:  orDefault(cfg.MonthlySheet, "Monthly"),
		trendSheet:    orDefault(cfg.TrendSheet, "Trend"),
		planSheet:     orDefault(cfg.PlanSheet, "Plan"),
		limiter:       rate.NewLimiter(rate.Every(requestInterval), requestBurst),
		now:           time.Now,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) WriteWeeklyReport(ctx context.Context, report []budget.WeeklyBudgetComparison) error {
	return c.replaceSheet(ctx, c.weeklySheet, ports.WeeklyRows(report))
}

func (c *Client) WriteMonthlyReport(ctx context.Context, report []budget.MonthlyBudgetComparison) error {
	return c.replaceSheet(ctx, c.monthlySheet, ports.MonthlyRows(report))
}

func (c *Client) WriteTrend(ctx context.Context, points []trend.Point) error {
	return c.replaceSheet(ctx, c.trendSheet, ports.TrendRows(points))
}

// replaceSheet clears the tab and writes rows starting at A1.
func (c *Client) replaceSheet(ctx context.Context, sheet string, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: rows}
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Report written to Google Sheets",
		log.FieldComponent, log.ComponentSheets,
		"sheet", sheet,
		log.FieldCount, len(rows)-1)
	return nil
}

// ReadPlan reads the plan tab. The plan's LastModified is the time it was
// read, since the tab carries no timestamp of its own.
func (c *Client) ReadPlan(ctx context.Context) (core.BudgetPlan, error) {
	if c.svc == nil {
		return core.BudgetPlan{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:C", c.planSheet)
	if err := c.wait(ctx); err != nil {
		return core.BudgetPlan{}, err
	}
	// Unformatted so targets arrive as numbers, not locale-grouped strings.
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return parsePlan(resp.Values, c.now().UTC().Format(time.RFC3339))
}

// wait blocks until the request quota allows another call.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sheets rate limit: %w", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
