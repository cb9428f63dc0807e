package backend

import (
	"context"

	"budget/internal/sheets"
)

// Backend is where reports are written and the plan sheet is read from.
type Backend interface {
	sheets.ReportWriter
	sheets.PlanReader
}

// CleanupFunc releases whatever the backend holds open.
type CleanupFunc func() error

// BackendResult pairs a backend with its cleanup, which may be nil.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory builds the report backend selected by Config.Type.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config carries what any backend type may need.
type Config struct {
	Type BackendType

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleWeeklySheet     string
	GoogleMonthlySheet    string
	GooglePlanSheet       string
	GoogleTrendSheet      string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// BackendType names a report backend.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid reports whether bt is memory or sheets.
func (bt BackendType) IsValid() bool {
	return bt == MemoryBackend || bt == SheetsBackend
}
