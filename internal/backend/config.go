package backend

import (
	"fmt"

	"budget/internal/config"
)

// FromAppConfig picks the report backend fields out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("backend: nil application config")
	}

	backendType := BackendType(appConfig.ReportBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("unknown report backend %q, want one of %v", appConfig.ReportBackend, GetBackendTypeStrings())
	}

	return Config{
		Type: backendType,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleWeeklySheet:     appConfig.GoogleWeeklySheetName,
		GoogleMonthlySheet:    appConfig.GoogleReportSheetName,
		GooglePlanSheet:       appConfig.GooglePlanSheetName,
		GoogleTrendSheet:      appConfig.GoogleTrendSheetName,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
	}, nil
}

// Validate checks that a sheets backend can reach its spreadsheet.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("unknown report backend %q", c.Type)
	}

	if c.Type == SheetsBackend {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("sheets backend: spreadsheet id is required")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("sheets backend: service account credentials are required")
		}
	}

	return nil
}

// GetBackendTypes lists the supported report backends.
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SheetsBackend}
}

func GetBackendTypeStrings() []string {
	var names []string
	for _, t := range GetBackendTypes() {
		names = append(names, t.String())
	}
	return names
}
