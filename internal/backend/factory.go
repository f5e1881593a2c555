package backend

import (
	"context"
	"fmt"
	"log/slog"

	"beruang/internal/sheets/excel"
	"beruang/internal/sheets/google"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case XLSXBackend:
		return f.createXLSXBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXLSXBackend(config Config) (*BackendResult, error) {
	wb, err := excel.Open(config.WorkbookPath)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Opened xlsx workbook", "workbook", config.WorkbookPath)

	return &BackendResult{
		Reader:  wb,
		Source:  config.WorkbookPath,
		Cleanup: wb.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	creds, err := google.Credentials(config.GoogleServiceAccountJSON, config.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	cli, err := google.New(ctx, config.GoogleSpreadsheetID, creds, config.FetchConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "fetch_concurrency", config.FetchConcurrency)

	return &BackendResult{
		Reader:  cli,
		Source:  "sheets:" + config.GoogleSpreadsheetID,
		Cleanup: nil, // No cleanup needed for sheets backend
	}, nil
}
