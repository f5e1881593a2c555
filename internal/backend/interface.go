// Package backend opens the workbook source selected by configuration.
package backend

import (
	"context"

	"beruang/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the workbook reader and optional cleanup function
type BackendResult struct {
	Reader sheets.WorkbookReader
	// Source names the workbook for logs and snapshot metadata.
	Source  string
	Cleanup CleanupFunc
}

// Factory creates workbook readers based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// xlsx specific
	WorkbookPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	FetchConcurrency         int
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend   BackendType = "xlsx"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
