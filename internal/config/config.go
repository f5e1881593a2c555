package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSheetNames are the Malay month abbreviations the ledger workbook
// uses as sheet titles.
var DefaultSheetNames = []string{"Jan", "Feb", "Mac", "Apr", "Mei", "Jun", "Jul", "Ogo", "Sep", "Okt", "Nov", "Dis"}

type Config struct {
	// Workbook source
	WorkbookBackend string
	WorkbookPath    string
	SheetNames      []string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	FetchConcurrency         int

	// Ledger columns
	HeaderDate       string
	HeaderDetails    string
	HeaderCategory   string
	HeaderAccount    string
	HeaderCurrency   string
	HeaderCost       string
	ExcludedCategory string

	// Snapshot
	SnapshotPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CommandTimeout time.Duration
	LogLevel       string
}

func Load() *Config {
	cfg := &Config{
		WorkbookBackend: getEnv("WORKBOOK_BACKEND", "xlsx"),
		WorkbookPath:    getEnv("WORKBOOK_PATH", ""),
		SheetNames:      getEnvList("SHEET_NAMES", DefaultSheetNames),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		FetchConcurrency:         getEnvInt("FETCH_CONCURRENCY", 4),

		HeaderDate:       getEnv("HEADER_DATE", "Tarikh"),
		HeaderDetails:    getEnv("HEADER_DETAILS", "Keterangan"),
		HeaderCategory:   getEnv("HEADER_CATEGORY", "Kategori"),
		HeaderAccount:    getEnv("HEADER_ACCOUNT", "Akaun"),
		HeaderCurrency:   getEnv("HEADER_CURRENCY", "Wang"),
		HeaderCost:       getEnv("HEADER_COST", "Jumlah"),
		ExcludedCategory: getEnv("EXCLUDED_CATEGORY", "Pertukaran"),

		SnapshotPath: getEnv("SNAPSHOT_PATH", "./data/ledger.parquet"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "beruang"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "snapshots"),

		CommandTimeout: getEnvDuration("COMMAND_TIMEOUT", 2*time.Minute),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.WorkbookBackend {
	case "xlsx":
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid workbook backend '%s': must be one of [xlsx sheets]", c.WorkbookBackend))
	}

	if len(c.SheetNames) == 0 {
		errors = append(errors, "at least one sheet name is required")
	}

	if c.FetchConcurrency < 1 || c.FetchConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid fetch concurrency %d: must be between 1 and 32", c.FetchConcurrency))
	}

	headers := map[string]string{
		"HEADER_DATE":     c.HeaderDate,
		"HEADER_DETAILS":  c.HeaderDetails,
		"HEADER_CATEGORY": c.HeaderCategory,
		"HEADER_ACCOUNT":  c.HeaderAccount,
		"HEADER_CURRENCY": c.HeaderCurrency,
		"HEADER_COST":     c.HeaderCost,
	}
	seen := map[string]bool{}
	for _, key := range []string{"HEADER_DATE", "HEADER_DETAILS", "HEADER_CATEGORY", "HEADER_ACCOUNT", "HEADER_CURRENCY", "HEADER_COST"} {
		name := headers[key]
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", key))
			continue
		}
		if seen[name] {
			errors = append(errors, fmt.Sprintf("%s repeats header name '%s'", key, name))
		}
		seen[name] = true
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CommandTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid command timeout %v: must be at least 1 second", c.CommandTimeout))
	} else if c.CommandTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid command timeout %v: must be at most 1 hour", c.CommandTimeout))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
