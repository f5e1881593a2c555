// Package google reads ledger sheets from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "beruang/internal/sheets"
)

const gridFields = "sheets(properties.title,data.rowData.values(effectiveValue,effectiveFormat.numberFormat))"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	concurrency   int

	mu     sync.Mutex
	titles map[string]bool
	rows   map[string][][]ports.Cell
}

// Ensure interface conformance
var (
	_ ports.WorkbookReader = (*Client)(nil)
	_ ports.Prefetcher     = (*Client)(nil)
)

// New creates a read-only Sheets client from service account credentials.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, concurrency int) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return NewWithService(svc, spreadsheetID, concurrency), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, concurrency int) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		concurrency:   concurrency,
		rows:          map[string][][]ports.Cell{},
	}
}

// Credentials resolves service account JSON, preferring inline JSON over
// a file path.
func Credentials(inlineJSON, path string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inlineJSON) != "":
		return []byte(inlineJSON), nil
	case strings.TrimSpace(path) != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Prefetch downloads the named sheets concurrently, at most concurrency
// requests at a time.
func (c *Client) Prefetch(ctx context.Context, names []string) error {
	if err := c.loadTitles(ctx); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, name := range names {
		c.mu.Lock()
		_, cached := c.rows[name]
		known := c.titles[name]
		c.mu.Unlock()
		if cached || !known {
			// missing sheets are reported by Rows, in sheet order
			continue
		}
		name := name
		g.Go(func() error {
			_, err := c.fetch(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Rows returns the named sheet, from the prefetch cache when present.
func (c *Client) Rows(ctx context.Context, sheet string) ([][]ports.Cell, error) {
	c.mu.Lock()
	rows, ok := c.rows[sheet]
	c.mu.Unlock()
	if ok {
		return rows, nil
	}
	if err := c.loadTitles(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	known := c.titles[sheet]
	c.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("%w: %q in spreadsheet %s", ports.ErrMissingSheet, sheet, c.spreadsheetID)
	}
	return c.fetch(ctx, sheet)
}

func (c *Client) loadTitles(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.titles != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list sheets of %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]bool, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = true
		}
	}
	c.mu.Lock()
	c.titles = titles
	c.mu.Unlock()
	return nil
}

func (c *Client) fetch(ctx context.Context, sheet string) ([][]ports.Cell, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Ranges(quoteSheet(sheet)).
		IncludeGridData(true).
		Fields(googleapi.Field(gridFields)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	var rows [][]ports.Cell
	for _, s := range resp.Sheets {
		for _, grid := range s.Data {
			rows = append(rows, rowsFromGrid(grid)...)
		}
	}
	slog.DebugContext(ctx, "Fetched sheet", "sheet", sheet, "rows", len(rows))

	c.mu.Lock()
	c.rows[sheet] = rows
	c.mu.Unlock()
	return rows, nil
}

// quoteSheet renders a sheet title as an A1 range covering the sheet.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
