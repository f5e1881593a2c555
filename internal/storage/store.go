// Package storage keeps combined ledgers in a SQLite snapshot file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"beruang/internal/core"
	"beruang/internal/frame"
	"beruang/internal/ledger"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the snapshot database at dbPath and migrates it.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores the ledger as a new snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, l *ledger.Ledger, info core.SnapshotInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, source, row_count, dropped) VALUES (?, ?, ?, ?, ?)`,
		info.ID.String(), info.CreatedAt.UTC().Format(time.RFC3339), info.Source, l.Table().Len(), info.Dropped)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	h := l.Header()
	t := l.Table()
	cols := layoutOf(t.Schema(), h)
	for _, c := range cols {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_columns (snapshot_id, position, name, kind, role) VALUES (?, ?, ?, ?, ?)`,
			info.ID.String(), c.position, c.name, int(c.kind), c.role)
		if err != nil {
			return fmt.Errorf("insert column %q: %w", c.name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(snapshot_id, position, date_days, details, category, account, currency, cost_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	extra, err := tx.PrepareContext(ctx, `INSERT INTO transaction_extras
		(snapshot_id, row_position, column_position, text_value, int_value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare extra insert: %w", err)
	}
	defer extra.Close()

	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		_, err := stmt.ExecContext(ctx, info.ID.String(), i,
			r.Int(h.Date), r.Text(h.Details), r.Text(h.Category),
			r.Text(h.Account), r.Text(h.Currency), r.Int(h.Cost))
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
		values := r.Values()
		for _, c := range cols {
			v := values[c.position]
			if c.role != "" || !v.Valid {
				continue
			}
			var text, num any
			if c.kind == frame.KindText {
				text = v.Str
			} else {
				num = v.Int
			}
			if _, err := extra.ExecContext(ctx, info.ID.String(), i, c.position, text, num); err != nil {
				return fmt.Errorf("insert transaction %d column %q: %w", i, c.name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite", "snapshot_id", info.ID, "rows", t.Len())
	return nil
}

// Latest returns the most recently created snapshot's metadata.
func (s *SQLiteStore) Latest(ctx context.Context) (core.SnapshotInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, row_count, dropped FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	var (
		info      core.SnapshotInfo
		id        string
		createdAt string
	)
	if err := row.Scan(&id, &createdAt, &info.Source, &info.Rows, &info.Dropped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SnapshotInfo{}, ErrNoSnapshot
		}
		return core.SnapshotInfo{}, fmt.Errorf("read latest snapshot: %w", err)
	}
	var err error
	if info.ID, err = uuid.Parse(id); err != nil {
		return core.SnapshotInfo{}, fmt.Errorf("snapshot id %q: %w", id, err)
	}
	if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.SnapshotInfo{}, fmt.Errorf("snapshot %s created_at: %w", id, err)
	}
	return info, nil
}

// Load reads snapshot id into a ledger. The ledger columns carry the names
// in header; any other workbook columns keep their stored names.
func (s *SQLiteStore) Load(ctx context.Context, id uuid.UUID, header ledger.Header) (*ledger.Ledger, error) {
	cols, err := s.columns(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		cols = legacyLayout()
	}
	extras, err := s.extras(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	table, err := frame.NewTable(schemaOf(cols, header))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT position, date_days, details, category, account, currency, cost_cents
		FROM transactions WHERE snapshot_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position                             int
			date                                 int32
			details, category, account, currency string
			cost                                 int64
		)
		if err := rows.Scan(&position, &date, &details, &category, &account, &currency, &cost); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		ledgerCells := map[string]frame.Value{
			roleDate:     frame.DateValue(core.Date(date)),
			roleDetails:  frame.TextValue(details),
			roleCategory: frame.TextValue(category),
			roleAccount:  frame.TextValue(account),
			roleCurrency: frame.TextValue(currency),
			roleCost:     frame.MoneyValue(core.Money{Cents: cost}),
		}
		row := make([]frame.Value, len(cols))
		for c, col := range cols {
			if col.role != "" {
				row[c] = ledgerCells[col.role]
			} else if v, ok := extras[cellKey{position, col.position}]; ok {
				row[c] = v
			} else {
				row[c] = frame.Null
			}
		}
		if err := table.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return ledger.New(table, header)
}

// LoadLatest loads the most recent snapshot.
func (s *SQLiteStore) LoadLatest(ctx context.Context, header ledger.Header) (*ledger.Ledger, core.SnapshotInfo, error) {
	info, err := s.Latest(ctx)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	l, err := s.Load(ctx, info.ID, header)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	slog.DebugContext(ctx, "Snapshot loaded from SQLite", "snapshot_id", info.ID, "rows", l.Table().Len())
	return l, info, nil
}
