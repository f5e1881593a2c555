// Package snapshot stores combined ledgers on disk and loads them back.
// The file extension picks the format: .parquet, or .db/.sqlite for a
// SQLite database.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"beruang/internal/core"
	"beruang/internal/ledger"
	"beruang/internal/storage"
)

type Format int

const (
	Parquet Format = iota
	SQLite
)

func (f Format) String() string {
	switch f {
	case Parquet:
		return "parquet"
	case SQLite:
		return "sqlite"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var ErrUnknownFormat = errors.New("unknown snapshot format")

// FormatOf picks the snapshot format from path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return Parquet, nil
	case ".db", ".sqlite", ".sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("%w: %q (want .parquet, .db or .sqlite)", ErrUnknownFormat, path)
}

// IsSnapshot reports whether path names a snapshot file.
func IsSnapshot(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// Save writes l to path.
func Save(ctx context.Context, path string, l *ledger.Ledger, info core.SnapshotInfo) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case SQLite:
		s, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Save(ctx, l, info); err != nil {
			return err
		}
	default:
		if err := WriteParquet(path, l.Table(), info); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "Snapshot written", "snapshot_path", path, "format", format, "snapshot_id", info.ID, "rows", l.Table().Len())
	return nil
}

// Load reads the snapshot at path. A SQLite snapshot yields its most
// recent entry.
func Load(ctx context.Context, path string, header ledger.Header) (*ledger.Ledger, core.SnapshotInfo, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	if format == SQLite {
		s, err := storage.Open(path)
		if err != nil {
			return nil, core.SnapshotInfo{}, err
		}
		defer s.Close()
		return s.LoadLatest(ctx, header)
	}

	table, info, err := ReadParquet(ctx, path)
	if err != nil {
		return nil, core.SnapshotInfo{}, err
	}
	l, err := ledger.New(table, header)
	if err != nil {
		return nil, core.SnapshotInfo{}, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return l, info, nil
}
