package core

import (
	"time"

	"github.com/google/uuid"
)

// SnapshotInfo describes one combined ledger written to disk.
type SnapshotInfo struct {
	ID        uuid.UUID
	CreatedAt time.Time
	// Source names the workbook the snapshot was combined from.
	Source  string
	Rows    int
	Dropped int
}

func NewSnapshotInfo(source string, rows, dropped int) SnapshotInfo {
	return SnapshotInfo{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Source:    source,
		Rows:      rows,
		Dropped:   dropped,
	}
}
