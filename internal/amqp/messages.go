package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"beruang/internal/core"
)

// SnapshotCreatedMessage tells consumers where a new snapshot can be read.
// It carries no transactions.
type SnapshotCreatedMessage struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Dropped   int       `json:"dropped"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotCreatedMessage(path string, info core.SnapshotInfo) *SnapshotCreatedMessage {
	return &SnapshotCreatedMessage{
		ID:        info.ID,
		Path:      path,
		Source:    info.Source,
		Rows:      info.Rows,
		Dropped:   info.Dropped,
		CreatedAt: info.CreatedAt,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotCreatedMessageFromJSON(data []byte) (*SnapshotCreatedMessage, error) {
	var msg SnapshotCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
