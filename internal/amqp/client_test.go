package amqp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"beruang/internal/core"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp091.Publishing
	hadDeadline   bool
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	_, f.hadDeadline = ctx.Deadline()
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishSnapshotCreated(t *testing.T) {
	ch := &fakeChannel{}
	c := &Client{channel: ch, exchangeName: "beruang", queueName: "snapshots"}
	info := core.NewSnapshotInfo("ledger.xlsx", 42, 3)

	if err := c.PublishSnapshotCreated(context.Background(), "data/ledger.parquet", info); err != nil {
		t.Fatalf("PublishSnapshotCreated: %v", err)
	}
	if ch.exchange != "beruang" || ch.key != "snapshots" {
		t.Errorf("published to %s/%s", ch.exchange, ch.key)
	}
	if !ch.hadDeadline {
		t.Error("publish must be bounded by a timeout")
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp091.Persistent || ch.msg.MessageId != info.ID.String() {
		t.Errorf("unexpected publishing %+v", ch.msg)
	}

	got, err := SnapshotCreatedMessageFromJSON(ch.msg.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != info.ID || got.Path != "data/ledger.parquet" || got.Rows != 42 || got.Dropped != 3 || !got.CreatedAt.Equal(info.CreatedAt) {
		t.Errorf("message = %+v", got)
	}
}

func TestPublishSnapshotCreatedError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	c := &Client{channel: ch, exchangeName: "beruang", queueName: "snapshots"}

	err := c.PublishSnapshotCreated(context.Background(), "x.parquet", core.NewSnapshotInfo("x", 0, 0))
	if err == nil || !strings.Contains(err.Error(), "publish message") {
		t.Fatalf("got %v", err)
	}
}

func TestMessageJSONFields(t *testing.T) {
	msg := NewSnapshotCreatedMessage("a.db", core.SnapshotInfo{Source: "s", CreatedAt: time.Unix(0, 0).UTC()})
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"id"`, `"path":"a.db"`, `"source":"s"`, `"rows":0`, `"created_at":"1970-01-01T00:00:00Z"`} {
		if !strings.Contains(string(b), field) {
			t.Errorf("JSON %s lacks %s", b, field)
		}
	}
	if _, err := SnapshotCreatedMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	c := &Client{channel: ch}
	if err := c.Close(); err != nil || !ch.closed {
		t.Fatalf("Close() = %v, closed=%v", err, ch.closed)
	}
}
