package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/invtrack/internal/model"
)

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicItemCreated, ItemCreated{}); err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishersImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Publisher = (*Recorder)(nil)
}

func TestTopicsSharePrefix(t *testing.T) {
	for _, topic := range []string{
		TopicInventoryCreated, TopicInventoryUpdated, TopicInventoryDeleted,
		TopicFormatUpdated, TopicFieldsUpdated,
		TopicItemCreated, TopicItemUpdated, TopicItemDeleted, TopicItemIDRegenerated,
		TopicAccessGranted, TopicAccessRevoked,
	} {
		if !strings.HasPrefix(topic, TopicPrefix) {
			t.Errorf("topic %q lacks prefix %q", topic, TopicPrefix)
		}
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), TopicItemCreated, ItemCreated{})
	r.Err = errors.New("down")
	if err := r.Publish(context.Background(), TopicItemDeleted, ItemDeleted{}); err == nil {
		t.Fatal("expected configured error")
	}
	if got, want := r.Topics(), []string{TopicItemCreated, TopicItemDeleted}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Topics() = %v, want %v", got, want)
	}
	if len(r.Events()) != 2 {
		t.Fatalf("Events() len = %d", len(r.Events()))
	}
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicItemCreated, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := ItemCreated{Item: &model.Item{ID: "itm-1", InventoryID: "inv-1", CustomID: "INV-001"}}
	if err := pub.Publish(context.Background(), TopicItemCreated, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.conn.Flush()

	select {
	case msg := <-ch:
		var got ItemCreated
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Item.CustomID != "INV-001" {
			t.Errorf("got custom id=%q, want %q", got.Item.CustomID, "INV-001")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe(TopicPrefix+">", ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	for _, tc := range []struct {
		topic string
		event any
	}{
		{TopicInventoryCreated, InventoryCreated{Inventory: &model.Inventory{ID: "inv-1"}}},
		{TopicFormatUpdated, FormatUpdated{InventoryID: "inv-1", Hash: "abc"}},
		{TopicItemDeleted, ItemDeleted{InventoryID: "inv-1", ItemID: "itm-2"}},
		{TopicAccessGranted, AccessGranted{Access: &model.Access{InventoryID: "inv-1", UserID: "bob"}}},
	} {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}
	pub.conn.Flush()

	for i := 0; i < 4; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, TopicItemCreated, ItemCreated{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish() error = %v, want context.Canceled", err)
	}
}

func TestNATSPublisher_Close(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Publishing after close should fail.
	if err := pub.Publish(context.Background(), TopicItemCreated, ItemCreated{}); err == nil {
		t.Error("expected error publishing after close")
	}
}
