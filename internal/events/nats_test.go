package events

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func newPair(t *testing.T) (*NATSPublisher, *NATSSubscriber) {
	t.Helper()
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })
	return pub, sub
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNATS_RoundTrip(t *testing.T) {
	pub, sub := newPair(t)
	ch, cancel, err := sub.Subscribe(SubjectAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	if err := pub.Publish(ctx, TopicTypeCreated, TypeCreated{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Publish(ctx, TopicValueDeleted, ValueDeleted{ValueID: 3, ObjectID: "u1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if m := receive(t, ch); m.Topic != TopicTypeCreated {
		t.Errorf("first topic = %q, want %q", m.Topic, TopicTypeCreated)
	}
	m := receive(t, ch)
	event, err := Decode(m)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if e := event.(*ValueDeleted); e.ValueID != 3 || ObjectID(e) != "u1" {
		t.Errorf("got %+v", e)
	}
}

func TestNATS_SubjectFilter(t *testing.T) {
	pub, sub := newPair(t)
	ch, cancel, err := sub.Subscribe("datedvalues.type.*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	ctx := context.Background()
	pub.Publish(ctx, TopicValueCreated, ValueCreated{}) //nolint:errcheck
	pub.Publish(ctx, TopicTypeDeleted, TypeDeleted{TypeID: 4}) //nolint:errcheck

	if m := receive(t, ch); m.Topic != TopicTypeDeleted {
		t.Errorf("topic = %q, want %q", m.Topic, TopicTypeDeleted)
	}
}

func TestNATSSubscriber_Cancel(t *testing.T) {
	_, sub := newPair(t)
	ch, cancel, err := sub.Subscribe(SubjectAll)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	pub, _ := newPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, TopicValueCreated, ValueCreated{}); err == nil {
		t.Error("expected error publishing with a canceled context")
	}
}

func TestNATSPublisher_PublishAfterClose(t *testing.T) {
	pub, _ := newPair(t)
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Publish(context.Background(), TopicValueCreated, ValueCreated{}); err == nil {
		t.Error("expected error publishing after close")
	}
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	if _, err := NewNATSPublisher("nats://127.0.0.1:1"); err == nil {
		t.Error("expected connection error")
	}
}
