// Package events carries change notifications for value types and dated
// values between the server and anything watching it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// SubjectAll matches every event published by the service.
const SubjectAll = "datedvalues.>"

const (
	TopicValueCreated = "datedvalues.value.created"
	TopicValueUpdated = "datedvalues.value.updated"
	TopicValueDeleted = "datedvalues.value.deleted"
	TopicTypeCreated  = "datedvalues.type.created"
	TopicTypeUpdated  = "datedvalues.type.updated"
	TopicTypeDeleted  = "datedvalues.type.deleted"
)

type ValueCreated struct {
	Value *model.DatedValue `json:"value"`
	Actor string            `json:"actor,omitempty"`
}

type ValueUpdated struct {
	Value *model.DatedValue `json:"value"`
	Actor string            `json:"actor,omitempty"`
}

// ValueDeleted identifies the removed row by id and by its triple, since the
// row itself is gone.
type ValueDeleted struct {
	ValueID  int64     `json:"value_id"`
	TypeID   int64     `json:"type_id"`
	ObjectID string    `json:"object_id"`
	Date     time.Time `json:"date"`
	Actor    string    `json:"actor,omitempty"`
}

type TypeCreated struct {
	Type *model.ValueType `json:"type"`
}

type TypeUpdated struct {
	Type    *model.ValueType `json:"type"`
	Changes map[string]any   `json:"changes"` // field name -> new value
}

type TypeDeleted struct {
	TypeID int64 `json:"type_id"`
}

// Message is one raw event as received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Action is the last segment of the topic: created, updated or deleted.
func (m Message) Action() string {
	return m.Topic[strings.LastIndex(m.Topic, ".")+1:]
}

// Decode unmarshals the payload into the event type published on its topic.
func Decode(m Message) (any, error) {
	var event any
	switch m.Topic {
	case TopicValueCreated:
		event = &ValueCreated{}
	case TopicValueUpdated:
		event = &ValueUpdated{}
	case TopicValueDeleted:
		event = &ValueDeleted{}
	case TopicTypeCreated:
		event = &TypeCreated{}
	case TopicTypeUpdated:
		event = &TypeUpdated{}
	case TopicTypeDeleted:
		event = &TypeDeleted{}
	default:
		return nil, fmt.Errorf("unknown topic %q", m.Topic)
	}
	if err := json.Unmarshal(m.Data, event); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", m.Topic, err)
	}
	return event, nil
}

// ObjectID returns the owner object a value event concerns, or "" for type
// events.
func ObjectID(event any) string {
	switch e := event.(type) {
	case *ValueCreated:
		if e.Value != nil {
			return e.Value.ObjectID
		}
	case *ValueUpdated:
		if e.Value != nil {
			return e.Value.ObjectID
		}
	case *ValueDeleted:
		return e.ObjectID
	}
	return ""
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	// Subscribe delivers messages matching subject (wildcards allowed) on the
	// returned channel until the returned cancel function is called.
	Subscribe(subject string) (<-chan Message, func(), error)
	Close() error
}

// NoopPublisher drops every event. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
