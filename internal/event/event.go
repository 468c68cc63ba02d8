package event

import (
	"time"

	"github.com/google/uuid"
)

// Metadata describes a published event.
type Metadata struct {
	// ID is unique per event.
	ID string
	// Timestamp is when the event was created.
	Timestamp time.Time
	// Source names the component that published it.
	Source string
}

// NewMetadata returns metadata with a fresh ID and the current time.
func NewMetadata(source string) Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// TopicProvider is implemented by events that know their own topic.
type TopicProvider interface {
	EventTopic() Topic
}

// Envelope wraps any payload for type-erased delivery.
type Envelope struct {
	Topic    Topic
	Payload  any
	Metadata Metadata
}

// NewEnvelope creates an envelope with fresh metadata.
func NewEnvelope(topic Topic, payload any, source string) Envelope {
	return Envelope{
		Topic:    topic,
		Payload:  payload,
		Metadata: NewMetadata(source),
	}
}

// EventTopic implements TopicProvider.
func (e Envelope) EventTopic() Topic {
	return e.Topic
}

func topicOf(ev any) Topic {
	if tp, ok := ev.(TopicProvider); ok {
		return tp.EventTopic()
	}
	return ""
}
