package history

import "time"

// Event represents a domain event in the generation pipeline.
type Event interface {
	// ID returns the store-assigned sequence number.
	ID() int64
	// JobID returns the generation job this event belongs to.
	JobID() string
	// Repository returns the owner/name slug the job ran against.
	Repository() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event was recorded.
	Timestamp() time.Time
	// Payload returns the serialized event body.
	Payload() []byte
	// Metadata returns optional key/value annotations.
	Metadata() map[string]string
}

// BaseEvent is the embeddable default implementation of Event.
type BaseEvent struct {
	EventID         int64
	EventJobID      string
	EventRepository string
	EventType       string
	EventTimestamp  time.Time
	EventPayload    []byte
	EventMetadata   map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) JobID() string               { return e.EventJobID }
func (e *BaseEvent) Repository() string          { return e.EventRepository }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
