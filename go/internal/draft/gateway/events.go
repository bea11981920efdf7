package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomEvent is the message pushed to every socket in a room.
type RoomEvent struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of room event
type EventType string

const (
	// EventTypeStateChanged carries a full RoomView after the document changed.
	EventTypeStateChanged EventType = "StateChanged"
	// EventTypeClockTick carries the recomputed pick clock once per second.
	EventTypeClockTick EventType = "ClockTick"
	// EventTypeError reports a failed remote write to everyone in the room.
	EventTypeError EventType = "Error"
	// EventTypeDomain relays an engine domain event from the event stream.
	EventTypeDomain EventType = "DomainEvent"
)

// ClockTickPayload is the periodic pick clock update
type ClockTickPayload struct {
	SecondsRemaining int    `json:"seconds_remaining"`
	Display          string `json:"display"`
	Paused           bool   `json:"paused"`
}

// ErrorPayload describes an operation that could not be persisted
type ErrorPayload struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// DomainEventPayload wraps a relayed engine event
type DomainEventPayload struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// NewRoomEvent marshals data into a room event.
func NewRoomEvent(draftID string, eventType EventType, at time.Time, data any) (*RoomEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &RoomEvent{
		ID:        uuid.New().String(),
		DraftID:   draftID,
		Type:      eventType,
		Timestamp: at.UTC(),
		Data:      raw,
	}, nil
}
