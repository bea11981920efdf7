// Package outbox makes draft events durable. Events are written to the
// draft_outbox table and relayed to the live publisher by a listener that
// wakes on Postgres notifications and sweeps for anything it missed.
package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEventNotFound = errors.New("outbox event not found")

// OutboxEvent is one row of the draft_outbox table. Payload holds the full
// events.Envelope.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   string          `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}
