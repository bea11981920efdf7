package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
)

// Publisher is an events.Publisher that writes to the outbox instead of the
// wire. The listener delivers the row later.
type Publisher struct {
	store Store
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Publish(ctx context.Context, event events.Envelope) error {
	id, err := uuid.Parse(event.EventID)
	if err != nil {
		id = uuid.New()
		event.EventID = id.String()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox envelope: %w", err)
	}
	return p.store.Insert(ctx, OutboxEvent{
		ID:        id,
		DraftID:   event.DraftID,
		EventType: string(event.EventType),
		Payload:   raw,
	})
}
