package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Envelope is the wire shape of every published event.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType Type            `json:"eventType"`
	DraftID   string          `json:"draftId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into a fresh envelope.
func NewEnvelope(eventType Type, draftID string, at time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		DraftID:   draftID,
		Timestamp: at,
		Payload:   raw,
	}, nil
}

// Subject returns the subject an event is published on.
func Subject(prefix string, eventType Type) string {
	return fmt.Sprintf("%s.draft.%s", prefix, eventType)
}

// Publisher delivers domain events. Delivery is best effort; callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Envelope) error
}

// LogPublisher writes events to the log only, for development.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event Envelope) error {
	log.Info().
		Str("event_id", event.EventID).
		Str("event_type", string(event.EventType)).
		Str("draft_id", event.DraftID).
		Msg("publishing event")
	return nil
}

// NATSPublisher publishes events to NATS. When the subject is bound to a
// JetStream stream the gateway consumer picks them up from there.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, event Envelope) error {
	subject := Subject(p.prefix, event.EventType)

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = messageBytes
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Int("size", len(messageBytes)).
		Msg("published event to NATS")
	return nil
}

// Emit builds an envelope and publishes it, logging rather than returning
// any failure.
func Emit(ctx context.Context, pub Publisher, eventType Type, draftID string, at time.Time, payload any) {
	if pub == nil {
		return
	}
	env, err := NewEnvelope(eventType, draftID, at, payload)
	if err == nil {
		err = pub.Publish(ctx, env)
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("draft_id", draftID).
			Str("event_type", string(eventType)).
			Msg("failed to publish event")
	}
}
