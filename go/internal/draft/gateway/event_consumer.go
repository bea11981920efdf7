package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer.
// Every gateway instance holds its own sockets, so each one binds its own
// consumer named <ConsumerName>-<InstanceID> and sees the whole stream.
type JetStreamConsumerConfig struct {
	StreamName        string
	ConsumerName      string
	InstanceID        string
	SubjectPrefix     string        // events are published on <prefix>.draft.<type>
	MaxDeliver        int           // Max delivery attempts
	AckWait           time.Duration // How long to wait for ack
	MaxAckPending     int           // Max messages pending ack
	InactiveThreshold time.Duration // consumers of instances gone this long are removed
}

// DefaultJetStreamConsumerConfig returns default JetStream consumer configuration
func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		StreamName:    "DRAFT_EVENTS",
		ConsumerName:      "draft-gateway",
		InstanceID:        gonanoid.Must(10),
		SubjectPrefix:     "draftroom",
		MaxDeliver:        5,
		AckWait:           30 * time.Second,
		MaxAckPending:     100,
		InactiveThreshold: 10 * time.Minute,
	}
}

// DurableName is the consumer this instance binds.
func (c JetStreamConsumerConfig) DurableName() string {
	if c.InstanceID == "" {
		return c.ConsumerName
	}
	return c.ConsumerName + "-" + c.InstanceID
}

// SubjectFilter matches every draft event under the prefix.
func (c JetStreamConsumerConfig) SubjectFilter() string {
	return c.SubjectPrefix + ".draft.>"
}

var relayedTypes = map[events.Type]bool{
	events.TypeDraftStarted:      true,
	events.TypePickMade:          true,
	events.TypeDraftPaused:       true,
	events.TypeDraftResumed:      true,
	events.TypeDraftReset:        true,
	events.TypeDraftManualUpdate: true,
	events.TypeDraftCompleted:    true,
	events.TypeDraftExported:     true,
}

// EventConsumer relays domain events from JetStream to the sockets of the
// room they belong to.
type EventConsumer struct {
	broadcaster Broadcaster
	js          jetstream.JetStream
	consumer    jetstream.Consumer
	config      JetStreamConsumerConfig
}

// NewEventConsumer binds a durable consumer on nc, creating the stream
// when it does not exist.
func NewEventConsumer(ctx context.Context, nc *nats.Conn, broadcaster Broadcaster, config JetStreamConsumerConfig) (*EventConsumer, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ec := &EventConsumer{
		broadcaster: broadcaster,
		js:          js,
		config:      config,
	}
	if err := ec.ensureConsumer(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return ec, nil
}

// newRelay builds a consumer without a JetStream binding.
func newRelay(broadcaster Broadcaster) *EventConsumer {
	return &EventConsumer{broadcaster: broadcaster, config: DefaultJetStreamConsumerConfig()}
}

// ensureConsumer creates or gets the JetStream consumer
func (ec *EventConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := ec.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      ec.config.StreamName,
		Subjects:  []string{ec.config.SubjectFilter()},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:              ec.config.DurableName(),
		Durable:           ec.config.DurableName(),
		Description:       "Draft gateway room relay",
		FilterSubject:     ec.config.SubjectFilter(),
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		MaxDeliver:        ec.config.MaxDeliver,
		AckWait:           ec.config.AckWait,
		MaxAckPending:     ec.config.MaxAckPending,
		ReplayPolicy:      jetstream.ReplayInstantPolicy,
		InactiveThreshold: ec.config.InactiveThreshold,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	log.Info().
		Str("consumer", ec.config.DurableName()).
		Str("stream", ec.config.StreamName).
		Msg("JetStream consumer ready")

	ec.consumer = consumer
	return nil
}

// Start consumes events until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", ec.config.DurableName()).
		Str("stream", ec.config.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.relay(msg.Data()); err != nil {
				// Malformed events never become valid; terminate instead of redelivering
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to terminate message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

// relay decodes one envelope and forwards it to the room's sockets.
func (ec *EventConsumer) relay(data []byte) error {
	var envelope events.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if envelope.DraftID == "" {
		return fmt.Errorf("event %s has no draft id", envelope.EventID)
	}
	if !relayedTypes[envelope.EventType] {
		log.Debug().Str("event_type", string(envelope.EventType)).Msg("ignoring unrelayed event type")
		return nil
	}
	if ec.broadcaster.ConnectionCount(envelope.DraftID) == 0 {
		return nil
	}

	event, err := NewRoomEvent(envelope.DraftID, EventTypeDomain, envelope.Timestamp, DomainEventPayload{
		EventID:   envelope.EventID,
		EventType: string(envelope.EventType),
		Payload:   envelope.Payload,
	})
	if err != nil {
		return err
	}
	ec.broadcaster.BroadcastToDraft(envelope.DraftID, event)

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("draft_id", envelope.DraftID).
		Str("event_type", string(envelope.EventType)).
		Msg("event relayed to room")
	return nil
}

// ConsumerStats is the health view of the relay's JetStream consumer.
type ConsumerStats struct {
	Name          string `json:"name"`
	Stream        string `json:"stream"`
	NumPending    uint64 `json:"num_pending"`
	NumAckPending int    `json:"num_ack_pending"`
	Redelivered   int    `json:"redelivered"`
	Error         string `json:"error,omitempty"`
}

// GetConsumerInfo returns information about the consumer
func (ec *EventConsumer) GetConsumerInfo(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	if ec.consumer == nil {
		return nil, fmt.Errorf("consumer %s is not bound", ec.config.DurableName())
	}
	return ec.consumer.Info(ctx)
}

// Stats reports consumer lag. A failed lookup is reported in Error rather
// than failing the health check.
func (ec *EventConsumer) Stats(ctx context.Context) ConsumerStats {
	stats := ConsumerStats{Name: ec.config.DurableName(), Stream: ec.config.StreamName}
	info, err := ec.GetConsumerInfo(ctx)
	if err != nil {
		stats.Error = err.Error()
		return stats
	}
	stats.NumPending = info.NumPending
	stats.NumAckPending = info.NumAckPending
	stats.Redelivered = info.NumRedelivered
	return stats
}
