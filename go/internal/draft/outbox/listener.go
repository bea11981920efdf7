package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int // Max events to fetch per batch
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    "draft_outbox_events",
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Stats reports relay progress for health checks.
type Stats struct {
	EventsRelayed uint64    `json:"events_relayed"`
	LastRelayedAt time.Time `json:"last_relayed_at,omitempty"`
	Failures      uint64    `json:"failures"`
}

// Relay moves outbox rows to the downstream publisher and marks them sent.
type Relay struct {
	store     Store
	publisher events.Publisher
	clock     clockwork.Clock
	cfg       ListenerConfig

	mu    sync.Mutex
	stats Stats
}

// NewRelay builds a relay. A nil clock uses the real one.
func NewRelay(store Store, publisher events.Publisher, clk clockwork.Clock, cfg ListenerConfig) *Relay {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Relay{store: store, publisher: publisher, clock: clk, cfg: cfg}
}

// HandleNotification relays the event whose id is the notification payload.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := r.store.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if event.SentAt != nil {
		return nil
	}
	if err := r.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("event_id", id.String()).Msg("published and marked event as sent")
	return nil
}

// ProcessUnsent relays one batch of unsent events and returns how many made
// it out.
func (r *Relay) ProcessUnsent(ctx context.Context) (int, error) {
	unsent, err := r.store.FetchUnsent(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range unsent {
		if err := r.publishWithRetry(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to publish event")
			continue
		}
		sent++
	}
	return sent, nil
}

// publishWithRetry attempts to publish an outbox event with a given retry delay and max retries.
func (r *Relay) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var env events.Envelope
	if err := json.Unmarshal(event.Payload, &env); err != nil {
		r.recordFailure()
		return fmt.Errorf("failed to decode outbox envelope %s: %w", event.ID, err)
	}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, env); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if err := r.store.MarkSent(ctx, event.ID); err != nil {
			return err
		}
		r.recordSent()
		return nil
	}

	r.recordFailure()
	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

func (r *Relay) recordSent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.EventsRelayed++
	r.stats.LastRelayedAt = r.clock.Now()
}

func (r *Relay) recordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Failures++
}

func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Listener drives a Relay from Postgres notifications, with a periodic
// sweep for rows whose notification was lost.
type Listener struct {
	*Relay
	listener *pq.Listener
}

func NewListener(store Store, publisher events.Publisher, clk clockwork.Clock, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		Relay:    NewRelay(store, publisher, clk, cfg),
		listener: l,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("outbox listener started")

	// catch up on anything written while no listener was running
	if _, err := l.ProcessUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}

	pingTicker := l.clock.NewTicker(l.cfg.PingInterval)
	fallbackTicker := l.clock.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox listener shutting down")
			return l.Close()
		case note := <-l.listener.Notify:
			if note == nil {
				// the connection was re-established; notifications may have been lost
				if _, err := l.ProcessUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent events")
				}
				continue
			}
			if err := l.HandleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.Chan():
			if _, err := l.ProcessUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pingTicker.Chan():
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}
