package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/scouting"
)

// Service is the draft room gateway: room sessions, the HTTP command and
// view routes, and the WebSocket fan-out.
type Service struct {
	connectionManager *ConnectionManager
	rooms             *RoomManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	boardHandler      *BoardHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig  ConnectionConfig
	RoomManagerConfig RoomManagerConfig
	JetStreamConfig   JetStreamConsumerConfig
	AdminToken        string
}

// DefaultConfig returns default configuration for the draft gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig:  DefaultConnectionConfig(),
		RoomManagerConfig: DefaultRoomManagerConfig(),
		JetStreamConfig:   DefaultJetStreamConsumerConfig(),
	}
}

// Dependencies are the collaborators the gateway is built from. NATS and
// Scouting are optional: without NATS no domain events are relayed, and
// without Scouting the board routes are not mounted.
type Dependencies struct {
	Factory      *engine.Factory
	Bootstrapper Bootstrapper
	Clock        clockwork.Clock
	NATS         *nats.Conn
	Scouting     scouting.ScoutingClient
}

// NewService creates a new draft gateway service
func NewService(ctx context.Context, config Config, deps Dependencies) (*Service, error) {
	if deps.Factory == nil || deps.Bootstrapper == nil {
		return nil, fmt.Errorf("gateway requires an engine factory and a bootstrapper")
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig)
	rooms := NewRoomManager(deps.Factory, deps.Bootstrapper, connectionManager, deps.Clock, config.RoomManagerConfig)

	s := &Service{
		connectionManager: connectionManager,
		rooms:             rooms,
		wsHandler:         NewWebSocketHandler(connectionManager, rooms),
		stateHandler:      NewStateHandler(rooms, connectionManager, config.AdminToken),
	}
	if deps.Scouting != nil {
		s.boardHandler = NewBoardHandler(rooms, deps.Scouting, deps.Factory.Policy())
	}
	if deps.NATS != nil {
		consumer, err := NewEventConsumer(ctx, deps.NATS, connectionManager, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = consumer
	}
	return s, nil
}

// Start runs the connection manager, the idle room sweeper and the event
// consumer until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draft gateway service")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.connectionManager.Start(gctx)
		return nil
	})
	g.Go(func() error {
		s.rooms.Run(gctx)
		return nil
	})
	if s.eventConsumer != nil {
		g.Go(func() error {
			return s.eventConsumer.Start(gctx)
		})
	}

	err := g.Wait()
	log.Info().Msg("draft gateway service stopped")
	return err
}

// RegisterRoutes registers the gateway HTTP and WebSocket routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	if s.boardHandler != nil {
		s.boardHandler.RegisterBoardRoutes(mux)
	}
	log.Info().Msg("draft gateway routes registered")
}

// Rooms exposes the room manager.
func (s *Service) Rooms() *RoomManager {
	return s.rooms
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats(ctx context.Context) map[string]any {
	stats := s.connectionManager.GetConnectionStats()
	out := map[string]any{
		"service":           "draft_gateway",
		"status":            "running",
		"rooms":             s.rooms.Count(),
		"total_connections": stats.TotalConnections,
		"active_drafts":     stats.ActiveDrafts,
	}
	if s.eventConsumer != nil {
		out["event_consumer"] = s.eventConsumer.Stats(ctx)
	}
	return out
}
