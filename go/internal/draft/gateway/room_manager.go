package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
)

// RoomManagerConfig tunes idle room eviction.
type RoomManagerConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

func DefaultRoomManagerConfig() RoomManagerConfig {
	return RoomManagerConfig{
		IdleTimeout:   30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// RoomManager opens rooms on demand and closes the ones nobody uses.
type RoomManager struct {
	factory      *engine.Factory
	bootstrapper Bootstrapper
	broadcaster  Broadcaster
	clock        clockwork.Clock
	config       RoomManagerConfig

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRoomManager(factory *engine.Factory, bootstrapper Bootstrapper, broadcaster Broadcaster, clk clockwork.Clock, config RoomManagerConfig) *RoomManager {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if config.IdleTimeout <= 0 || config.SweepInterval <= 0 {
		config = DefaultRoomManagerConfig()
	}
	return &RoomManager{
		factory:      factory,
		bootstrapper: bootstrapper,
		broadcaster:  broadcaster,
		clock:        clk,
		config:       config,
		rooms:        make(map[string]*Room),
	}
}

// Get returns the room for draftID, opening it when needed. A room whose
// bootstrap failed is returned together with the error so callers can
// report it.
func (m *RoomManager) Get(ctx context.Context, draftID string) (*Room, error) {
	m.mu.Lock()
	room, ok := m.rooms[draftID]
	if !ok {
		room = NewRoom(draftID, m.factory.For(draftID), m.factory.Store(), m.bootstrapper, m.broadcaster, m.clock)
		m.rooms[draftID] = room
	}
	m.mu.Unlock()

	if err := room.Open(ctx); err != nil {
		return room, err
	}
	return room, nil
}

// GetExisting is Get for rooms that already exist: registered here or
// holding a stored document. Any other id yields engine.ErrRoomNotFound
// and nothing is written.
func (m *RoomManager) GetExisting(ctx context.Context, draftID string) (*Room, error) {
	if _, ok := m.Lookup(draftID); !ok {
		if _, err := m.factory.Store().Get(ctx, engine.RoomKey(draftID)); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", engine.ErrRoomNotFound, draftID)
			}
			return nil, fmt.Errorf("failed to look up draft room: %w", err)
		}
	}
	return m.Get(ctx, draftID)
}

// Lookup returns an already registered room without opening it.
func (m *RoomManager) Lookup(draftID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[draftID]
	return room, ok
}

// Count returns the number of registered rooms.
func (m *RoomManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// IDs returns the registered room ids.
func (m *RoomManager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Close closes and forgets one room.
func (m *RoomManager) Close(draftID string) {
	m.mu.Lock()
	room, ok := m.rooms[draftID]
	delete(m.rooms, draftID)
	m.mu.Unlock()

	if ok {
		room.Close()
		m.factory.Forget(draftID)
	}
}

// CloseIdle closes every room with no open sockets that has been inactive
// for longer than the idle timeout. It returns the closed room ids.
func (m *RoomManager) CloseIdle(now time.Time) []string {
	m.mu.Lock()
	var idle []string
	for id, room := range m.rooms {
		if m.broadcaster != nil && m.broadcaster.ConnectionCount(id) > 0 {
			continue
		}
		if now.Sub(room.LastActive()) > m.config.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		log.Info().Str("draft_id", id).Msg("closing idle draft room")
		m.Close(id)
	}
	return idle
}

// Run sweeps idle rooms until ctx is cancelled, then closes every room.
func (m *RoomManager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.Chan():
			m.CloseIdle(m.clock.Now())
		}
	}
}

// CloseAll closes every room.
func (m *RoomManager) CloseAll() {
	for _, id := range m.IDs() {
		m.Close(id)
	}
}
