package engine

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// RoomCollection is the store collection draft room documents live in.
const RoomCollection = "draft_rooms"

// Factory hands out one Engine per draft room so operations on the same
// room from this process share a lock.
type Factory struct {
	store     docstore.Store
	policy    base.LeaguePolicy
	clock     clockwork.Clock
	publisher events.Publisher

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewFactory(store docstore.Store, policy base.LeaguePolicy, clk clockwork.Clock, publisher events.Publisher) *Factory {
	return &Factory{
		store:     store,
		policy:    policy,
		clock:     clk,
		publisher: publisher,
		engines:   make(map[string]*Engine),
	}
}

// RoomKey is the document key of draftID.
func RoomKey(draftID string) docstore.Key {
	return docstore.Key{Collection: RoomCollection, DocumentID: draftID}
}

// For returns the engine for draftID, creating it on first use.
func (f *Factory) For(draftID string) *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.engines[draftID]; ok {
		return e
	}
	e := New(f.store, RoomKey(draftID), f.policy, f.clock, f.publisher)
	f.engines[draftID] = e
	return e
}

// Forget drops the cached engine for draftID.
func (f *Factory) Forget(draftID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.engines, draftID)
}

func (f *Factory) Store() docstore.Store {
	return f.store
}

func (f *Factory) Policy() base.LeaguePolicy {
	return f.policy
}

// State reads the room document of draftID.
func (f *Factory) State(ctx context.Context, draftID string) (models.DraftState, error) {
	return f.For(draftID).State(ctx)
}

// SetExportComplete marks draftID as exported.
func (f *Factory) SetExportComplete(ctx context.Context, draftID string) (models.DraftState, error) {
	return f.For(draftID).SetExportComplete(ctx)
}

// DraftedPlayerIDs returns the players already selected in draftID.
func (f *Factory) DraftedPlayerIDs(ctx context.Context, draftID string) (map[int]struct{}, error) {
	s, err := f.State(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return ledger.New(s.AllDraftPicks, f.policy.PicksPerRound).DraftedPlayerIDs(), nil
}
