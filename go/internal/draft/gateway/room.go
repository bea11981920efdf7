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
	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
)

var (
	// ErrRoomNotReady is returned while a room has no bootstrap data or no
	// document revision yet.
	ErrRoomNotReady = errors.New("draft room is not ready")
	// ErrUnknownPlayer is returned when a selection names a player outside
	// the prospect pool.
	ErrUnknownPlayer = errors.New("player is not in the prospect pool")
)

// SearchDistance is the edit distance allowed by prospect name search.
const SearchDistance = 2

// Broadcaster fans room events out to connected clients.
type Broadcaster interface {
	BroadcastToDraft(draftID string, event *RoomEvent)
	ConnectionCount(draftID string) int
}

// Room is the gateway-side session for one draft room document. It keeps
// a cached copy of the document, refreshed from the store subscription,
// and runs the local pick clock against it.
type Room struct {
	id           string
	engine       *engine.Engine
	store        docstore.Store
	bootstrapper Bootstrapper
	broadcaster  Broadcaster
	clock        clockwork.Clock
	ticker       *clock.Ticker

	mu           sync.RWMutex
	state        models.DraftState
	revision     uint64
	loaded       bool
	data         *RoomData
	bootstrapErr error
	running      bool
	lastActive   time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRoom creates a closed room. Call Open before use.
func NewRoom(id string, eng *engine.Engine, store docstore.Store, bootstrapper Bootstrapper, broadcaster Broadcaster, clk clockwork.Clock) *Room {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	r := &Room{
		id:           id,
		engine:       eng,
		store:        store,
		bootstrapper: bootstrapper,
		broadcaster:  broadcaster,
		clock:        clk,
		lastActive:   clk.Now(),
	}
	r.ticker = clock.NewTicker(clk, id, r.State, r.onTick, r.onExpire)
	return r
}

func (r *Room) ID() string {
	return r.id
}

// Open bootstraps the room, creates its document if none exists and starts
// following it. A bootstrap failure leaves the room registered but
// unusable until Open succeeds on a retry.
func (r *Room) Open(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	data, err := r.bootstrapper.Bootstrap(ctx, r.id)
	if err != nil {
		r.failBootstrap(err)
		return fmt.Errorf("failed to bootstrap room %s: %w", r.id, err)
	}

	if _, err := r.store.Get(ctx, engine.RoomKey(r.id)); err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			r.failBootstrap(err)
			return fmt.Errorf("failed to read room %s: %w", r.id, err)
		}
		if _, err := r.engine.Initialize(ctx, data.Picks); err != nil {
			r.failBootstrap(err)
			return fmt.Errorf("failed to initialize room %s: %w", r.id, err)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	updates, err := r.store.Subscribe(runCtx, engine.RoomKey(r.id))
	if err != nil {
		cancel()
		r.failBootstrap(err)
		return fmt.Errorf("failed to subscribe to room %s: %w", r.id, err)
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		cancel()
		return nil
	}
	r.data = data
	r.bootstrapErr = nil
	r.running = true
	r.cancel = cancel
	r.lastActive = r.clock.Now()
	r.mu.Unlock()

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.watch(runCtx, updates)
	}()
	go func() {
		defer r.wg.Done()
		r.ticker.Run(runCtx)
	}()

	log.Info().Str("draft_id", r.id).Msg("draft room opened")
	return nil
}

func (r *Room) failBootstrap(err error) {
	r.mu.Lock()
	r.bootstrapErr = err
	r.mu.Unlock()

	log.Error().Err(err).Str("draft_id", r.id).Msg("draft room bootstrap failed")
	r.broadcastError("bootstrap", err)
}

func (r *Room) watch(ctx context.Context, updates <-chan docstore.Document) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-updates:
			if !ok {
				log.Warn().Str("draft_id", r.id).Msg("room subscription closed")
				return
			}
			r.applyDocument(doc)
		}
	}
}

// applyDocument replaces the cache with doc unless an equal or newer
// revision is already held.
func (r *Room) applyDocument(doc docstore.Document) bool {
	state, err := engine.DecodeState(doc)
	if err != nil {
		log.Error().Err(err).Str("draft_id", r.id).Uint64("revision", doc.Revision).Msg("failed to decode room document")
		r.broadcastError("decode", err)
		return false
	}

	r.mu.Lock()
	if r.loaded && doc.Revision <= r.revision {
		r.mu.Unlock()
		return false
	}
	r.state = state
	r.revision = doc.Revision
	r.loaded = true
	r.mu.Unlock()

	log.Debug().Str("draft_id", r.id).Uint64("revision", doc.Revision).Msg("room state updated")
	r.broadcast(EventTypeStateChanged, r.View())
	return true
}

// State returns the cached document.
func (r *Room) State() models.DraftState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Ready reports whether the room holds bootstrap data and a document.
func (r *Room) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data != nil && r.loaded
}

// BootstrapError returns the last bootstrap failure, if any.
func (r *Room) BootstrapError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bootstrapErr
}

// View derives the read model from the cached document.
func (r *Room) View() RoomView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewLocked(r.state, r.loaded)
}

// ViewOf derives the read model for a state returned by an operation,
// which may be newer than the cache.
func (r *Room) ViewOf(state models.DraftState) RoomView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewLocked(state, true)
}

func (r *Room) viewLocked(state models.DraftState, loaded bool) RoomView {
	policy := r.engine.Policy()
	view := RoomView{
		DraftID:  r.id,
		Revision: r.revision,
	}
	if r.bootstrapErr != nil {
		view.BootstrapError = r.bootstrapErr.Error()
	}
	if r.data != nil {
		view.Teams = r.data.Teams
	}
	if !loaded {
		return view
	}

	s := state.Clone()
	proj := ledger.Project(s, policy.PicksPerRound, ledger.ProjectOptions{})
	view.Status = engine.Status(s, policy)
	view.State = &s
	view.Projection = &proj
	view.Clock = newClockView(s, r.clock.Now())
	if r.data != nil {
		view.AvailableCount = len(ledger.AvailableDraftees(r.data.Draftees, r.draftedLocked(s)))
	}
	return view
}

func (r *Room) draftedLocked(s models.DraftState) map[int]struct{} {
	return ledger.New(s.AllDraftPicks, r.engine.Policy().PicksPerRound).DraftedPlayerIDs()
}

// Drafted returns the ids of every drafted player in the cached ledger.
func (r *Room) Drafted() map[int]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.draftedLocked(r.state)
}

// Prospects returns the undrafted pool, filtered by a fuzzy name query
// when query is non-empty.
func (r *Room) Prospects(query string) []models.Draftee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return []models.Draftee{}
	}
	available := ledger.AvailableDraftees(r.data.Draftees, r.draftedLocked(r.state))
	return ledger.SearchDraftees(available, query, SearchDistance)
}

// TeamPicks returns teamID's picks from the cached ledger.
func (r *Room) TeamPicks(teamID int) []models.DraftPick {
	r.mu.RLock()
	defer r.mu.RUnlock()
	picks := ledger.New(r.state.AllDraftPicks, r.engine.Policy().PicksPerRound).PicksByTeam(teamID)
	if picks == nil {
		return []models.DraftPick{}
	}
	return picks
}

// Selection completes sel from the prospect pool.
func (r *Room) Selection(sel engine.Selection) (engine.Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return sel, ErrRoomNotReady
	}
	for _, d := range r.data.Draftees {
		if d.ID != sel.PlayerID {
			continue
		}
		if sel.Name == "" {
			sel.Name = d.FullName()
		}
		if sel.Position == "" {
			sel.Position = d.Position
		}
		return sel, nil
	}
	return sel, fmt.Errorf("%w: %d", ErrUnknownPlayer, sel.PlayerID)
}

// Operation runs one engine operation.
type Operation func(ctx context.Context, eng *engine.Engine) (models.DraftState, error)

// Do runs op against the room. Rule violations are returned to the caller
// only; any other failure is also broadcast to the room.
func (r *Room) Do(ctx context.Context, name string, op Operation) (models.DraftState, error) {
	if !r.Ready() {
		return models.DraftState{}, ErrRoomNotReady
	}
	r.touch()

	state, err := op(ctx, r.engine)
	if err != nil {
		if IsRuleError(err) {
			log.Debug().Err(err).Str("draft_id", r.id).Str("operation", name).Msg("draft operation rejected")
			return state, err
		}
		log.Error().Err(err).Str("draft_id", r.id).Str("operation", name).Msg("draft operation failed")
		r.broadcastError(name, err)
		return state, err
	}
	return state, nil
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = r.clock.Now()
	r.mu.Unlock()
}

// LastActive returns when the room last ran an operation or opened.
func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}

func (r *Room) onTick(remaining int) {
	if r.broadcaster == nil || r.broadcaster.ConnectionCount(r.id) == 0 {
		return
	}
	s := r.State()
	if engine.IsComplete(s, r.engine.Policy()) {
		return
	}
	r.broadcast(EventTypeClockTick, ClockTickPayload{
		SecondsRemaining: remaining,
		Display:          clock.Format(remaining),
		Paused:           s.IsPaused || !s.Started,
	})
}

// onExpire pauses the room. Another gateway may have paused it first, in
// which case the transition is rejected and nothing is written.
func (r *Room) onExpire() {
	ctx := context.Background()
	_, err := r.engine.Pause(ctx, events.PauseReasonClockExpired)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrInvalidTransition):
		log.Debug().Str("draft_id", r.id).Msg("clock expired on a room that is no longer running")
	default:
		log.Error().Err(err).Str("draft_id", r.id).Msg("failed to pause expired clock")
		r.broadcastError("clock_expired", err)
	}
}

func (r *Room) broadcastError(operation string, err error) {
	r.broadcast(EventTypeError, ErrorPayload{Operation: operation, Message: err.Error()})
}

func (r *Room) broadcast(eventType EventType, data any) {
	if r.broadcaster == nil {
		return
	}
	event, err := NewRoomEvent(r.id, eventType, r.clock.Now(), data)
	if err != nil {
		log.Error().Err(err).Str("draft_id", r.id).Msg("failed to build room event")
		return
	}
	r.broadcaster.BroadcastToDraft(r.id, event)
}

// Close stops the subscription and the clock.
func (r *Room) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.running = false
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	log.Info().Str("draft_id", r.id).Msg("draft room closed")
}

// IsRuleError reports whether err is a rejected operation rather than a
// failed write.
func IsRuleError(err error) bool {
	for _, target := range []error{
		engine.ErrDraftComplete,
		engine.ErrNoPickAtCursor,
		engine.ErrPickAlreadyFilled,
		engine.ErrPlayerAlreadyDrafted,
		engine.ErrInvalidTransition,
		engine.ErrInvalidPlayer,
		engine.ErrEmptyUpdate,
		ErrUnknownPlayer,
		ErrRoomNotReady,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
