package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// ErrRoomNotFound is returned when the room document does not exist.
var ErrRoomNotFound = errors.New("draft room not found")

// Engine applies state machine operations to one room document.
//
// Each operation reads the latest document, computes a patch, and merges
// it back. Operations from this process are serialized, but nothing stops
// another writer from merging between the read and the write; the last
// merge wins.
type Engine struct {
	store     docstore.Store
	key       docstore.Key
	policy    base.LeaguePolicy
	clock     clockwork.Clock
	publisher events.Publisher

	mu sync.Mutex
}

func New(store docstore.Store, key docstore.Key, policy base.LeaguePolicy, clk clockwork.Clock, publisher events.Publisher) *Engine {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Engine{
		store:     store,
		key:       key,
		policy:    policy,
		clock:     clk,
		publisher: publisher,
	}
}

func (e *Engine) DraftID() string {
	return e.key.DocumentID
}

func (e *Engine) Policy() base.LeaguePolicy {
	return e.policy
}

// State reads the current room document.
func (e *Engine) State(ctx context.Context) (models.DraftState, error) {
	doc, err := e.store.Get(ctx, e.key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return models.DraftState{}, fmt.Errorf("%w: %s", ErrRoomNotFound, e.key)
		}
		return models.DraftState{}, fmt.Errorf("failed to read draft state: %w", err)
	}
	return DecodeState(doc)
}

// DecodeState unmarshals a room document.
func DecodeState(doc docstore.Document) (models.DraftState, error) {
	var state models.DraftState
	if err := doc.Decode(&state); err != nil {
		return models.DraftState{}, err
	}
	return state, nil
}

// Initialize writes a fresh document for ledger positioned at round 1,
// pick 1 and paused.
func (e *Engine) Initialize(ctx context.Context, picks map[int][]models.DraftPick) (models.DraftState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := models.NewDraftState(picks, e.policy.SecondsForRound(1))
	patch := models.DraftStatePatch{
		CurrentPick:             ptr(state.CurrentPick),
		CurrentRound:            ptr(state.CurrentRound),
		NextPick:                ptr(state.NextPick),
		IsPaused:                ptr(state.IsPaused),
		Seconds:                 ptr(state.Seconds),
		EndTime:                 ptr(state.EndTime),
		RecentlyDraftedPlayerID: ptr(0),
		ExportComplete:          ptr(false),
		Started:                 ptr(false),
		AllDraftPicks:           ledgerOrEmpty(picks),
	}
	if err := e.write(ctx, patch); err != nil {
		return models.DraftState{}, err
	}
	log.Info().Str("draft_id", e.DraftID()).Int("picks", ledger.New(picks, e.policy.PicksPerRound).TotalPicks()).Msg("initialized draft room")
	return patch.Apply(models.DraftState{}), nil
}

func ledgerOrEmpty(picks map[int][]models.DraftPick) map[int][]models.DraftPick {
	if picks == nil {
		return map[int][]models.DraftPick{}
	}
	return picks
}

// transition loads the document, computes a patch and persists it.
func (e *Engine) transition(ctx context.Context, compute func(models.DraftState) (models.DraftStatePatch, error)) (models.DraftState, models.DraftState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, err := e.State(ctx)
	if err != nil {
		return models.DraftState{}, models.DraftState{}, err
	}
	patch, err := compute(before)
	if err != nil {
		return before, before, err
	}
	if err := e.write(ctx, patch); err != nil {
		return before, before, err
	}
	return before, patch.Apply(before), nil
}

func (e *Engine) write(ctx context.Context, patch models.DraftStatePatch) error {
	if err := e.store.Merge(ctx, e.key, patch.Fields()); err != nil {
		log.Error().Err(err).Str("draft_id", e.DraftID()).Msg("failed to write draft state")
		return fmt.Errorf("failed to write draft state: %w", err)
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, eventType events.Type, payload any) {
	events.Emit(ctx, e.publisher, eventType, e.DraftID(), e.clock.Now(), payload)
}

// StartDraft moves a not-started room onto the clock.
func (e *Engine) StartDraft(ctx context.Context) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		return Start(s, e.policy, e.clock.Now())
	})
	if err != nil {
		return after, fmt.Errorf("failed to start draft: %w", err)
	}

	log.Info().Str("draft_id", e.DraftID()).Int("seconds", after.Seconds).Msg("draft started")
	e.emit(ctx, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:     e.DraftID(),
		StartedAt:   e.clock.Now(),
		TotalRounds: e.policy.TotalRounds,
		TotalPicks:  ledger.New(after.AllDraftPicks, e.policy.PicksPerRound).TotalPicks(),
		Seconds:     after.Seconds,
	})
	return after, nil
}

// AdvanceToNextPick moves the cursor without filling the pick.
func (e *Engine) AdvanceToNextPick(ctx context.Context) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		return Advance(s, e.policy, e.clock.Now())
	})
	if err != nil {
		return after, fmt.Errorf("failed to advance pick: %w", err)
	}

	log.Info().
		Str("draft_id", e.DraftID()).
		Int("round", after.CurrentRound).
		Int("pick", after.CurrentPick).
		Msg("advanced to next pick")
	e.emitIfCompleted(ctx, after)
	return after, nil
}

// Pause freezes the clock. reason is events.PauseReasonManual or
// events.PauseReasonClockExpired.
func (e *Engine) Pause(ctx context.Context, reason string) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		return Pause(s, e.policy, e.clock.Now())
	})
	if err != nil {
		return after, fmt.Errorf("failed to pause draft: %w", err)
	}

	log.Info().Str("draft_id", e.DraftID()).Str("reason", reason).Int("seconds", after.Seconds).Msg("draft paused")
	e.emit(ctx, events.TypeDraftPaused, events.DraftPausedPayload{
		DraftID:          e.DraftID(),
		PausedAt:         e.clock.Now(),
		Reason:           reason,
		SecondsRemaining: after.Seconds,
	})
	return after, nil
}

// Resume restarts a paused clock.
func (e *Engine) Resume(ctx context.Context) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		return Resume(s, e.policy, e.clock.Now())
	})
	if err != nil {
		return after, fmt.Errorf("failed to resume draft: %w", err)
	}

	log.Info().Str("draft_id", e.DraftID()).Int("seconds", after.Seconds).Msg("draft resumed")
	e.emit(ctx, events.TypeDraftResumed, events.DraftResumedPayload{
		DraftID:   e.DraftID(),
		ResumedAt: e.clock.Now(),
		EndTime:   after.EndAt(),
	})
	return after, nil
}

// Reset restores the clock to a round's allotment. round <= 0 uses the
// current round.
func (e *Engine) Reset(ctx context.Context, round int) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		return Reset(s, e.policy, round, e.clock.Now())
	})
	if err != nil {
		return after, fmt.Errorf("failed to reset clock: %w", err)
	}

	if round <= 0 {
		round = after.CurrentRound
	}
	e.emit(ctx, events.TypeDraftReset, events.DraftResetPayload{
		DraftID: e.DraftID(),
		Round:   round,
		Seconds: after.Seconds,
		ResetAt: e.clock.Now(),
	})
	return after, nil
}

// ManualUpdate merges an arbitrary admin patch. Callers must authorize it.
func (e *Engine) ManualUpdate(ctx context.Context, patch models.DraftStatePatch) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(models.DraftState) (models.DraftStatePatch, error) {
		return ManualUpdate(patch)
	})
	if err != nil {
		return after, fmt.Errorf("failed to apply manual update: %w", err)
	}

	fields := make([]string, 0)
	for name := range patch.Fields() {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	log.Warn().Str("draft_id", e.DraftID()).Strs("fields", fields).Msg("manual draft update applied")
	e.emit(ctx, events.TypeDraftManualUpdate, events.DraftManualUpdatePayload{
		DraftID:   e.DraftID(),
		Fields:    fields,
		UpdatedAt: e.clock.Now(),
	})
	return after, nil
}

// DraftPlayer fills the current pick with sel and advances, writing the
// ledger and the cursor in one merge.
func (e *Engine) DraftPlayer(ctx context.Context, sel Selection) (models.DraftState, models.DraftPick, error) {
	var filled models.DraftPick
	_, after, err := e.transition(ctx, func(s models.DraftState) (models.DraftStatePatch, error) {
		patch, pick, err := DraftPlayer(s, e.policy, sel, e.clock.Now())
		filled = pick
		return patch, err
	})
	if err != nil {
		return after, models.DraftPick{}, fmt.Errorf("failed to draft player: %w", err)
	}

	log.Info().
		Str("draft_id", e.DraftID()).
		Int("pick_id", filled.ID).
		Int("team_id", filled.TeamID).
		Int("player_id", sel.PlayerID).
		Msg("player drafted")
	e.emit(ctx, events.TypePickMade, events.PickMadePayload{
		DraftID:        e.DraftID(),
		PickID:         filled.ID,
		TeamID:         filled.TeamID,
		TeamName:       filled.Team,
		PlayerID:       filled.SelectedPlayerID,
		PlayerName:     filled.SelectedPlayerName,
		PlayerPosition: filled.SelectedPlayerPosition,
		Round:          filled.DraftRound,
		Pick:           filled.DraftNumber,
		OverallPick:    filled.Overall(e.policy.PicksPerRound),
		MadeAt:         e.clock.Now(),
	})
	e.emitIfCompleted(ctx, after)
	return after, filled, nil
}

// SetExportComplete sets the one-way export flag.
func (e *Engine) SetExportComplete(ctx context.Context) (models.DraftState, error) {
	_, after, err := e.transition(ctx, func(models.DraftState) (models.DraftStatePatch, error) {
		return SetExportComplete(), nil
	})
	if err != nil {
		return after, fmt.Errorf("failed to mark export complete: %w", err)
	}
	log.Info().Str("draft_id", e.DraftID()).Msg("draft export complete")
	return after, nil
}

func (e *Engine) emitIfCompleted(ctx context.Context, after models.DraftState) {
	if !IsComplete(after, e.policy) {
		return
	}
	log.Info().Str("draft_id", e.DraftID()).Msg("draft completed")
	e.emit(ctx, events.TypeDraftCompleted, events.DraftCompletedPayload{
		DraftID:     e.DraftID(),
		CompletedAt: e.clock.Now(),
		TotalPicks:  ledger.New(after.AllDraftPicks, e.policy.PicksPerRound).CompletedCount(),
	})
}

// Remaining returns the clock for s at the engine's current time.
func (e *Engine) Remaining(s models.DraftState) int {
	return clock.Remaining(s, e.clock.Now())
}
