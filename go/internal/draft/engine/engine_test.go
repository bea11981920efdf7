package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

// failingStore rejects every merge.
type failingStore struct {
	*docstore.MemoryStore
}

func (f failingStore) Merge(ctx context.Context, key docstore.Key, fields map[string]any) error {
	return errors.New("store unavailable")
}

var testKey = docstore.Key{Collection: "draft_rooms", DocumentID: "room-1"}

func newTestEngine(t *testing.T) (*Engine, clockwork.FakeClock, *recordingPublisher) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(now)
	pub := &recordingPublisher{}
	e := New(docstore.NewMemoryStore(), testKey, testPolicy(), fc, pub)
	_, err := e.Initialize(context.Background(), testLedger(t, 7))
	require.NoError(t, err)
	return e, fc, pub
}

func TestEngineInitialize(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s, err := e.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusNotStarted, Status(s, e.Policy()))
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 1, s.CurrentPick)
	assert.Equal(t, 300, s.Seconds)
	assert.Len(t, s.AllDraftPicks, 7)
}

func TestEngineStateMissingRoom(t *testing.T) {
	e := New(docstore.NewMemoryStore(), testKey, testPolicy(), nil, nil)
	_, err := e.State(context.Background())
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestEngineDraftFlow(t *testing.T) {
	ctx := context.Background()
	e, fc, pub := newTestEngine(t)

	s, err := e.StartDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, Status(s, e.Policy()))

	fc.Advance(30 * time.Second)
	s, filled, err := e.DraftPlayer(ctx, Selection{PlayerID: 11, Name: "Cole Barrett", Position: "QB"})
	require.NoError(t, err)
	assert.Equal(t, 1, filled.DraftNumber)
	assert.Equal(t, 2, s.CurrentPick)
	assert.Equal(t, 11, s.RecentlyDraftedPlayerID)

	persisted, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.CurrentPick, persisted.CurrentPick)
	assert.Equal(t, 11, persisted.AllDraftPicks[1][0].SelectedPlayerID)

	_, _, err = e.DraftPlayer(ctx, Selection{PlayerID: 11})
	assert.ErrorIs(t, err, ErrPlayerAlreadyDrafted)

	s, err = e.Pause(ctx, events.PauseReasonManual)
	require.NoError(t, err)
	assert.Equal(t, 300, s.Seconds)

	fc.Advance(10 * time.Minute)
	s, err = e.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, e.Remaining(s))

	assert.Equal(t, []events.Type{
		events.TypeDraftStarted,
		events.TypePickMade,
		events.TypeDraftPaused,
		events.TypeDraftResumed,
	}, pub.types())
}

func TestEngineCompletesAfterFinalPick(t *testing.T) {
	ctx := context.Background()
	e, _, pub := newTestEngine(t)

	round, pick, next := 7, 24, 25
	_, err := e.ManualUpdate(ctx, models.DraftStatePatch{CurrentRound: &round, CurrentPick: &pick, NextPick: &next})
	require.NoError(t, err)
	_, err = e.StartDraft(ctx)
	require.NoError(t, err)

	s, _, err := e.DraftPlayer(ctx, Selection{PlayerID: 500})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, Status(s, e.Policy()))
	assert.True(t, s.IsPaused)
	assert.Zero(t, s.Seconds)

	_, err = e.AdvanceToNextPick(ctx)
	assert.ErrorIs(t, err, ErrDraftComplete)

	s, err = e.SetExportComplete(ctx)
	require.NoError(t, err)
	assert.True(t, s.ExportComplete)

	assert.Contains(t, pub.types(), events.TypeDraftCompleted)
	assert.Contains(t, pub.types(), events.TypeDraftManualUpdate)
}

func TestEngineWriteFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	seed := New(mem, testKey, testPolicy(), clockwork.NewFakeClockAt(now), nil)
	_, err := seed.Initialize(ctx, testLedger(t, 1))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	e := New(failingStore{mem}, testKey, testPolicy(), clockwork.NewFakeClockAt(now), pub)
	_, err = e.StartDraft(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
	assert.Empty(t, pub.types())

	s, err := e.State(ctx)
	require.NoError(t, err)
	assert.False(t, s.Started)
}

func TestEngineResetEmitsEvent(t *testing.T) {
	ctx := context.Background()
	e, _, pub := newTestEngine(t)
	s, err := e.Reset(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 180, s.Seconds)
	assert.Equal(t, []events.Type{events.TypeDraftReset}, pub.types())
}
