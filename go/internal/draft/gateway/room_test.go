package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

var now = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

const waitFor = 2 * time.Second

func testPolicy() base.LeaguePolicy {
	p := base.NewDefaultPolicy("test", "Test", []string{"Speed"}, nil, []string{"QB", "RB"})
	p.PicksPerRound = 2
	p.TotalRounds = 2
	return p
}

func testData(t *testing.T) *RoomData {
	t.Helper()
	teams := []models.Team{{ID: 1, Name: "Boston", Abbreviation: "BOS"}, {ID: 2, Name: "New York", Abbreviation: "NYC"}}
	picks, err := ledger.Generate(teams, 2)
	require.NoError(t, err)
	return &RoomData{
		Draftees: []models.Draftee{
			{ID: 101, FirstName: "Cole", LastName: "Barrett", Position: "QB"},
			{ID: 102, FirstName: "Miles", LastName: "Okafor", Position: "RB"},
			{ID: 103, FirstName: "Jalen", LastName: "Price", Position: "QB"},
			{ID: 104, FirstName: "Owen", LastName: "Hart", Position: "RB"},
		},
		Teams: teams,
		Picks: picks,
	}
}

// recordingBroadcaster keeps every event and pretends each room has
// connections sockets open.
type recordingBroadcaster struct {
	mu          sync.Mutex
	events      []*RoomEvent
	connections int
}

func (b *recordingBroadcaster) BroadcastToDraft(draftID string, event *RoomEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) ConnectionCount(string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connections
}

func (b *recordingBroadcaster) ofType(eventType EventType) []*RoomEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*RoomEvent
	for _, e := range b.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// failingStore fails merges while fail is set.
type failingStore struct {
	docstore.Store
	fail atomic.Bool
}

func (s *failingStore) Merge(ctx context.Context, key docstore.Key, fields map[string]any) error {
	if s.fail.Load() {
		return errors.New("store unavailable")
	}
	return s.Store.Merge(ctx, key, fields)
}

// flakyBootstrapper fails the first failures calls.
type flakyBootstrapper struct {
	data     *RoomData
	failures int32
	calls    atomic.Int32
}

func (b *flakyBootstrapper) Bootstrap(context.Context, string) (*RoomData, error) {
	if b.calls.Add(1) <= b.failures {
		return nil, errors.New("simulation api unavailable")
	}
	return b.data, nil
}

type roomFixture struct {
	room    *Room
	store   *failingStore
	clock   *clockwork.FakeClock
	factory *engine.Factory
	events  *recordingBroadcaster
}

func newRoomFixture(t *testing.T, bootstrapper Bootstrapper) roomFixture {
	t.Helper()
	store := &failingStore{Store: docstore.NewMemoryStore()}
	fc := clockwork.NewFakeClockAt(now)
	factory := engine.NewFactory(store, testPolicy(), fc, nil)
	rec := &recordingBroadcaster{}
	room := NewRoom("room-1", factory.For("room-1"), store, bootstrapper, rec, fc)
	t.Cleanup(room.Close)
	return roomFixture{room: room, store: store, clock: fc, factory: factory, events: rec}
}

func openRoom(t *testing.T) roomFixture {
	t.Helper()
	f := newRoomFixture(t, StaticBootstrapper{Data: testData(t)})
	require.NoError(t, f.room.Open(context.Background()))
	require.Eventually(t, f.room.Ready, waitFor, 10*time.Millisecond)
	return f
}

func waitForState(t *testing.T, room *Room, cond func(models.DraftState) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(room.State()) }, waitFor, 10*time.Millisecond)
}

func TestRoomOpenInitializesDocument(t *testing.T) {
	f := openRoom(t)

	view := f.room.View()
	assert.Equal(t, models.DraftStatusNotStarted, view.Status)
	require.NotNil(t, view.Projection)
	assert.Equal(t, 4, view.Projection.TotalPicks)
	assert.Equal(t, 4, view.AvailableCount)
	assert.Len(t, view.Teams, 2)
	assert.True(t, view.Clock.Paused)
	assert.Equal(t, "5:00", view.Clock.Display)
	assert.NotEmpty(t, f.events.ofType(EventTypeStateChanged))

	// A second open is a no-op
	require.NoError(t, f.room.Open(context.Background()))
}

func TestRoomOpenKeepsExistingDocument(t *testing.T) {
	store := docstore.NewMemoryStore()
	fc := clockwork.NewFakeClockAt(now)
	factory := engine.NewFactory(store, testPolicy(), fc, nil)
	ctx := context.Background()

	data := testData(t)
	_, err := factory.For("room-1").Initialize(ctx, data.Picks)
	require.NoError(t, err)
	_, err = factory.For("room-1").StartDraft(ctx)
	require.NoError(t, err)

	room := NewRoom("room-1", factory.For("room-1"), store, StaticBootstrapper{Data: data}, nil, fc)
	t.Cleanup(room.Close)
	require.NoError(t, room.Open(ctx))
	waitForState(t, room, func(s models.DraftState) bool { return s.Started })
	assert.Equal(t, models.DraftStatusInProgress, room.View().Status)
}

func TestRoomBootstrapFailureAndRetry(t *testing.T) {
	boot := &flakyBootstrapper{data: testData(t), failures: 1}
	f := newRoomFixture(t, boot)
	ctx := context.Background()

	err := f.room.Open(ctx)
	require.Error(t, err)
	assert.Error(t, f.room.BootstrapError())
	assert.Equal(t, "simulation api unavailable", f.room.View().BootstrapError)
	require.Len(t, f.events.ofType(EventTypeError), 1)

	_, err = f.room.Do(ctx, "start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	})
	assert.ErrorIs(t, err, ErrRoomNotReady)

	require.NoError(t, f.room.Open(ctx))
	require.Eventually(t, f.room.Ready, waitFor, 10*time.Millisecond)
	assert.NoError(t, f.room.BootstrapError())
	assert.Empty(t, f.room.View().BootstrapError)
}

func TestRoomDraftFlow(t *testing.T) {
	f := openRoom(t)
	ctx := context.Background()

	_, err := f.room.Do(ctx, "start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	})
	require.NoError(t, err)

	sel, err := f.room.Selection(engine.Selection{PlayerID: 101})
	require.NoError(t, err)
	assert.Equal(t, "Cole Barrett", sel.Name)
	assert.Equal(t, "QB", sel.Position)

	state, err := f.room.Do(ctx, "pick", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		s, _, err := eng.DraftPlayer(ctx, sel)
		return s, err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentPick)

	waitForState(t, f.room, func(s models.DraftState) bool { return s.RecentlyDraftedPlayerID == 101 })
	assert.Contains(t, f.room.Drafted(), 101)
	assert.Len(t, f.room.Prospects(""), 3)
	assert.Empty(t, f.room.Prospects("Barrett"))

	found := f.room.Prospects("Okafr")
	require.Len(t, found, 1)
	assert.Equal(t, 102, found[0].ID)

	picks := f.room.TeamPicks(1)
	require.Len(t, picks, 2)
	assert.Equal(t, 101, picks[0].SelectedPlayerID)
	assert.Equal(t, 3, f.room.View().AvailableCount)
}

func TestRoomSelectionUnknownPlayer(t *testing.T) {
	f := openRoom(t)
	_, err := f.room.Selection(engine.Selection{PlayerID: 999})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.True(t, IsRuleError(err))
}

func TestRoomRuleErrorIsNotBroadcast(t *testing.T) {
	f := openRoom(t)

	_, err := f.room.Do(context.Background(), "pause", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.Pause(ctx, events.PauseReasonManual)
	})
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
	assert.True(t, IsRuleError(err))
	assert.Empty(t, f.events.ofType(EventTypeError))
}

func TestRoomWriteFailureIsBroadcast(t *testing.T) {
	f := openRoom(t)
	f.store.fail.Store(true)

	_, err := f.room.Do(context.Background(), "start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	})
	require.Error(t, err)
	assert.False(t, IsRuleError(err))

	errs := f.events.ofType(EventTypeError)
	require.Len(t, errs, 1)
	assert.Contains(t, string(errs[0].Data), `"operation":"start"`)
	assert.Contains(t, string(errs[0].Data), "store unavailable")
}

func TestRoomClockExpiryPausesWithoutAdvancing(t *testing.T) {
	f := openRoom(t)
	ctx := context.Background()

	_, err := f.room.Do(ctx, "start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	})
	require.NoError(t, err)
	waitForState(t, f.room, func(s models.DraftState) bool { return s.Started && !s.IsPaused })

	assert.Equal(t, 300, f.room.ticker.Tick())

	f.clock.Advance(301 * time.Second)
	assert.Equal(t, 0, f.room.ticker.Tick())

	waitForState(t, f.room, func(s models.DraftState) bool { return s.IsPaused })
	s := f.room.State()
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 1, s.CurrentPick)
	assert.Equal(t, 0, s.Seconds)
	assert.Equal(t, models.DraftStatusPaused, f.room.View().Status)
}

func TestRoomClockTickBroadcastsOnlyWithConnections(t *testing.T) {
	f := openRoom(t)

	f.room.ticker.Tick()
	assert.Empty(t, f.events.ofType(EventTypeClockTick))

	f.events.mu.Lock()
	f.events.connections = 1
	f.events.mu.Unlock()

	f.room.ticker.Tick()
	ticks := f.events.ofType(EventTypeClockTick)
	require.NotEmpty(t, ticks)
	assert.Contains(t, string(ticks[len(ticks)-1].Data), `"display":"5:00"`)
}

func TestRoomCompletedDraftStopsClock(t *testing.T) {
	f := openRoom(t)
	ctx := context.Background()

	_, err := f.room.Do(ctx, "start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	})
	require.NoError(t, err)

	for _, id := range []int{101, 102, 103, 104} {
		_, err := f.room.Do(ctx, "pick", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
			s, _, err := eng.DraftPlayer(ctx, engine.Selection{PlayerID: id})
			return s, err
		})
		require.NoError(t, err)
	}
	waitForState(t, f.room, func(s models.DraftState) bool { return s.CurrentRound == 3 })
	require.Equal(t, models.DraftStatusCompleted, f.room.View().Status)

	f.events.mu.Lock()
	f.events.connections = 1
	f.events.mu.Unlock()

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, f.room.ticker.Tick())
	assert.Empty(t, f.events.ofType(EventTypeClockTick))

	s := f.room.State()
	assert.True(t, s.IsPaused)
	assert.Zero(t, s.Seconds)
	assert.Equal(t, models.DraftStatusCompleted, f.room.View().Status)
}

func TestRoomIgnoresStaleRevisions(t *testing.T) {
	f := openRoom(t)
	current := f.room.View().Revision

	stale := docstore.Document{Key: engine.RoomKey("room-1"), Data: []byte(`{"currentRound":9}`), Revision: current}
	assert.False(t, f.room.applyDocument(stale))
	assert.Equal(t, 1, f.room.State().CurrentRound)

	bad := docstore.Document{Key: engine.RoomKey("room-1"), Data: []byte(`not json`), Revision: current + 10}
	assert.False(t, f.room.applyDocument(bad))
	assert.NotEmpty(t, f.events.ofType(EventTypeError))
}

func TestIsRuleError(t *testing.T) {
	cases := []struct {
		err  error
		rule bool
	}{
		{fmt.Errorf("failed to draft player: %w", engine.ErrPlayerAlreadyDrafted), true},
		{engine.ErrDraftComplete, true},
		{ErrRoomNotReady, true},
		{errors.New("connection refused"), false},
		{fmt.Errorf("failed to write draft state: %w", docstore.ErrClosed), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rule, IsRuleError(tc.err), tc.err.Error())
	}
}
