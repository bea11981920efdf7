package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
)

var epoch = time.Date(2026, 4, 23, 20, 0, 0, 0, time.UTC)

func running(endIn time.Duration) models.DraftState {
	return models.DraftState{Started: true, EndTime: epoch.Add(endIn).UnixMilli(), Seconds: 300}
}

func TestRemaining(t *testing.T) {
	t.Run("running rounds to nearest second", func(t *testing.T) {
		assert.Equal(t, 90, Remaining(running(89600*time.Millisecond), epoch))
		assert.Equal(t, 89, Remaining(running(89400*time.Millisecond), epoch))
	})
	t.Run("running clamps at zero", func(t *testing.T) {
		assert.Equal(t, 0, Remaining(running(-5*time.Second), epoch))
	})
	t.Run("paused uses persisted seconds", func(t *testing.T) {
		s := running(-time.Hour)
		s.IsPaused = true
		s.Seconds = 42
		assert.Equal(t, 42, Remaining(s, epoch))
	})
}

func TestExpired(t *testing.T) {
	assert.False(t, Expired(running(10*time.Second), epoch))
	assert.True(t, Expired(running(0), epoch))

	paused := running(-time.Minute)
	paused.IsPaused = true
	assert.False(t, Expired(paused, epoch))
}

func TestFormat(t *testing.T) {
	cases := map[int]string{
		0:   "0:00",
		9:   "0:09",
		60:  "1:00",
		185: "3:05",
		-4:  "0:00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(in))
	}
}

func TestPauseResumeDoesNotChargePausedTime(t *testing.T) {
	state := running(120 * time.Second)
	pausedAt := epoch.Add(20 * time.Second)

	state.Seconds = Remaining(state, pausedAt)
	state.IsPaused = true
	require.Equal(t, 100, state.Seconds)

	resumedAt := pausedAt.Add(10 * time.Minute)
	state.EndTime = ResumeEndTime(state.Seconds, resumedAt)
	state.IsPaused = false

	assert.Equal(t, 100, Remaining(state, resumedAt))
}

func TestTickerFiresExpiryOnce(t *testing.T) {
	fc := clockwork.NewFakeClockAt(epoch)
	state := running(2 * time.Second)

	var expiries, ticks int32
	tk := NewTicker(fc, "room-1",
		func() models.DraftState { return state },
		func(int) { atomic.AddInt32(&ticks, 1) },
		func() { atomic.AddInt32(&expiries, 1) })

	assert.Equal(t, 2, tk.Tick())
	fc.Advance(3 * time.Second)
	assert.Equal(t, 0, tk.Tick())
	assert.Equal(t, 0, tk.Tick())
	assert.Equal(t, int32(1), atomic.LoadInt32(&expiries))

	// resumed with a fresh allotment re-arms the clock
	state.EndTime = ResumeEndTime(5, fc.Now())
	tk.Tick()
	fc.Advance(6 * time.Second)
	tk.Tick()
	assert.Equal(t, int32(2), atomic.LoadInt32(&expiries))
	assert.Equal(t, int32(5), atomic.LoadInt32(&ticks))
}

func TestTickerRearmsAfterResumeAtZero(t *testing.T) {
	fc := clockwork.NewFakeClockAt(epoch)
	state := running(2 * time.Second)

	var expiries int32
	tk := NewTicker(fc, "room-1",
		func() models.DraftState { return state },
		nil,
		func() { atomic.AddInt32(&expiries, 1) })

	fc.Advance(3 * time.Second)
	assert.Equal(t, 0, tk.Tick())
	assert.Equal(t, int32(1), atomic.LoadInt32(&expiries))

	// the expiry pause is persisted with nothing left on the clock
	state.IsPaused = true
	state.Seconds = 0
	assert.Equal(t, 0, tk.Tick())

	// resuming with zero seconds must expire again rather than run at 0:00
	state.IsPaused = false
	state.EndTime = ResumeEndTime(state.Seconds, fc.Now())
	fc.Advance(10 * time.Second)
	assert.Equal(t, 0, tk.Tick())
	fc.Advance(10 * time.Second)
	assert.Equal(t, 0, tk.Tick())
	assert.Equal(t, int32(2), atomic.LoadInt32(&expiries))
}

func TestTickerIgnoresNotStartedAndPaused(t *testing.T) {
	fc := clockwork.NewFakeClockAt(epoch)
	state := running(-time.Second)
	state.Started = false

	var expiries int32
	tk := NewTicker(fc, "room-2", func() models.DraftState { return state }, nil,
		func() { atomic.AddInt32(&expiries, 1) })
	tk.Tick()

	state.Started = true
	state.IsPaused = true
	tk.Tick()
	assert.Zero(t, atomic.LoadInt32(&expiries))
}

func TestTickerRunStopsOnCancel(t *testing.T) {
	fc := clockwork.NewFakeClockAt(epoch)
	ticks := make(chan int, 10)
	tk := NewTicker(fc, "room-3",
		func() models.DraftState { return running(30 * time.Second) },
		func(r int) { ticks <- r }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	assert.Equal(t, 30, <-ticks)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)
	assert.Equal(t, 29, <-ticks)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}
