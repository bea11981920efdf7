package clock

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// TickInterval is the local refresh rate. It only drives display; expiry is
// always decided by comparing against endTime.
const TickInterval = time.Second

// Ticker recomputes the remaining time for one room every TickInterval.
type Ticker struct {
	clock    Clock
	draftID  string
	state    func() models.DraftState
	onTick   func(remaining int)
	onExpire func()

	mu    sync.Mutex
	armed bool
}

// NewTicker creates a ticker reading the room state through state. onExpire
// runs at most once per running period; it should persist the pause.
func NewTicker(clk Clock, draftID string, state func() models.DraftState, onTick func(int), onExpire func()) *Ticker {
	return &Ticker{
		clock:    clk,
		draftID:  draftID,
		state:    state,
		onTick:   onTick,
		onExpire: onExpire,
		armed:    true,
	}
}

// Tick performs one refresh and returns the remaining seconds.
func (t *Ticker) Tick() int {
	state := t.state()
	now := t.clock.Now()
	remaining := Remaining(state, now)

	if t.onTick != nil {
		t.onTick(remaining)
	}

	t.mu.Lock()
	fire := false
	switch {
	case !state.Started || state.IsPaused:
		// the next running period may expire again, even at 0:00
		t.armed = true
	case remaining > 0:
		t.armed = true
	case t.armed:
		t.armed = false
		fire = true
	}
	t.mu.Unlock()

	if fire {
		log.Info().Str("draft_id", t.draftID).Msg("pick clock expired")
		if t.onExpire != nil {
			t.onExpire()
		}
	}
	return remaining
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	t.Tick()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("draft_id", t.draftID).Msg("pick clock stopped")
			return
		case <-ticker.Chan():
			t.Tick()
		}
	}
}
