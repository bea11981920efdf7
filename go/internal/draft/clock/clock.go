// Package clock derives the draft pick countdown from the authoritative end
// time held in the room document.
package clock

import (
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Remaining returns whole seconds left on the pick clock. A paused clock
// reports the persisted seconds without consulting endTime.
func Remaining(state models.DraftState, now time.Time) int {
	if state.IsPaused {
		if state.Seconds < 0 {
			return 0
		}
		return state.Seconds
	}
	ms := float64(state.EndTime - now.UnixMilli())
	secs := int(math.Round(ms / 1000))
	if secs < 0 {
		return 0
	}
	return secs
}

// Expired reports whether a running clock has reached zero.
func Expired(state models.DraftState, now time.Time) bool {
	return !state.IsPaused && Remaining(state, now) <= 0
}

// ResumeEndTime returns the end time, in unix milliseconds, for a clock
// restarted with seconds remaining.
func ResumeEndTime(seconds int, now time.Time) int64 {
	return now.Add(time.Duration(seconds) * time.Second).UnixMilli()
}

// Format renders seconds as M:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
