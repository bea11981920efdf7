package gateway

import (
	"time"

	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// RoomView is the read model served for a room: the cached document plus
// everything derived from it.
type RoomView struct {
	DraftID        string             `json:"draft_id"`
	Status         models.DraftStatus `json:"status,omitempty"`
	Revision       uint64             `json:"revision"`
	State          *models.DraftState `json:"state,omitempty"`
	Projection     *ledger.Projection `json:"projection,omitempty"`
	Clock          ClockView          `json:"clock"`
	Teams          []models.Team      `json:"teams,omitempty"`
	AvailableCount int                `json:"available_count"`
	BootstrapError string             `json:"bootstrap_error,omitempty"`
}

// ClockView is the pick clock as of the view's timestamp
type ClockView struct {
	SecondsRemaining int    `json:"seconds_remaining"`
	Display          string `json:"display"`
	Paused           bool   `json:"paused"`
	EndTime          int64  `json:"end_time,omitempty"`
}

func newClockView(s models.DraftState, now time.Time) ClockView {
	remaining := clock.Remaining(s, now)
	view := ClockView{
		SecondsRemaining: remaining,
		Display:          clock.Format(remaining),
		Paused:           s.IsPaused || !s.Started,
	}
	if !view.Paused {
		view.EndTime = s.EndTime
	}
	return view
}
