package events

import (
	"time"
)

// Event payload types that are shared between the engine, the pick service
// and gateway consumers.

// Type names a domain event. It is also the last subject token.
type Type string

const (
	TypeDraftStarted      Type = "DraftStarted"
	TypePickMade          Type = "PickMade"
	TypeDraftPaused       Type = "DraftPaused"
	TypeDraftResumed      Type = "DraftResumed"
	TypeDraftReset        Type = "DraftReset"
	TypeDraftManualUpdate Type = "DraftManualUpdate"
	TypeDraftCompleted    Type = "DraftCompleted"
	TypeDraftExported     Type = "DraftExported"
)

// Pause reasons.
const (
	PauseReasonManual       = "manual"
	PauseReasonClockExpired = "clock_expired"
)

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID     string    `json:"draft_id"`
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
	Seconds     int       `json:"seconds"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	DraftID        string    `json:"draft_id"`
	PickID         int       `json:"pick_id"`
	TeamID         int       `json:"team_id"`
	TeamName       string    `json:"team_name"`
	PlayerID       int       `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	PlayerPosition string    `json:"player_position,omitempty"`
	Round          int       `json:"round"`
	Pick           int       `json:"pick"`
	OverallPick    int       `json:"overall_pick"`
	MadeAt         time.Time `json:"made_at"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	DraftID          string    `json:"draft_id"`
	PausedAt         time.Time `json:"paused_at"`
	Reason           string    `json:"reason"`
	SecondsRemaining int       `json:"seconds_remaining"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	DraftID   string    `json:"draft_id"`
	ResumedAt time.Time `json:"resumed_at"`
	EndTime   time.Time `json:"end_time"`
}

// DraftResetPayload is the payload for a DraftReset event
type DraftResetPayload struct {
	DraftID string    `json:"draft_id"`
	Round   int       `json:"round"`
	Seconds int       `json:"seconds"`
	ResetAt time.Time `json:"reset_at"`
}

// DraftManualUpdatePayload lists the document fields an admin overwrote.
type DraftManualUpdatePayload struct {
	DraftID   string    `json:"draft_id"`
	Fields    []string  `json:"fields"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftExportedPayload is the payload for a DraftExported event
type DraftExportedPayload struct {
	DraftID    string    `json:"draft_id"`
	TeamID     int       `json:"team_id"`
	PickCount  int       `json:"pick_count"`
	AllTeams   bool      `json:"all_teams"`
	ExportedAt time.Time `json:"exported_at"`
}
