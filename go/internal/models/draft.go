package models

import (
	"time"
)

// DraftStatus defines the derived status of a draft room.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// DraftState is the canonical per-room document held by the remote store.
// Local copies are a cache; any remote write invalidates them.
type DraftState struct {
	CurrentPick             int                 `json:"currentPick"`
	CurrentRound            int                 `json:"currentRound"`
	NextPick                int                 `json:"nextPick"`
	IsPaused                bool                `json:"isPaused"`
	Seconds                 int                 `json:"seconds"`
	EndTime                 int64               `json:"endTime"` // unix milliseconds
	RecentlyDraftedPlayerID int                 `json:"recentlyDraftedPlayerID"`
	ExportComplete          bool                `json:"exportComplete"`
	Started                 bool                `json:"started"`
	AllDraftPicks           map[int][]DraftPick `json:"allDraftPicks"`
}

// EndAt returns EndTime as a time.Time. Zero EndTime yields the zero time.
func (s DraftState) EndAt() time.Time {
	if s.EndTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.EndTime)
}

// Clone returns a copy whose ledger can be modified without touching s.
func (s DraftState) Clone() DraftState {
	out := s
	if s.AllDraftPicks != nil {
		out.AllDraftPicks = make(map[int][]DraftPick, len(s.AllDraftPicks))
		for round, picks := range s.AllDraftPicks {
			cp := make([]DraftPick, len(picks))
			copy(cp, picks)
			out.AllDraftPicks[round] = cp
		}
	}
	return out
}

// NewDraftState returns a room document positioned at round 1, pick 1.
func NewDraftState(ledger map[int][]DraftPick, seconds int) DraftState {
	return DraftState{
		CurrentPick:   1,
		CurrentRound:  1,
		NextPick:      2,
		IsPaused:      true,
		Seconds:       seconds,
		AllDraftPicks: ledger,
	}
}

// DraftStatePatch is a partial DraftState. Nil fields are left untouched on merge.
type DraftStatePatch struct {
	CurrentPick             *int                `json:"currentPick,omitempty"`
	CurrentRound            *int                `json:"currentRound,omitempty"`
	NextPick                *int                `json:"nextPick,omitempty"`
	IsPaused                *bool               `json:"isPaused,omitempty"`
	Seconds                 *int                `json:"seconds,omitempty"`
	EndTime                 *int64              `json:"endTime,omitempty"`
	RecentlyDraftedPlayerID *int                `json:"recentlyDraftedPlayerID,omitempty"`
	ExportComplete          *bool               `json:"exportComplete,omitempty"`
	Started                 *bool               `json:"started,omitempty"`
	AllDraftPicks           map[int][]DraftPick `json:"allDraftPicks,omitempty"`
}

// Fields returns the set fields keyed by their document field name.
func (p DraftStatePatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.CurrentPick != nil {
		fields["currentPick"] = *p.CurrentPick
	}
	if p.CurrentRound != nil {
		fields["currentRound"] = *p.CurrentRound
	}
	if p.NextPick != nil {
		fields["nextPick"] = *p.NextPick
	}
	if p.IsPaused != nil {
		fields["isPaused"] = *p.IsPaused
	}
	if p.Seconds != nil {
		fields["seconds"] = *p.Seconds
	}
	if p.EndTime != nil {
		fields["endTime"] = *p.EndTime
	}
	if p.RecentlyDraftedPlayerID != nil {
		fields["recentlyDraftedPlayerID"] = *p.RecentlyDraftedPlayerID
	}
	if p.ExportComplete != nil {
		fields["exportComplete"] = *p.ExportComplete
	}
	if p.Started != nil {
		fields["started"] = *p.Started
	}
	if p.AllDraftPicks != nil {
		fields["allDraftPicks"] = p.AllDraftPicks
	}
	return fields
}

// IsEmpty reports whether the patch sets no fields.
func (p DraftStatePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Apply merges the patch into s and returns the result. s is not modified.
func (p DraftStatePatch) Apply(s DraftState) DraftState {
	out := s.Clone()
	if p.CurrentPick != nil {
		out.CurrentPick = *p.CurrentPick
	}
	if p.CurrentRound != nil {
		out.CurrentRound = *p.CurrentRound
	}
	if p.NextPick != nil {
		out.NextPick = *p.NextPick
	}
	if p.IsPaused != nil {
		out.IsPaused = *p.IsPaused
	}
	if p.Seconds != nil {
		out.Seconds = *p.Seconds
	}
	if p.EndTime != nil {
		out.EndTime = *p.EndTime
	}
	if p.RecentlyDraftedPlayerID != nil {
		out.RecentlyDraftedPlayerID = *p.RecentlyDraftedPlayerID
	}
	if p.ExportComplete != nil {
		out.ExportComplete = *p.ExportComplete
	}
	if p.Started != nil {
		out.Started = *p.Started
	}
	if p.AllDraftPicks != nil {
		out.AllDraftPicks = p.AllDraftPicks
	}
	return out
}
