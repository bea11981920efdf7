package ledger

import (
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Default view sizes used by the draft room.
const (
	DefaultUpcoming = 12
	DefaultRecent   = 5
)

// Projection is the derived, never persisted view of a room's ledger.
type Projection struct {
	Cursor           Cursor             `json:"cursor"`
	CurrentOverall   int                `json:"currentOverall"`
	CurrentPick      *models.DraftPick  `json:"currentPick,omitempty"`
	UpcomingPicks    []models.DraftPick `json:"upcomingPicks"`
	RecentPicks      []models.DraftPick `json:"recentPicks"`
	DraftedPlayerIDs []int              `json:"draftedPlayerIds"`
	CompletedCount   int                `json:"completedCount"`
	TotalPicks       int                `json:"totalPicks"`
}

// ProjectOptions sizes the upcoming and recent views. Zero uses the defaults.
type ProjectOptions struct {
	Upcoming int
	Recent   int
}

// Project derives every view for state.
func Project(state models.DraftState, picksPerRound int, opts ProjectOptions) Projection {
	if opts.Upcoming == 0 {
		opts.Upcoming = DefaultUpcoming
	}
	if opts.Recent == 0 {
		opts.Recent = DefaultRecent
	}

	l := New(state.AllDraftPicks, picksPerRound)
	c := CursorOf(state)
	p := Projection{
		Cursor:           c,
		CurrentOverall:   c.Overall(picksPerRound),
		UpcomingPicks:    nonNil(l.UpcomingPicks(c, opts.Upcoming)),
		RecentPicks:      nonNil(l.RecentPicks(c, opts.Recent)),
		DraftedPlayerIDs: SortedIDs(l.DraftedPlayerIDs()),
		CompletedCount:   l.CompletedCount(),
		TotalPicks:       l.TotalPicks(),
	}
	if entry, ok := l.CurrentPickEntry(c); ok {
		p.CurrentPick = &entry
	}
	return p
}

func nonNil(picks []models.DraftPick) []models.DraftPick {
	if picks == nil {
		return []models.DraftPick{}
	}
	return picks
}
