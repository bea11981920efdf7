// Package ledger projects the round-keyed pick ledger into the ordered views
// the draft room renders. Every function here is pure.
package ledger

import (
	"sort"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Cursor identifies whose turn it is.
type Cursor struct {
	Round int `json:"round"`
	Pick  int `json:"pick"`
}

// CursorOf returns the cursor held by a room document.
func CursorOf(s models.DraftState) Cursor {
	return Cursor{Round: s.CurrentRound, Pick: s.CurrentPick}
}

// Overall returns the cursor's overall pick number.
func (c Cursor) Overall(picksPerRound int) int {
	return (c.Round-1)*picksPerRound + c.Pick
}

// Ledger is a read-only view over allDraftPicks.
type Ledger struct {
	picks         map[int][]models.DraftPick
	picksPerRound int
}

func New(picks map[int][]models.DraftPick, picksPerRound int) Ledger {
	return Ledger{picks: picks, picksPerRound: picksPerRound}
}

// Ordered returns every row ascending by (DraftRound, DraftNumber). The map
// key a row is filed under is not consulted.
func (l Ledger) Ordered() []models.DraftPick {
	out := make([]models.DraftPick, 0, l.TotalPicks())
	for _, round := range l.picks {
		out = append(out, round...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b models.DraftPick) bool {
	if a.DraftRound != b.DraftRound {
		return a.DraftRound < b.DraftRound
	}
	if a.DraftNumber != b.DraftNumber {
		return a.DraftNumber < b.DraftNumber
	}
	return a.ID < b.ID
}

// CurrentPickEntry returns the row at the cursor.
func (l Ledger) CurrentPickEntry(c Cursor) (models.DraftPick, bool) {
	for _, round := range l.picks {
		for _, p := range round {
			if p.DraftRound == c.Round && p.DraftNumber == c.Pick {
				return p, true
			}
		}
	}
	return models.DraftPick{}, false
}

// UpcomingPicks returns rows at or after the cursor, ascending. n <= 0 means all.
func (l Ledger) UpcomingPicks(c Cursor, n int) []models.DraftPick {
	cur := c.Overall(l.picksPerRound)
	var out []models.DraftPick
	for _, p := range l.Ordered() {
		if p.Overall(l.picksPerRound) >= cur {
			out = append(out, p)
		}
	}
	return truncate(out, n)
}

// RecentPicks returns filled rows before the cursor, most recent first.
// Rows are compared by overall pick number so earlier rounds are never
// mistaken for later ones.
func (l Ledger) RecentPicks(c Cursor, n int) []models.DraftPick {
	cur := c.Overall(l.picksPerRound)
	ordered := l.Ordered()
	var out []models.DraftPick
	for i := len(ordered) - 1; i >= 0; i-- {
		p := ordered[i]
		if p.Overall(l.picksPerRound) < cur && p.IsFilled() {
			out = append(out, p)
		}
	}
	return truncate(out, n)
}

// DraftedPlayerIDs returns the set of selected player ids.
func (l Ledger) DraftedPlayerIDs() map[int]struct{} {
	ids := make(map[int]struct{})
	for _, round := range l.picks {
		for _, p := range round {
			if p.IsFilled() {
				ids[p.SelectedPlayerID] = struct{}{}
			}
		}
	}
	return ids
}

// SortedIDs flattens an id set in ascending order.
func SortedIDs(ids map[int]struct{}) []int {
	out := make([]int, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// PicksByTeam returns the rows currently owned by teamID, ascending.
func (l Ledger) PicksByTeam(teamID int) []models.DraftPick {
	var out []models.DraftPick
	for _, p := range l.Ordered() {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// CompletedCount returns how many rows have a selection.
func (l Ledger) CompletedCount() int {
	count := 0
	for _, round := range l.picks {
		for _, p := range round {
			if p.IsFilled() {
				count++
			}
		}
	}
	return count
}

// TotalPicks returns the number of rows in the ledger.
func (l Ledger) TotalPicks() int {
	total := 0
	for _, round := range l.picks {
		total += len(round)
	}
	return total
}

func truncate(picks []models.DraftPick, n int) []models.DraftPick {
	if n > 0 && len(picks) > n {
		return picks[:n]
	}
	return picks
}
