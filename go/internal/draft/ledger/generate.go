package ledger

import (
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Generate builds an empty ledger with one row per team per round. Every
// round follows draftOrder; traded picks are applied afterwards by the
// league office, not here.
func Generate(draftOrder []models.Team, rounds int) (map[int][]models.DraftPick, error) {
	numTeams := len(draftOrder)
	if numTeams == 0 {
		return nil, fmt.Errorf("draft order is empty, cannot generate picks")
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be greater than 0")
	}

	picks := make(map[int][]models.DraftPick, rounds)
	id := 1
	for round := 1; round <= rounds; round++ {
		roundPicks := make([]models.DraftPick, 0, numTeams)
		for pick, team := range draftOrder {
			roundPicks = append(roundPicks, models.DraftPick{
				ID:          id,
				DraftRound:  round,
				DraftNumber: pick + 1, // 1-indexed pick number within round
				TeamID:      team.ID,
				Team:        team.Abbreviation,
			})
			id++
		}
		picks[round] = roundPicks
	}
	return picks, nil
}

// Group files a flat list of rows under their DraftRound.
func Group(rows []models.DraftPick) map[int][]models.DraftPick {
	picks := make(map[int][]models.DraftPick)
	for _, p := range rows {
		picks[p.DraftRound] = append(picks[p.DraftRound], p)
	}
	return picks
}

// Validate checks that every round holds DraftNumbers 1..picksPerRound exactly once.
func Validate(picks map[int][]models.DraftPick, picksPerRound int) error {
	for round, rows := range picks {
		if len(rows) != picksPerRound {
			return fmt.Errorf("round %d has %d picks, expected %d", round, len(rows), picksPerRound)
		}
		seen := make(map[int]bool, len(rows))
		for _, p := range rows {
			if p.DraftRound != round {
				return fmt.Errorf("pick %d is filed under round %d but belongs to round %d", p.ID, round, p.DraftRound)
			}
			if p.DraftNumber < 1 || p.DraftNumber > picksPerRound || seen[p.DraftNumber] {
				return fmt.Errorf("round %d has invalid or duplicate pick number %d", round, p.DraftNumber)
			}
			seen[p.DraftNumber] = true
		}
	}
	return nil
}
