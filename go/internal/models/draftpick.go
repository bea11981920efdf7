package models

// DraftPick represents a single slot in the ledger.
type DraftPick struct {
	ID                     int    `json:"ID"`
	DraftRound             int    `json:"DraftRound"`
	DraftNumber            int    `json:"DraftNumber"` // pick number in the round, 1-based
	TeamID                 int    `json:"TeamID"`
	Team                   string `json:"Team"`
	PreviousTeamID         int    `json:"PreviousTeamID,omitempty"` // original owner, 0 if never traded
	PreviousTeam           string `json:"PreviousTeam,omitempty"`
	SelectedPlayerID       int    `json:"SelectedPlayerID"` // 0 until picked
	SelectedPlayerName     string `json:"SelectedPlayerName,omitempty"`
	SelectedPlayerPosition string `json:"SelectedPlayerPosition,omitempty"`
	Notes                  string `json:"Notes,omitempty"`
}

// Overall returns the ledger-order-independent pick number.
func (p DraftPick) Overall(picksPerRound int) int {
	return (p.DraftRound-1)*picksPerRound + p.DraftNumber
}

// IsFilled reports whether a player has been selected with this pick.
func (p DraftPick) IsFilled() bool {
	return p.SelectedPlayerID > 0
}

// WasTraded reports whether the pick changed hands before being used.
func (p DraftPick) WasTraded() bool {
	return p.PreviousTeamID > 0 && p.PreviousTeamID != p.TeamID
}
