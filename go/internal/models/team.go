package models

// Team represents a participating franchise in the draft room.
type Team struct {
	ID           int      `json:"id"`
	SportID      string   `json:"sport_id"`
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation"`
	Needs        []string `json:"needs,omitempty"` // positions the front office wants to fill
}
