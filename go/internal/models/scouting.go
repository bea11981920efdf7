package models

// MaxRevealSlots is the number of ShowAttributeN flags on a scouting profile.
const MaxRevealSlots = 8

// ScoutingProfile is a team's reveal overlay on one prospect.
// Flags only ever flip from false to true.
type ScoutingProfile struct {
	ID             int  `json:"id"`
	PlayerID       int  `json:"player_id"`
	TeamID         int  `json:"team_id"`
	ShowAttribute1 bool `json:"show_attribute_1"`
	ShowAttribute2 bool `json:"show_attribute_2"`
	ShowAttribute3 bool `json:"show_attribute_3"`
	ShowAttribute4 bool `json:"show_attribute_4"`
	ShowAttribute5 bool `json:"show_attribute_5"`
	ShowAttribute6 bool `json:"show_attribute_6"`
	ShowAttribute7 bool `json:"show_attribute_7"`
	ShowAttribute8 bool `json:"show_attribute_8"`
	ShowPotential  bool `json:"show_potential"`
}

// SlotPotential addresses the ShowPotential flag.
const SlotPotential = 0

func (p *ScoutingProfile) flag(slot int) *bool {
	switch slot {
	case SlotPotential:
		return &p.ShowPotential
	case 1:
		return &p.ShowAttribute1
	case 2:
		return &p.ShowAttribute2
	case 3:
		return &p.ShowAttribute3
	case 4:
		return &p.ShowAttribute4
	case 5:
		return &p.ShowAttribute5
	case 6:
		return &p.ShowAttribute6
	case 7:
		return &p.ShowAttribute7
	case 8:
		return &p.ShowAttribute8
	default:
		return nil
	}
}

// IsRevealed reports the flag for slot (0 = potential, 1..8 = attributes).
// Out-of-range slots report false.
func (p ScoutingProfile) IsRevealed(slot int) bool {
	f := p.flag(slot)
	return f != nil && *f
}

// Reveal returns a copy with the slot's flag set. Out-of-range slots are ignored.
func (p ScoutingProfile) Reveal(slot int) ScoutingProfile {
	if f := p.flag(slot); f != nil {
		*f = true
	}
	return p
}

// WarRoom holds a team's scouting budget.
type WarRoom struct {
	TeamID         int `json:"team_id"`
	ScoutingPoints int `json:"scouting_points"`
	SpentPoints    int `json:"spent_points"`
}

// Available returns the unspent budget.
func (w WarRoom) Available() int {
	return w.ScoutingPoints - w.SpentPoints
}
