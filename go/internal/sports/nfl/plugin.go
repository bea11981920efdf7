package nfl

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

const Key = "nfl"

// Attributes are the football ratings in reveal-slot order.
var Attributes = []string{
	"FootballIQ",
	"Speed",
	"Strength",
	"Agility",
	"Carrying",
	"Catching",
	"Tackle",
	"ThrowPower",
}

var keyAttributes = []string{"FootballIQ", "Speed"}

var positions = []string{
	"QB", "RB", "FB", "WR", "TE", "OT", "OG", "C",
	"DE", "DT", "OLB", "ILB", "CB", "FS", "SS", "K", "P",
}

// NFLPlugin implements the SportPlugin interface for the NFL.
type NFLPlugin struct {
	policy base.LeaguePolicy
}

// init registers the NFL plugin with the base registry.
func init() {
	plugin := New()
	if err := base.RegisterPlugin(Key, plugin); err != nil {
		panic(fmt.Sprintf("Failed to register NFL plugin: %v", err))
	}
}

// New returns a plugin carrying the default football policy.
func New() *NFLPlugin {
	return &NFLPlugin{policy: defaultPolicy()}
}

func defaultPolicy() base.LeaguePolicy {
	return base.NewDefaultPolicy(Key, "Simulation Football League", Attributes, keyAttributes, positions)
}

// Init applies config overrides on top of the default policy.
func (p *NFLPlugin) Init(overrides base.PolicyOverrides) error {
	p.policy = overrides.Apply(defaultPolicy())
	return nil
}

func (p *NFLPlugin) Policy() base.LeaguePolicy {
	return p.policy
}

// draftee is the native football prospect record.
type draftee struct {
	ID        int             `json:"ID"`
	FirstName string          `json:"FirstName"`
	LastName  string          `json:"LastName"`
	Position  string          `json:"Position"`
	Archetype string          `json:"Archetype"`
	Height    int             `json:"Height"`
	Weight    int             `json:"Weight"`
	Age       int             `json:"Age"`
	College   string          `json:"College"`
	Potential json.RawMessage `json:"PotentialGrade"`
}

// MapDraftee maps a raw football prospect into the neutral Draftee.
func (p *NFLPlugin) MapDraftee(raw json.RawMessage) (*models.Draftee, error) {
	var rec draftee
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("nfl: MapDraftee unmarshal error: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("nfl: MapDraftee unmarshal error: %w", err)
	}
	if rec.ID <= 0 {
		return nil, fmt.Errorf("nfl: draftee id must be positive, got %d", rec.ID)
	}
	if !p.policy.HasPosition(rec.Position) {
		return nil, fmt.Errorf("nfl: draftee %d has unknown position %q", rec.ID, rec.Position)
	}

	attrs, err := base.ParseAttributes(p.policy.Attributes, fields)
	if err != nil {
		return nil, fmt.Errorf("nfl: draftee %d: %w", rec.ID, err)
	}
	potential, err := base.ParseGraded(base.AttributePotential, rec.Potential)
	if err != nil {
		return nil, fmt.Errorf("nfl: draftee %d: %w", rec.ID, err)
	}

	return &models.Draftee{
		ID:         rec.ID,
		SportID:    Key,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Position:   rec.Position,
		Archetype:  rec.Archetype,
		Height:     rec.Height,
		Weight:     rec.Weight,
		Age:        rec.Age,
		College:    rec.College,
		Attributes: attrs,
		Potential:  potential,
	}, nil
}

// draftPick is the native football ledger row.
type draftPick struct {
	ID                     int    `json:"ID"`
	DraftRound             int    `json:"DraftRound"`
	DraftNumber            int    `json:"DraftNumber"`
	TeamID                 int    `json:"TeamID"`
	Team                   string `json:"Team"`
	PreviousTeamID         int    `json:"PreviousTeamID"`
	PreviousTeam           string `json:"PreviousTeam"`
	SelectedPlayerID       int    `json:"SelectedPlayerID"`
	SelectedPlayerName     string `json:"SelectedPlayerName"`
	SelectedPlayerPosition string `json:"SelectedPlayerPosition"`
	Notes                  string `json:"Notes"`
}

// MapDraftPick maps a raw football pick into the neutral DraftPick.
func (p *NFLPlugin) MapDraftPick(raw json.RawMessage) (*models.DraftPick, error) {
	var rec draftPick
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("nfl: MapDraftPick unmarshal error: %w", err)
	}
	if rec.DraftRound <= 0 || rec.DraftNumber <= 0 {
		return nil, fmt.Errorf("nfl: pick %d has invalid position round=%d number=%d", rec.ID, rec.DraftRound, rec.DraftNumber)
	}
	pick := models.DraftPick(rec)
	return &pick, nil
}
