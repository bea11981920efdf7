package phl

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

const Key = "phl"

// Attributes are the hockey ratings in reveal-slot order.
var Attributes = []string{
	"Agility",
	"Faceoffs",
	"LongShotAccuracy",
	"CloseShotAccuracy",
	"Passing",
	"PuckHandling",
	"Strength",
	"Goalkeeping",
}

var keyAttributes = []string{"PuckHandling", "Goalkeeping"}

var positions = []string{"C", "F", "D", "G"}

// PHLPlugin implements the SportPlugin interface for the hockey league.
type PHLPlugin struct {
	policy base.LeaguePolicy
}

func init() {
	if err := base.RegisterPlugin(Key, New()); err != nil {
		panic(fmt.Sprintf("Failed to register PHL plugin: %v", err))
	}
}

func New() *PHLPlugin {
	return &PHLPlugin{policy: defaultPolicy()}
}

func defaultPolicy() base.LeaguePolicy {
	return base.NewDefaultPolicy(Key, "Professional Hockey League", Attributes, keyAttributes, positions)
}

func (p *PHLPlugin) Init(overrides base.PolicyOverrides) error {
	p.policy = overrides.Apply(defaultPolicy())
	return nil
}

func (p *PHLPlugin) Policy() base.LeaguePolicy {
	return p.policy
}

// draftee is the native hockey prospect record. Hockey feeds name the
// developmental program "Program" and carry the potential grade as "Potential".
type draftee struct {
	ID        int             `json:"ID"`
	FirstName string          `json:"FirstName"`
	LastName  string          `json:"LastName"`
	Position  string          `json:"Position"`
	Archetype string          `json:"Archetype"`
	Height    int             `json:"Height"`
	Weight    int             `json:"Weight"`
	Age       int             `json:"Age"`
	Program   string          `json:"Program"`
	Potential json.RawMessage `json:"Potential"`
}

func (p *PHLPlugin) MapDraftee(raw json.RawMessage) (*models.Draftee, error) {
	var rec draftee
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("phl: MapDraftee unmarshal error: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("phl: MapDraftee unmarshal error: %w", err)
	}
	if rec.ID <= 0 {
		return nil, fmt.Errorf("phl: draftee id must be positive, got %d", rec.ID)
	}
	if !p.policy.HasPosition(rec.Position) {
		return nil, fmt.Errorf("phl: draftee %d has unknown position %q", rec.ID, rec.Position)
	}

	attrs, err := base.ParseAttributes(p.policy.Attributes, fields)
	if err != nil {
		return nil, fmt.Errorf("phl: draftee %d: %w", rec.ID, err)
	}
	potential, err := base.ParseGraded(base.AttributePotential, rec.Potential)
	if err != nil {
		return nil, fmt.Errorf("phl: draftee %d: %w", rec.ID, err)
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
		College:    rec.Program,
		Attributes: attrs,
		Potential:  potential,
	}, nil
}

// draftPick is the native hockey ledger row; the selection is keyed by DrafteeID.
type draftPick struct {
	ID             int    `json:"ID"`
	DraftRound     int    `json:"DraftRound"`
	DraftNumber    int    `json:"DraftNumber"`
	TeamID         int    `json:"TeamID"`
	Team           string `json:"Team"`
	PreviousTeamID int    `json:"PreviousTeamID"`
	PreviousTeam   string `json:"PreviousTeam"`
	DrafteeID      int    `json:"DrafteeID"`
	DrafteeName    string `json:"DrafteeName"`
	Position       string `json:"Position"`
	Notes          string `json:"Notes"`
}

func (p *PHLPlugin) MapDraftPick(raw json.RawMessage) (*models.DraftPick, error) {
	var rec draftPick
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("phl: MapDraftPick unmarshal error: %w", err)
	}
	if rec.DraftRound <= 0 || rec.DraftNumber <= 0 {
		return nil, fmt.Errorf("phl: pick %d has invalid position round=%d number=%d", rec.ID, rec.DraftRound, rec.DraftNumber)
	}
	return &models.DraftPick{
		ID:                     rec.ID,
		DraftRound:             rec.DraftRound,
		DraftNumber:            rec.DraftNumber,
		TeamID:                 rec.TeamID,
		Team:                   rec.Team,
		PreviousTeamID:         rec.PreviousTeamID,
		PreviousTeam:           rec.PreviousTeam,
		SelectedPlayerID:       rec.DrafteeID,
		SelectedPlayerName:     rec.DrafteeName,
		SelectedPlayerPosition: rec.Position,
		Notes:                  rec.Notes,
	}, nil
}
