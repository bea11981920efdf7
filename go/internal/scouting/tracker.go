// Package scouting implements the per-team scouting economy: the pure cost
// and affordability rules, the authoritative server App, and the client
// Tracker that prechecks actions before calling the server.
package scouting

import (
	"errors"
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

var (
	ErrAlreadyRevealed     = errors.New("attribute already revealed")
	ErrInsufficientPoints  = errors.New("insufficient scouting points")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrProfileTeamMismatch = errors.New("scouting profile belongs to another team")
	ErrAlreadyOnBoard      = errors.New("player is already on the scouting board")
	ErrPlayerDrafted       = errors.New("player has already been drafted")
	ErrCostMismatch        = errors.New("quoted cost does not match the current price")
	ErrProfileNotFound     = errors.New("scouting profile not found")
)

// CostTable prices attribute reveals for one league.
type CostTable struct {
	policy base.LeaguePolicy
}

func NewCostTable(policy base.LeaguePolicy) CostTable {
	return CostTable{policy: policy}
}

// Cost returns the price of revealing attribute.
func (c CostTable) Cost(attribute string) (int, error) {
	cost, ok := c.policy.AttributeCost(attribute)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	return cost, nil
}

// Slot returns the profile flag attribute maps to.
func (c CostTable) Slot(attribute string) (int, error) {
	slot, ok := c.policy.AttributeSlot(attribute)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	return slot, nil
}

// AvailablePoints is the team's unspent budget.
func AvailablePoints(w models.WarRoom) int {
	return w.Available()
}

// CanAfford reports whether the team can pay for attribute. Unknown
// attributes are never affordable.
func (c CostTable) CanAfford(w models.WarRoom, attribute string) bool {
	cost, err := c.Cost(attribute)
	return err == nil && cost <= AvailablePoints(w)
}

// CheckReveal returns the reason a reveal must not be dispatched, or nil.
func (c CostTable) CheckReveal(profile models.ScoutingProfile, w models.WarRoom, attribute string) error {
	slot, err := c.Slot(attribute)
	if err != nil {
		return err
	}
	cost, err := c.Cost(attribute)
	if err != nil {
		return err
	}
	if profile.TeamID != w.TeamID {
		return fmt.Errorf("%w: profile %d team %d, war room team %d", ErrProfileTeamMismatch, profile.ID, profile.TeamID, w.TeamID)
	}
	if profile.IsRevealed(slot) {
		return fmt.Errorf("%w: %s on profile %d", ErrAlreadyRevealed, attribute, profile.ID)
	}
	if cost > AvailablePoints(w) {
		return fmt.Errorf("%w: %s costs %d, %d available", ErrInsufficientPoints, attribute, cost, AvailablePoints(w))
	}
	return nil
}

// ApplyReveal returns the profile with the flag set and the war room with
// the cost spent. When the reveal is not allowed both inputs come back
// unchanged along with the reason.
func (c CostTable) ApplyReveal(profile models.ScoutingProfile, w models.WarRoom, attribute string) (models.ScoutingProfile, models.WarRoom, error) {
	if err := c.CheckReveal(profile, w, attribute); err != nil {
		return profile, w, err
	}
	slot, _ := c.Slot(attribute)
	cost, _ := c.Cost(attribute)

	w.SpentPoints += cost
	return profile.Reveal(slot), w, nil
}

// CheckAddToBoard returns why playerID cannot be added to a team board
// holding board, or nil.
func CheckAddToBoard(playerID int, drafted map[int]struct{}, board []models.ScoutingProfile) error {
	if _, taken := drafted[playerID]; taken {
		return fmt.Errorf("%w: %d", ErrPlayerDrafted, playerID)
	}
	for _, p := range board {
		if p.PlayerID == playerID {
			return fmt.Errorf("%w: %d", ErrAlreadyOnBoard, playerID)
		}
	}
	return nil
}

// CanAddToBoard reports whether playerID may be added to the board.
func CanAddToBoard(playerID int, drafted map[int]struct{}, board []models.ScoutingProfile) bool {
	return CheckAddToBoard(playerID, drafted, board) == nil
}
