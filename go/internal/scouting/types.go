package scouting

import (
	"github.com/mcdev12/draftroom/go/internal/models"
)

// AddToBoardRequest adds a prospect to a team's scouting board.
// DraftID is optional; when set the server refuses players already drafted
// in that room.
type AddToBoardRequest struct {
	PlayerID int    `json:"playerId"`
	TeamID   int    `json:"teamId"`
	DraftID  string `json:"draftId,omitempty"`
}

type AddToBoardResponse struct {
	Profile models.ScoutingProfile `json:"profile"`
}

type RemoveFromBoardRequest struct {
	ProfileID int `json:"profileId"`
}

type RemoveFromBoardResponse struct{}

// RevealAttributeRequest buys one attribute reveal. Cost is the price the
// caller saw; the server rejects the purchase if it no longer matches.
type RevealAttributeRequest struct {
	ProfileID    int    `json:"profileId"`
	AttributeKey string `json:"attributeKey"`
	Cost         int    `json:"cost"`
	TeamID       int    `json:"teamId"`
}

type RevealAttributeResponse struct {
	Profile models.ScoutingProfile `json:"profile"`
	WarRoom models.WarRoom         `json:"warRoom"`
}

type GetWarRoomRequest struct {
	TeamID int `json:"teamId"`
}

type GetWarRoomResponse struct {
	WarRoom models.WarRoom `json:"warRoom"`
}

type ListBoardRequest struct {
	TeamID int `json:"teamId"`
}

type ListBoardResponse struct {
	Profiles []models.ScoutingProfile `json:"profiles"`
}
