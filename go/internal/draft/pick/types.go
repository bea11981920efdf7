package pick

import (
	"time"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// ExportedPick is a filled ledger slot persisted after the draft.
type ExportedPick struct {
	DraftID     string           `json:"draftId"`
	Pick        models.DraftPick `json:"pick"`
	OverallPick int              `json:"overallPick"`
	Promoted    bool             `json:"promoted"`
	PromotedAt  *time.Time       `json:"promotedAt,omitempty"`
	ExportedAt  time.Time        `json:"exportedAt"`
}

// ExportDraftPicksRequest exports one team's picks. Force is the admin
// override: it skips the completion check and marks the room exported
// even if other teams have not exported yet. TeamID may be zero only when
// Force is set.
type ExportDraftPicksRequest struct {
	DraftID string `json:"draftId"`
	TeamID  int    `json:"teamId"`
	Force   bool   `json:"force,omitempty"`
}

type ExportDraftPicksResponse struct {
	Picks          []ExportedPick `json:"picks"`
	AllTeams       bool           `json:"allTeams"`
	ExportComplete bool           `json:"exportComplete"`
}

type BringUpCollegePlayerRequest struct {
	DraftID string `json:"draftId"`
	PickID  int    `json:"pickId"`
}

type BringUpCollegePlayerResponse struct {
	Pick ExportedPick `json:"pick"`
}

// ListExportedPicksRequest filters by team when TeamID is non-zero.
type ListExportedPicksRequest struct {
	DraftID string `json:"draftId"`
	TeamID  int    `json:"teamId,omitempty"`
}

type ListExportedPicksResponse struct {
	Picks []ExportedPick `json:"picks"`
}
