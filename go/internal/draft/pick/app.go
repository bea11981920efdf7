package pick

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

var (
	ErrInvalidRequest  = errors.New("invalid pick request")
	ErrDraftInProgress = errors.New("draft is still in progress")
	ErrTeamNotInDraft  = errors.New("team holds no picks in this draft")
	ErrPickNotExported = errors.New("pick has not been exported")
	ErrAlreadyPromoted = errors.New("player has already been brought up")
)

// PickRepository defines what the pick app layer needs from the pick repository
type PickRepository interface {
	// SaveExport upserts the team's picks and records the team as exported.
	SaveExport(ctx context.Context, draftID string, teamID int, picks []ExportedPick) error
	ExportedTeams(ctx context.Context, draftID string) (map[int]struct{}, error)
	// GetExportedPick returns ErrPickNotExported when no row matches.
	GetExportedPick(ctx context.Context, draftID string, pickID int) (*ExportedPick, error)
	PromotePick(ctx context.Context, draftID string, pickID int) (*ExportedPick, error)
	ListExportedPicks(ctx context.Context, draftID string, teamID int) ([]ExportedPick, error)
}

// DraftStates reads and flags draft room documents. *engine.Factory
// satisfies it.
type DraftStates interface {
	State(ctx context.Context, draftID string) (models.DraftState, error)
	SetExportComplete(ctx context.Context, draftID string) (models.DraftState, error)
}

// App handles pick business logic
type App struct {
	repo      PickRepository
	rooms     DraftStates
	policy    base.LeaguePolicy
	clock     clockwork.Clock
	publisher events.Publisher
}

// NewApp creates a new pick App
func NewApp(repo PickRepository, rooms DraftStates, policy base.LeaguePolicy, clk clockwork.Clock, publisher events.Publisher) *App {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &App{
		repo:      repo,
		rooms:     rooms,
		policy:    policy,
		clock:     clk,
		publisher: publisher,
	}
}

// ExportDraftPicks persists the team's filled picks from the room ledger.
// Once every team holding a pick has exported, or the request is forced,
// the room is flagged exportComplete.
func (a *App) ExportDraftPicks(ctx context.Context, req ExportDraftPicksRequest) (*ExportDraftPicksResponse, error) {
	if err := a.validateExportRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	state, err := a.rooms.State(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft state: %w", err)
	}
	if !engine.IsComplete(state, a.policy) && !req.Force {
		return nil, fmt.Errorf("%w: %s", ErrDraftInProgress, req.DraftID)
	}

	lg := ledger.New(state.AllDraftPicks, a.policy.PicksPerRound)
	teams := teamsInLedger(lg)

	resp := &ExportDraftPicksResponse{Picks: []ExportedPick{}}
	if req.TeamID > 0 {
		if _, ok := teams[req.TeamID]; !ok {
			return nil, fmt.Errorf("%w: team %d", ErrTeamNotInDraft, req.TeamID)
		}
		resp.Picks = a.exportRows(req.DraftID, lg.PicksByTeam(req.TeamID))
		if err := a.repo.SaveExport(ctx, req.DraftID, req.TeamID, resp.Picks); err != nil {
			return nil, fmt.Errorf("failed to save export: %w", err)
		}
	}

	exported, err := a.repo.ExportedTeams(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exported teams: %w", err)
	}
	resp.AllTeams = coversAll(exported, teams)

	resp.ExportComplete = state.ExportComplete
	if (resp.AllTeams || req.Force) && !state.ExportComplete {
		if _, err := a.rooms.SetExportComplete(ctx, req.DraftID); err != nil {
			return nil, fmt.Errorf("failed to mark export complete: %w", err)
		}
		resp.ExportComplete = true
	}

	now := a.clock.Now()
	events.Emit(ctx, a.publisher, events.TypeDraftExported, req.DraftID, now, events.DraftExportedPayload{
		DraftID:    req.DraftID,
		TeamID:     req.TeamID,
		PickCount:  len(resp.Picks),
		AllTeams:   resp.AllTeams,
		ExportedAt: now,
	})

	log.Info().
		Str("draft_id", req.DraftID).
		Int("team_id", req.TeamID).
		Int("pick_count", len(resp.Picks)).
		Bool("all_teams", resp.AllTeams).
		Bool("forced", req.Force).
		Msg("exported draft picks")
	return resp, nil
}

// BringUpCollegePlayer promotes the player taken with an exported pick out
// of the college pool. It happens at most once per pick.
func (a *App) BringUpCollegePlayer(ctx context.Context, req BringUpCollegePlayerRequest) (*ExportedPick, error) {
	if req.DraftID == "" || req.PickID <= 0 {
		return nil, fmt.Errorf("validation failed: %w: draft id and pick id are required", ErrInvalidRequest)
	}

	current, err := a.repo.GetExportedPick(ctx, req.DraftID, req.PickID)
	if err != nil {
		return nil, err
	}
	if current.Promoted {
		return nil, fmt.Errorf("%w: pick %d", ErrAlreadyPromoted, req.PickID)
	}

	promoted, err := a.repo.PromotePick(ctx, req.DraftID, req.PickID)
	if err != nil {
		return nil, fmt.Errorf("failed to bring up player: %w", err)
	}

	log.Info().
		Str("draft_id", req.DraftID).
		Int("pick_id", req.PickID).
		Int("player_id", promoted.Pick.SelectedPlayerID).
		Msg("brought up college player")
	return promoted, nil
}

// ListExportedPicks returns persisted picks in overall order.
func (a *App) ListExportedPicks(ctx context.Context, req ListExportedPicksRequest) ([]ExportedPick, error) {
	if req.DraftID == "" {
		return nil, fmt.Errorf("validation failed: %w: draft id is required", ErrInvalidRequest)
	}
	picks, err := a.repo.ListExportedPicks(ctx, req.DraftID, req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exported picks: %w", err)
	}
	return picks, nil
}

func (a *App) validateExportRequest(req ExportDraftPicksRequest) error {
	if req.DraftID == "" {
		return fmt.Errorf("%w: draft id is required", ErrInvalidRequest)
	}
	if req.TeamID < 0 || (req.TeamID == 0 && !req.Force) {
		return fmt.Errorf("%w: team id is required", ErrInvalidRequest)
	}
	return nil
}

// exportRows keeps the filled picks and stamps them with their overall number.
func (a *App) exportRows(draftID string, picks []models.DraftPick) []ExportedPick {
	now := a.clock.Now()
	rows := make([]ExportedPick, 0, len(picks))
	for _, p := range picks {
		if !p.IsFilled() {
			continue
		}
		rows = append(rows, ExportedPick{
			DraftID:     draftID,
			Pick:        p,
			OverallPick: p.Overall(a.policy.PicksPerRound),
			ExportedAt:  now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].OverallPick < rows[j].OverallPick })
	return rows
}

func teamsInLedger(lg ledger.Ledger) map[int]struct{} {
	teams := make(map[int]struct{})
	for _, p := range lg.Ordered() {
		teams[p.TeamID] = struct{}{}
	}
	return teams
}

func coversAll(exported, teams map[int]struct{}) bool {
	if len(teams) == 0 {
		return false
	}
	for id := range teams {
		if _, ok := exported[id]; !ok {
			return false
		}
	}
	return true
}
