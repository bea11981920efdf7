package scouting

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid scouting request")

// Queries are the statements the app issues, inside or outside a transaction.
type Queries interface {
	// EnsureWarRoom returns the team's war room, creating it with
	// startingPoints on first use. Inside a transaction the row is locked.
	EnsureWarRoom(ctx context.Context, teamID, startingPoints int) (models.WarRoom, error)
	ListProfiles(ctx context.Context, teamID int) ([]models.ScoutingProfile, error)
	// GetProfile returns ErrProfileNotFound when no row matches.
	GetProfile(ctx context.Context, profileID int) (models.ScoutingProfile, error)
	InsertProfile(ctx context.Context, playerID, teamID int) (models.ScoutingProfile, error)
	DeleteProfile(ctx context.Context, profileID int) error
	SaveReveal(ctx context.Context, profile models.ScoutingProfile, warRoom models.WarRoom, attribute string, cost int) error
}

// ScoutingRepository defines what the scouting app needs from storage.
type ScoutingRepository interface {
	Queries
	// InTx runs fn against queries bound to a single transaction.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// DraftedPlayers resolves the players already taken in a draft room.
type DraftedPlayers interface {
	DraftedPlayerIDs(ctx context.Context, draftID string) (map[int]struct{}, error)
}

// App is the authoritative scouting economy. Every reveal is re-validated
// against stored state inside a transaction.
type App struct {
	repo           ScoutingRepository
	costs          CostTable
	startingPoints int
	drafted        DraftedPlayers
}

// NewApp creates a scouting App priced by policy. drafted may be nil, in
// which case AddToBoard does not check the room ledger.
func NewApp(repo ScoutingRepository, policy base.LeaguePolicy, drafted DraftedPlayers) *App {
	return &App{
		repo:           repo,
		costs:          NewCostTable(policy),
		startingPoints: policy.StartingScoutPoints,
		drafted:        drafted,
	}
}

// AddToBoard creates a scouting profile for the player on the team's board.
func (a *App) AddToBoard(ctx context.Context, req AddToBoardRequest) (*models.ScoutingProfile, error) {
	if err := a.validateAddToBoardRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	drafted := map[int]struct{}{}
	if req.DraftID != "" && a.drafted != nil {
		ids, err := a.drafted.DraftedPlayerIDs(ctx, req.DraftID)
		if err != nil {
			return nil, fmt.Errorf("failed to load drafted players: %w", err)
		}
		drafted = ids
	}

	var created models.ScoutingProfile
	err := a.repo.InTx(ctx, func(q Queries) error {
		board, err := q.ListProfiles(ctx, req.TeamID)
		if err != nil {
			return fmt.Errorf("failed to list board: %w", err)
		}
		if err := CheckAddToBoard(req.PlayerID, drafted, board); err != nil {
			return err
		}
		created, err = q.InsertProfile(ctx, req.PlayerID, req.TeamID)
		if err != nil {
			return fmt.Errorf("failed to create scouting profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("team_id", req.TeamID).Int("player_id", req.PlayerID).Int("profile_id", created.ID).Msg("added player to scouting board")
	return &created, nil
}

// RemoveFromBoard deletes a scouting profile. Points spent on it are not refunded.
func (a *App) RemoveFromBoard(ctx context.Context, profileID int) error {
	if profileID <= 0 {
		return fmt.Errorf("validation failed: %w: profile id is required", ErrInvalidRequest)
	}
	if err := a.repo.DeleteProfile(ctx, profileID); err != nil {
		return fmt.Errorf("failed to remove scouting profile: %w", err)
	}
	return nil
}

// RevealAttribute spends points to flip one reveal flag. The quoted cost
// must match the current price.
func (a *App) RevealAttribute(ctx context.Context, req RevealAttributeRequest) (*models.ScoutingProfile, *models.WarRoom, error) {
	if err := a.validateRevealAttributeRequest(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}
	cost, err := a.costs.Cost(req.AttributeKey)
	if err != nil {
		return nil, nil, err
	}
	if req.Cost != cost {
		return nil, nil, fmt.Errorf("%w: quoted %d, price is %d", ErrCostMismatch, req.Cost, cost)
	}

	var (
		profile models.ScoutingProfile
		room    models.WarRoom
	)
	err = a.repo.InTx(ctx, func(q Queries) error {
		current, err := q.GetProfile(ctx, req.ProfileID)
		if err != nil {
			return err
		}
		balance, err := q.EnsureWarRoom(ctx, req.TeamID, a.startingPoints)
		if err != nil {
			return fmt.Errorf("failed to load war room: %w", err)
		}
		profile, room, err = a.costs.ApplyReveal(current, balance, req.AttributeKey)
		if err != nil {
			return err
		}
		if err := q.SaveReveal(ctx, profile, room, req.AttributeKey, cost); err != nil {
			return fmt.Errorf("failed to save reveal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int("team_id", req.TeamID).
		Int("profile_id", req.ProfileID).
		Str("attribute", req.AttributeKey).
		Int("cost", cost).
		Int("available", room.Available()).
		Msg("revealed scouting attribute")
	return &profile, &room, nil
}

// GetWarRoom returns the team's budget, creating it on first access.
func (a *App) GetWarRoom(ctx context.Context, teamID int) (*models.WarRoom, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("validation failed: %w: team id is required", ErrInvalidRequest)
	}
	room, err := a.repo.EnsureWarRoom(ctx, teamID, a.startingPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to get war room: %w", err)
	}
	return &room, nil
}

// ListBoard returns the team's scouting profiles ordered by id.
func (a *App) ListBoard(ctx context.Context, teamID int) ([]models.ScoutingProfile, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("validation failed: %w: team id is required", ErrInvalidRequest)
	}
	board, err := a.repo.ListProfiles(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board: %w", err)
	}
	return board, nil
}

// Costs exposes the price table the app enforces.
func (a *App) Costs() CostTable {
	return a.costs
}

func (a *App) validateAddToBoardRequest(req AddToBoardRequest) error {
	if req.PlayerID <= 0 {
		return fmt.Errorf("%w: player id is required", ErrInvalidRequest)
	}
	if req.TeamID <= 0 {
		return fmt.Errorf("%w: team id is required", ErrInvalidRequest)
	}
	return nil
}

func (a *App) validateRevealAttributeRequest(req RevealAttributeRequest) error {
	if req.ProfileID <= 0 {
		return fmt.Errorf("%w: profile id is required", ErrInvalidRequest)
	}
	if req.TeamID <= 0 {
		return fmt.Errorf("%w: team id is required", ErrInvalidRequest)
	}
	if req.AttributeKey == "" {
		return fmt.Errorf("%w: attribute key is required", ErrInvalidRequest)
	}
	if req.Cost < 0 {
		return fmt.Errorf("%w: cost cannot be negative", ErrInvalidRequest)
	}
	return nil
}
