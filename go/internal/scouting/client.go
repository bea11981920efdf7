package scouting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/rpc"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// ScoutingClient is the caller side of ScoutingService.
type ScoutingClient interface {
	AddToBoard(ctx context.Context, req AddToBoardRequest) (*AddToBoardResponse, error)
	RemoveFromBoard(ctx context.Context, req RemoveFromBoardRequest) (*RemoveFromBoardResponse, error)
	RevealAttribute(ctx context.Context, req RevealAttributeRequest) (*RevealAttributeResponse, error)
	GetWarRoom(ctx context.Context, req GetWarRoomRequest) (*GetWarRoomResponse, error)
	ListBoard(ctx context.Context, req ListBoardRequest) (*ListBoardResponse, error)
}

type client struct {
	addToBoard      *connect.Client[AddToBoardRequest, AddToBoardResponse]
	removeFromBoard *connect.Client[RemoveFromBoardRequest, RemoveFromBoardResponse]
	revealAttribute *connect.Client[RevealAttributeRequest, RevealAttributeResponse]
	getWarRoom      *connect.Client[GetWarRoomRequest, GetWarRoomResponse]
	listBoard       *connect.Client[ListBoardRequest, ListBoardResponse]
}

// NewClient dials ScoutingService at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ScoutingClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = rpc.ClientOptions(opts...)
	return &client{
		addToBoard:      connect.NewClient[AddToBoardRequest, AddToBoardResponse](httpClient, baseURL+AddToBoardProcedure, opts...),
		removeFromBoard: connect.NewClient[RemoveFromBoardRequest, RemoveFromBoardResponse](httpClient, baseURL+RemoveFromBoardProcedure, opts...),
		revealAttribute: connect.NewClient[RevealAttributeRequest, RevealAttributeResponse](httpClient, baseURL+RevealAttributeProcedure, opts...),
		getWarRoom:      connect.NewClient[GetWarRoomRequest, GetWarRoomResponse](httpClient, baseURL+GetWarRoomProcedure, opts...),
		listBoard:       connect.NewClient[ListBoardRequest, ListBoardResponse](httpClient, baseURL+ListBoardProcedure, opts...),
	}
}

func (c *client) AddToBoard(ctx context.Context, req AddToBoardRequest) (*AddToBoardResponse, error) {
	res, err := c.addToBoard.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *client) RemoveFromBoard(ctx context.Context, req RemoveFromBoardRequest) (*RemoveFromBoardResponse, error) {
	res, err := c.removeFromBoard.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *client) RevealAttribute(ctx context.Context, req RevealAttributeRequest) (*RevealAttributeResponse, error) {
	res, err := c.revealAttribute.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *client) GetWarRoom(ctx context.Context, req GetWarRoomRequest) (*GetWarRoomResponse, error) {
	res, err := c.getWarRoom.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *client) ListBoard(ctx context.Context, req ListBoardRequest) (*ListBoardResponse, error) {
	res, err := c.listBoard.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Tracker is one team's client-side view of the scouting economy. It checks
// every action against its cached war room and board before dispatching, so
// a rejected action never costs a round trip.
type Tracker struct {
	client ScoutingClient
	costs  CostTable
	teamID int

	mu      sync.RWMutex
	warRoom models.WarRoom
	board   map[int]models.ScoutingProfile
}

func NewTracker(client ScoutingClient, policy base.LeaguePolicy, teamID int) *Tracker {
	return &Tracker{
		client:  client,
		costs:   NewCostTable(policy),
		teamID:  teamID,
		warRoom: models.WarRoom{TeamID: teamID},
		board:   make(map[int]models.ScoutingProfile),
	}
}

// Refresh reloads the war room and board from the server.
func (t *Tracker) Refresh(ctx context.Context) error {
	room, err := t.client.GetWarRoom(ctx, GetWarRoomRequest{TeamID: t.teamID})
	if err != nil {
		return fmt.Errorf("failed to load war room: %w", err)
	}
	board, err := t.client.ListBoard(ctx, ListBoardRequest{TeamID: t.teamID})
	if err != nil {
		return fmt.Errorf("failed to load scouting board: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.warRoom = room.WarRoom
	t.board = make(map[int]models.ScoutingProfile, len(board.Profiles))
	for _, p := range board.Profiles {
		t.board[p.ID] = p
	}
	return nil
}

func (t *Tracker) WarRoom() models.WarRoom {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.warRoom
}

// Board returns the cached profiles ordered by id.
func (t *Tracker) Board() []models.ScoutingProfile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.ScoutingProfile, 0, len(t.board))
	for _, p := range t.board {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CanReveal returns why revealing attribute on profileID would be rejected.
func (t *Tracker) CanReveal(profileID int, attribute string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	profile, ok := t.board[profileID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
	}
	return t.costs.CheckReveal(profile, t.warRoom, attribute)
}

// Reveal buys attribute on profileID after a local check.
func (t *Tracker) Reveal(ctx context.Context, profileID int, attribute string) (models.ScoutingProfile, error) {
	if err := t.CanReveal(profileID, attribute); err != nil {
		return models.ScoutingProfile{}, err
	}
	cost, err := t.costs.Cost(attribute)
	if err != nil {
		return models.ScoutingProfile{}, err
	}

	res, err := t.client.RevealAttribute(ctx, RevealAttributeRequest{
		ProfileID:    profileID,
		AttributeKey: attribute,
		Cost:         cost,
		TeamID:       t.teamID,
	})
	if err != nil {
		return models.ScoutingProfile{}, fmt.Errorf("failed to reveal %s: %w", attribute, err)
	}

	t.mu.Lock()
	t.board[res.Profile.ID] = res.Profile
	t.warRoom = res.WarRoom
	t.mu.Unlock()
	return res.Profile, nil
}

// AddToBoard adds playerID unless it is drafted or already tracked.
func (t *Tracker) AddToBoard(ctx context.Context, draftID string, playerID int, drafted map[int]struct{}) (models.ScoutingProfile, error) {
	if err := CheckAddToBoard(playerID, drafted, t.Board()); err != nil {
		return models.ScoutingProfile{}, err
	}
	res, err := t.client.AddToBoard(ctx, AddToBoardRequest{PlayerID: playerID, TeamID: t.teamID, DraftID: draftID})
	if err != nil {
		return models.ScoutingProfile{}, fmt.Errorf("failed to add player %d to board: %w", playerID, err)
	}

	t.mu.Lock()
	t.board[res.Profile.ID] = res.Profile
	t.mu.Unlock()
	return res.Profile, nil
}

func (t *Tracker) RemoveFromBoard(ctx context.Context, profileID int) error {
	t.mu.RLock()
	_, ok := t.board[profileID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
	}
	if _, err := t.client.RemoveFromBoard(ctx, RemoveFromBoardRequest{ProfileID: profileID}); err != nil {
		return fmt.Errorf("failed to remove profile %d: %w", profileID, err)
	}

	t.mu.Lock()
	delete(t.board, profileID)
	t.mu.Unlock()
	return nil
}
