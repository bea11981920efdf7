package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/scouting"
)

// fakeScouting is an in-memory ScoutingService that counts the calls it serves.
type fakeScouting struct {
	mu       sync.Mutex
	points   int
	spent    int
	profiles map[int]models.ScoutingProfile
	nextID   int
	calls    map[string]int
}

func newFakeScouting(points int) *fakeScouting {
	return &fakeScouting{points: points, profiles: make(map[int]models.ScoutingProfile), nextID: 1, calls: make(map[string]int)}
}

func (f *fakeScouting) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeScouting) warRoom(teamID int) models.WarRoom {
	return models.WarRoom{TeamID: teamID, ScoutingPoints: f.points, SpentPoints: f.spent}
}

func (f *fakeScouting) AddToBoard(_ context.Context, req scouting.AddToBoardRequest) (*scouting.AddToBoardResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddToBoard"]++
	p := models.ScoutingProfile{ID: f.nextID, PlayerID: req.PlayerID, TeamID: req.TeamID}
	f.profiles[p.ID] = p
	f.nextID++
	return &scouting.AddToBoardResponse{Profile: p}, nil
}

func (f *fakeScouting) RemoveFromBoard(_ context.Context, req scouting.RemoveFromBoardRequest) (*scouting.RemoveFromBoardResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["RemoveFromBoard"]++
	delete(f.profiles, req.ProfileID)
	return &scouting.RemoveFromBoardResponse{}, nil
}

func (f *fakeScouting) RevealAttribute(_ context.Context, req scouting.RevealAttributeRequest) (*scouting.RevealAttributeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["RevealAttribute"]++
	p, ok := f.profiles[req.ProfileID]
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("profile %d", req.ProfileID))
	}
	p.ShowAttribute1 = true
	f.profiles[p.ID] = p
	f.spent += req.Cost
	return &scouting.RevealAttributeResponse{Profile: p, WarRoom: f.warRoom(req.TeamID)}, nil
}

func (f *fakeScouting) GetWarRoom(_ context.Context, req scouting.GetWarRoomRequest) (*scouting.GetWarRoomResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetWarRoom"]++
	return &scouting.GetWarRoomResponse{WarRoom: f.warRoom(req.TeamID)}, nil
}

func (f *fakeScouting) ListBoard(_ context.Context, req scouting.ListBoardRequest) (*scouting.ListBoardResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListBoard"]++
	out := []models.ScoutingProfile{}
	for _, p := range f.profiles {
		if p.TeamID == req.TeamID {
			out = append(out, p)
		}
	}
	return &scouting.ListBoardResponse{Profiles: out}, nil
}

func newBoardServer(t *testing.T, client scouting.ScoutingClient) *httptest.Server {
	t.Helper()
	fc := clockwork.NewFakeClockAt(now)
	svc, err := NewService(context.Background(), DefaultConfig(), Dependencies{
		Factory:      engine.NewFactory(docstore.NewMemoryStore(), testPolicy(), fc, nil),
		Bootstrapper: StaticBootstrapper{Data: testData(t)},
		Clock:        fc,
		Scouting:     client,
	})
	require.NoError(t, err)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Rooms().CloseAll()
	})
	return srv
}

func TestBoardAddRevealRemove(t *testing.T) {
	fake := newFakeScouting(10)
	srv := newBoardServer(t, fake)
	base := srv.URL + "/api/drafts/room-1/teams/1"

	resp, body := do(t, http.MethodPost, base+"/board", AddToBoardBody{PlayerID: 102}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"player_id":102`)

	resp, _ = do(t, http.MethodPost, base+"/board", AddToBoardBody{PlayerID: 102}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 1, fake.count("AddToBoard"), "duplicate rejected locally")

	// Speed is the only attribute and costs the default 4 points
	resp, body = do(t, http.MethodPost, base+"/reveal", RevealBody{ProfileID: 1, Attribute: "Speed"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"spent_points":4`)

	resp, _ = do(t, http.MethodPost, base+"/reveal", RevealBody{ProfileID: 1, Attribute: "Speed"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, base+"/reveal", RevealBody{ProfileID: 1, Attribute: "potential"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "potential costs more than the 6 points left")

	resp, _ = do(t, http.MethodPost, base+"/reveal", RevealBody{ProfileID: 1, Attribute: "Throwing"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, fake.count("RevealAttribute"))

	resp, body = do(t, http.MethodDelete, base+"/board/1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"board":[]`)

	resp, _ = do(t, http.MethodDelete, base+"/board/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoardRejectsDraftedPlayers(t *testing.T) {
	fake := newFakeScouting(50)
	srv := newBoardServer(t, fake)
	room := srv.URL + "/api/drafts/room-1"

	resp, _ := do(t, http.MethodPost, room+"/start", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, room+"/pick", engine.Selection{PlayerID: 101}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodPost, room+"/teams/2/board", AddToBoardBody{PlayerID: 101}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	assert.Equal(t, 0, fake.count("AddToBoard"))

	resp, body = do(t, http.MethodGet, room+"/teams/2/board", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"scouting_points":50`)
}

func TestScoutingStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{scouting.ErrInsufficientPoints, http.StatusConflict},
		{scouting.ErrProfileTeamMismatch, http.StatusForbidden},
		{connect.NewError(connect.CodeAborted, scouting.ErrCostMismatch), http.StatusConflict},
		{fmt.Errorf("failed to reveal: %w", connect.NewError(connect.CodeNotFound, errors.New("x"))), http.StatusNotFound},
		{connect.NewError(connect.CodeInternal, errors.New("db down")), http.StatusBadGateway},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := scoutingStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
