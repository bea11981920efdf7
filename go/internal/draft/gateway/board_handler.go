package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/scouting"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// BoardResponse is a team's war room and scouting board
type BoardResponse struct {
	WarRoom models.WarRoom           `json:"war_room"`
	Board   []models.ScoutingProfile `json:"board"`
}

// AddToBoardBody names the prospect to start tracking
type AddToBoardBody struct {
	PlayerID int `json:"playerId"`
}

// RevealBody names the attribute to buy
type RevealBody struct {
	ProfileID int    `json:"profileId"`
	Attribute string `json:"attribute"`
}

// BoardHandler exposes each team's scouting board next to the room it is
// drafting in. Actions are checked locally by a per-team tracker before
// they reach the scouting service.
type BoardHandler struct {
	rooms  *RoomManager
	client scouting.ScoutingClient
	policy base.LeaguePolicy

	mu       sync.Mutex
	trackers map[int]*scouting.Tracker
}

func NewBoardHandler(rooms *RoomManager, client scouting.ScoutingClient, policy base.LeaguePolicy) *BoardHandler {
	return &BoardHandler{
		rooms:    rooms,
		client:   client,
		policy:   policy,
		trackers: make(map[int]*scouting.Tracker),
	}
}

func (h *BoardHandler) RegisterBoardRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/{id}/teams/{team}/board", h.HandleGetBoard)
	mux.HandleFunc("POST /api/drafts/{id}/teams/{team}/board", h.HandleAddToBoard)
	mux.HandleFunc("DELETE /api/drafts/{id}/teams/{team}/board/{profile}", h.HandleRemoveFromBoard)
	mux.HandleFunc("POST /api/drafts/{id}/teams/{team}/reveal", h.HandleReveal)
}

// tracker returns the team's tracker, loading it on first use.
func (h *BoardHandler) tracker(w http.ResponseWriter, r *http.Request) (*scouting.Tracker, bool) {
	teamID, err := strconv.Atoi(r.PathValue("team"))
	if err != nil || teamID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "team id must be a positive integer")
		return nil, false
	}

	h.mu.Lock()
	t, ok := h.trackers[teamID]
	h.mu.Unlock()
	if ok {
		return t, true
	}

	t = scouting.NewTracker(h.client, h.policy, teamID)
	if err := t.Refresh(r.Context()); err != nil {
		log.Error().Err(err).Int("team_id", teamID).Msg("failed to load scouting board")
		writeScoutingError(w, err)
		return nil, false
	}

	h.mu.Lock()
	if existing, ok := h.trackers[teamID]; ok {
		t = existing
	} else {
		h.trackers[teamID] = t
	}
	h.mu.Unlock()
	return t, true
}

func boardResponse(t *scouting.Tracker) BoardResponse {
	return BoardResponse{WarRoom: t.WarRoom(), Board: t.Board()}
}

// HandleGetBoard handles GET /api/drafts/{id}/teams/{team}/board and
// always reloads from the scouting service.
func (h *BoardHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}
	if err := t.Refresh(r.Context()); err != nil {
		writeScoutingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(t))
}

// HandleAddToBoard handles POST /api/drafts/{id}/teams/{team}/board
func (h *BoardHandler) HandleAddToBoard(w http.ResponseWriter, r *http.Request) {
	var body AddToBoardBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlayerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "playerId must be a positive integer")
		return
	}
	draftID := r.PathValue("id")
	room, err := h.rooms.Get(r.Context(), draftID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "bootstrap_failed", err.Error())
		return
	}
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}
	if _, err := t.AddToBoard(r.Context(), draftID, body.PlayerID, room.Drafted()); err != nil {
		writeScoutingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(t))
}

// HandleRemoveFromBoard handles DELETE /api/drafts/{id}/teams/{team}/board/{profile}
func (h *BoardHandler) HandleRemoveFromBoard(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.Atoi(r.PathValue("profile"))
	if err != nil || profileID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "profile id must be a positive integer")
		return
	}
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}
	if err := t.RemoveFromBoard(r.Context(), profileID); err != nil {
		writeScoutingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(t))
}

// HandleReveal handles POST /api/drafts/{id}/teams/{team}/reveal
func (h *BoardHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	var body RevealBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProfileID <= 0 || body.Attribute == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "profileId and attribute are required")
		return
	}
	t, ok := h.tracker(w, r)
	if !ok {
		return
	}
	if _, err := t.Reveal(r.Context(), body.ProfileID, body.Attribute); err != nil {
		writeScoutingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse(t))
}

// scoutingStatus maps local tracker rejections and scouting service codes
// to an HTTP status.
func scoutingStatus(err error) (int, string) {
	switch {
	case errors.Is(err, scouting.ErrUnknownAttribute):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, scouting.ErrProfileNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, scouting.ErrProfileTeamMismatch):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, scouting.ErrAlreadyRevealed),
		errors.Is(err, scouting.ErrInsufficientPoints),
		errors.Is(err, scouting.ErrAlreadyOnBoard),
		errors.Is(err, scouting.ErrPlayerDrafted):
		return http.StatusConflict, "rejected"
	}

	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return http.StatusInternalServerError, "internal"
	}
	switch connectErr.Code() {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest, "invalid_request"
	case connect.CodeNotFound:
		return http.StatusNotFound, "not_found"
	case connect.CodePermissionDenied:
		return http.StatusForbidden, "forbidden"
	case connect.CodeAlreadyExists, connect.CodeFailedPrecondition, connect.CodeAborted:
		return http.StatusConflict, "rejected"
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusBadGateway, "scouting_failed"
	}
}

func writeScoutingError(w http.ResponseWriter, err error) {
	status, code := scoutingStatus(err)
	writeError(w, status, code, err.Error())
}
