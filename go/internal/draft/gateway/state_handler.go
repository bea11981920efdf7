package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// AdminTokenHeader carries the token required by admin routes.
const AdminTokenHeader = "X-Admin-Token"

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ResetRequest restores the clock to a round's allotment. Zero uses the
// current round.
type ResetRequest struct {
	Round int `json:"round"`
}

// RoomSummary is one entry of the active room listing
type RoomSummary struct {
	DraftID     string             `json:"draft_id"`
	Status      models.DraftStatus `json:"status,omitempty"`
	Connections int                `json:"connections"`
	Ready       bool               `json:"ready"`
}

// StateHandler serves room views and draft commands over HTTP.
type StateHandler struct {
	rooms       *RoomManager
	broadcaster Broadcaster
	adminToken  string
}

// NewStateHandler creates a new state handler. An empty adminToken
// disables the admin routes.
func NewStateHandler(rooms *RoomManager, broadcaster Broadcaster, adminToken string) *StateHandler {
	return &StateHandler{
		rooms:       rooms,
		broadcaster: broadcaster,
		adminToken:  adminToken,
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/active", h.HandleGetActiveDrafts)
	mux.HandleFunc("GET /api/drafts/{id}/state", h.HandleGetDraftState)
	mux.HandleFunc("GET /api/drafts/{id}/prospects", h.HandleGetProspects)
	mux.HandleFunc("GET /api/drafts/{id}/teams/{team}/picks", h.HandleGetTeamPicks)
	mux.HandleFunc("POST /api/drafts/{id}/bootstrap", h.HandleBootstrap)
	mux.HandleFunc("POST /api/drafts/{id}/start", h.command("start", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.StartDraft(ctx)
	}))
	mux.HandleFunc("POST /api/drafts/{id}/pause", h.command("pause", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.Pause(ctx, events.PauseReasonManual)
	}))
	mux.HandleFunc("POST /api/drafts/{id}/resume", h.command("resume", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.Resume(ctx)
	}))
	mux.HandleFunc("POST /api/drafts/{id}/advance", h.command("advance", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.AdvanceToNextPick(ctx)
	}))
	mux.HandleFunc("POST /api/drafts/{id}/reset", h.HandleReset)
	mux.HandleFunc("POST /api/drafts/{id}/pick", h.HandleDraftPlayer)
	mux.HandleFunc("POST /api/drafts/{id}/admin/manual", h.HandleManualUpdate)
}

// room resolves the {id} path value, writing the error response itself
// when the room cannot be used.
func (h *StateHandler) room(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	draftID := r.PathValue("id")
	if draftID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "draft id is required")
		return nil, false
	}
	room, err := h.rooms.Get(r.Context(), draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID).Msg("failed to open draft room")
		writeError(w, http.StatusServiceUnavailable, "bootstrap_failed", err.Error())
		return nil, false
	}
	return room, true
}

// existingRoom is room for the read routes: ids with neither a registered
// room nor a stored document get a 404 instead of a new room.
func (h *StateHandler) existingRoom(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	draftID := r.PathValue("id")
	room, err := h.rooms.GetExisting(r.Context(), draftID)
	switch {
	case errors.Is(err, engine.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
		return nil, false
	case room == nil:
		log.Error().Err(err).Str("draft_id", draftID).Msg("failed to look up draft room")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return nil, false
	case err != nil:
		log.Warn().Err(err).Str("draft_id", draftID).Msg("serving unbootstrapped room")
	}
	return room, true
}

// HandleGetDraftState handles GET /api/drafts/{id}/state. A room whose
// bootstrap failed still answers, with bootstrap_error set.
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	room, ok := h.existingRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room.View())
}

// HandleGetActiveDrafts handles GET /api/drafts/active
func (h *StateHandler) HandleGetActiveDrafts(w http.ResponseWriter, r *http.Request) {
	summaries := make([]RoomSummary, 0)
	for _, id := range h.rooms.IDs() {
		room, ok := h.rooms.Lookup(id)
		if !ok {
			continue
		}
		view := room.View()
		summary := RoomSummary{
			DraftID: id,
			Status:  view.Status,
			Ready:   room.Ready(),
		}
		if h.broadcaster != nil {
			summary.Connections = h.broadcaster.ConnectionCount(id)
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].DraftID < summaries[j].DraftID })
	writeJSON(w, http.StatusOK, summaries)
}

// HandleGetProspects handles GET /api/drafts/{id}/prospects?q=
func (h *StateHandler) HandleGetProspects(w http.ResponseWriter, r *http.Request) {
	room, ok := h.existingRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room.Prospects(r.URL.Query().Get("q")))
}

// HandleGetTeamPicks handles GET /api/drafts/{id}/teams/{team}/picks
func (h *StateHandler) HandleGetTeamPicks(w http.ResponseWriter, r *http.Request) {
	teamID, err := strconv.Atoi(r.PathValue("team"))
	if err != nil || teamID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "team id must be a positive integer")
		return
	}
	room, ok := h.existingRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room.TeamPicks(teamID))
}

// HandleBootstrap retries opening a room whose bootstrap failed.
func (h *StateHandler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room.View())
}

func (h *StateHandler) command(name string, op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := h.room(w, r)
		if !ok {
			return
		}
		h.run(w, r, room, name, op)
	}
}

func (h *StateHandler) run(w http.ResponseWriter, r *http.Request, room *Room, name string, op Operation) {
	state, err := room.Do(r.Context(), name, op)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room.ViewOf(state))
}

// HandleReset handles POST /api/drafts/{id}/reset
func (h *StateHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
	}
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	h.run(w, r, room, "reset", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.Reset(ctx, req.Round)
	})
}

// HandleDraftPlayer handles POST /api/drafts/{id}/pick
func (h *StateHandler) HandleDraftPlayer(w http.ResponseWriter, r *http.Request) {
	var sel engine.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	if sel.PlayerID > 0 {
		completed, err := room.Selection(sel)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		sel = completed
	}
	h.run(w, r, room, "pick", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		state, _, err := eng.DraftPlayer(ctx, sel)
		return state, err
	})
}

// HandleManualUpdate handles POST /api/drafts/{id}/admin/manual
func (h *StateHandler) HandleManualUpdate(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" || r.Header.Get(AdminTokenHeader) != h.adminToken {
		writeError(w, http.StatusForbidden, "forbidden", "admin token required")
		return
	}
	var patch models.DraftStatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	h.run(w, r, room, "manual_update", func(ctx context.Context, eng *engine.Engine) (models.DraftState, error) {
		return eng.ManualUpdate(ctx, patch)
	})
}

// operationStatus maps an operation error to an HTTP status.
func operationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrRoomNotReady):
		return http.StatusServiceUnavailable, "room_not_ready"
	case errors.Is(err, engine.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found"
	case errors.Is(err, ErrUnknownPlayer),
		errors.Is(err, engine.ErrInvalidPlayer),
		errors.Is(err, engine.ErrEmptyUpdate):
		return http.StatusBadRequest, "invalid_request"
	case IsRuleError(err):
		return http.StatusConflict, "rejected"
	default:
		return http.StatusInternalServerError, "write_failed"
	}
}

func writeOperationError(w http.ResponseWriter, err error) {
	status, code := operationStatus(err)
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
