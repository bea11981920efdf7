package gateway

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for draft connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	rooms             *RoomManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, rooms *RoomManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		rooms:             rooms,
	}
}

// HandleDraftConnection opens the room if needed, upgrades the request and
// sends the current view as the first message.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draft_id")
	if draftID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "draft_id is required")
		return
	}

	// Connections are anonymous unless the client names itself
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	// A failed bootstrap still lets the client connect and see the error
	room, err := h.rooms.Get(r.Context(), draftID)
	if err != nil {
		log.Warn().Err(err).Str("draft_id", draftID).Msg("socket opened on unbootstrapped room")
	}
	initial, err := NewRoomEvent(draftID, EventTypeStateChanged, time.Now(), room.View())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, draftID, initial); err != nil {
		log.Error().
			Err(err).
			Str("draft_id", draftID).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		// The upgrader has already replied to the client
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/draft", h.HandleDraftConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
