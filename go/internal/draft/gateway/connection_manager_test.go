package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, conn *websocket.Conn) RoomEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event RoomEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestConnectionManagerFanOut(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go cm.Start(ctx)

	initial, err := NewRoomEvent("room-1", EventTypeStateChanged, now, RoomView{DraftID: "room-1"})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, cm.UpgradeConnection(w, r, r.URL.Query().Get("user_id"), "room-1", initial))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=user-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	first := readEvent(t, conn)
	assert.Equal(t, EventTypeStateChanged, first.Type)
	require.Eventually(t, func() bool { return cm.ConnectionCount("room-1") == 1 }, waitFor, 10*time.Millisecond)

	tick, err := NewRoomEvent("room-1", EventTypeClockTick, now, ClockTickPayload{SecondsRemaining: 42, Display: "0:42"})
	require.NoError(t, err)
	other, err := NewRoomEvent("room-2", EventTypeClockTick, now, ClockTickPayload{})
	require.NoError(t, err)
	failed, err := NewRoomEvent("room-1", EventTypeError, now, ErrorPayload{Operation: "pick", Message: "boom"})
	require.NoError(t, err)

	cm.BroadcastToDraft("room-2", other)
	cm.BroadcastToDraft("room-1", tick)
	cm.BroadcastToDraft("room-1", failed)

	got := readEvent(t, conn)
	assert.Equal(t, EventTypeClockTick, got.Type)
	assert.Equal(t, tick.ID, got.ID)
	got = readEvent(t, conn)
	assert.Equal(t, EventTypeError, got.Type)
	assert.Equal(t, failed.ID, got.ID)

	stats := cm.GetConnectionStats()
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, map[string]int{"room-1": 1}, stats.DraftConnections)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return cm.ConnectionCount("room-1") == 0 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, 0, cm.GetConnectionStats().ActiveDrafts)
}

func TestUnregisterConnectionIsIdempotent(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	conn := &Connection{ID: "c1", DraftID: "room-1", Send: make(chan []byte, 1), Manager: cm}
	cm.registerConnection(conn)
	assert.Equal(t, 1, cm.ConnectionCount("room-1"))

	cm.unregisterConnection(conn)
	cm.unregisterConnection(conn)
	assert.Equal(t, 0, cm.ConnectionCount("room-1"))

	_, open := <-conn.Send
	assert.False(t, open)
}
