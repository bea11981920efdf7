package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Envelope
	err    error
}

func (r *recorder) Publish(ctx context.Context, event Envelope) error {
	r.events = append(r.events, event)
	return r.err
}

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2026, 4, 23, 20, 0, 0, 0, time.UTC)
	env, err := NewEnvelope(TypeDraftPaused, "room-1", at, DraftPausedPayload{DraftID: "room-1", Reason: PauseReasonClockExpired})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, TypeDraftPaused, env.EventType)

	var payload DraftPausedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, PauseReasonClockExpired, payload.Reason)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	for _, field := range []string{"eventId", "eventType", "draftId", "timestamp", "payload"} {
		assert.Contains(t, wire, field)
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "sim.draft.PickMade", Subject("sim", TypePickMade))
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	rec := &recorder{err: errors.New("broker down")}
	Emit(context.Background(), rec, TypePickMade, "room-1", time.Now(), PickMadePayload{PlayerID: 9})
	assert.Len(t, rec.events, 1)

	Emit(context.Background(), nil, TypePickMade, "room-1", time.Now(), nil)
}
