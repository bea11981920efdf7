package nfl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

func TestRegistered(t *testing.T) {
	plugin, err := base.GetPlugin(Key)
	require.NoError(t, err)
	assert.NoError(t, plugin.Policy().Validate())
	assert.Len(t, plugin.Policy().Attributes, 8)
}

func TestMapDraftee(t *testing.T) {
	raw := json.RawMessage(`{
		"ID": 41, "FirstName": "Cole", "LastName": "Barrett", "Position": "QB",
		"Archetype": "Pocket", "Height": 76, "Weight": 221, "Age": 21, "College": "Ohio",
		"FootballIQ": "A-", "Speed": 74, "ThrowPower": "B", "PotentialGrade": "A"
	}`)
	d, err := New().MapDraftee(raw)
	require.NoError(t, err)

	assert.Equal(t, "Cole Barrett", d.FullName())
	assert.Equal(t, Key, d.SportID)
	require.Len(t, d.Attributes, len(Attributes))
	assert.Equal(t, "FootballIQ", d.Attributes[0].Name)

	iq, _ := d.Attribute("FootballIQ")
	assert.False(t, iq.Revealed)
	assert.Equal(t, "A-", iq.Grade)

	speed, _ := d.Attribute("Speed")
	assert.True(t, speed.Revealed)
	assert.Equal(t, 74, speed.Value)

	assert.Equal(t, "A", d.Potential.Grade)
}

func TestMapDrafteeRejectsMissingID(t *testing.T) {
	_, err := New().MapDraftee(json.RawMessage(`{"FirstName":"x"}`))
	assert.Error(t, err)
}

func TestMapDrafteeRejectsUnknownPosition(t *testing.T) {
	_, err := New().MapDraftee(json.RawMessage(`{"ID":41,"FirstName":"Cole","Position":"LF"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown position "LF"`)
}

func TestMapDraftPick(t *testing.T) {
	raw := json.RawMessage(`{"ID":7,"DraftRound":1,"DraftNumber":7,"TeamID":3,"Team":"BOS",
		"PreviousTeamID":9,"PreviousTeam":"NYC","SelectedPlayerID":41,"SelectedPlayerName":"Cole Barrett"}`)
	pick, err := New().MapDraftPick(raw)
	require.NoError(t, err)
	assert.True(t, pick.IsFilled())
	assert.True(t, pick.WasTraded())
	assert.Equal(t, 7, pick.Overall(24))

	_, err = New().MapDraftPick(json.RawMessage(`{"ID":1,"DraftRound":0,"DraftNumber":1}`))
	assert.Error(t, err)
}

func TestInitOverrides(t *testing.T) {
	p := New()
	require.NoError(t, p.Init(base.PolicyOverrides{PicksPerRound: 32}))
	assert.Equal(t, 32, p.Policy().PicksPerRound)
	assert.Equal(t, Key, p.Policy().Key)
}
