package phl

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
	assert.True(t, plugin.Policy().HasPosition("G"))
}

func TestMapDraftee(t *testing.T) {
	raw := json.RawMessage(`{"ID":12,"FirstName":"Ilya","LastName":"Moreau","Position":"C",
		"Program":"Halifax","Faceoffs":81,"Goalkeeping":"D","Potential":"B+"}`)
	d, err := New().MapDraftee(raw)
	require.NoError(t, err)

	assert.Equal(t, "Halifax", d.College)
	faceoffs, ok := d.Attribute("Faceoffs")
	require.True(t, ok)
	assert.Equal(t, 81, faceoffs.Value)

	gk, _ := d.Attribute("Goalkeeping")
	assert.Equal(t, "D", gk.Display())
	assert.Equal(t, "B+", d.Potential.Grade)
}

func TestMapDrafteeRejectsUnknownPosition(t *testing.T) {
	_, err := New().MapDraftee(json.RawMessage(`{"ID":12,"FirstName":"Ilya","Position":"QB"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown position "QB"`)
}

func TestMapDraftPickUsesDrafteeID(t *testing.T) {
	raw := json.RawMessage(`{"ID":30,"DraftRound":2,"DraftNumber":6,"TeamID":4,"Team":"MTL",
		"DrafteeID":12,"DrafteeName":"Ilya Moreau","Position":"C"}`)
	pick, err := New().MapDraftPick(raw)
	require.NoError(t, err)
	assert.Equal(t, 12, pick.SelectedPlayerID)
	assert.Equal(t, "Ilya Moreau", pick.SelectedPlayerName)
	assert.False(t, pick.WasTraded())
	assert.Equal(t, 30, pick.Overall(24))
}
