package scouting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

func testPolicy() base.LeaguePolicy {
	return base.NewDefaultPolicy("test", "Test League",
		[]string{"Speed", "Strength", "Agility"},
		[]string{"Speed"},
		[]string{"QB"})
}

func TestCostTable(t *testing.T) {
	costs := NewCostTable(testPolicy())

	cases := []struct {
		attribute string
		want      int
	}{
		{base.AttributePotential, base.DefaultPotentialCost},
		{"Speed", base.DefaultKeyAttributeCost},
		{"Strength", base.DefaultAttributeCost},
		{"Agility", base.DefaultAttributeCost},
	}
	for _, tc := range cases {
		got, err := costs.Cost(tc.attribute)
		require.NoError(t, err, tc.attribute)
		assert.Equal(t, tc.want, got, tc.attribute)
	}

	_, err := costs.Cost("Throwing")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestCanAfford(t *testing.T) {
	costs := NewCostTable(testPolicy())
	room := models.WarRoom{TeamID: 1, ScoutingPoints: 10, SpentPoints: 5}

	assert.Equal(t, 5, AvailablePoints(room))
	assert.True(t, costs.CanAfford(room, "Strength"))
	assert.False(t, costs.CanAfford(room, "Speed"))
	assert.False(t, costs.CanAfford(room, base.AttributePotential))
	assert.False(t, costs.CanAfford(room, "Throwing"))
}

func TestCheckReveal(t *testing.T) {
	costs := NewCostTable(testPolicy())
	profile := models.ScoutingProfile{ID: 3, PlayerID: 40, TeamID: 1}
	room := models.WarRoom{TeamID: 1, ScoutingPoints: 20}

	cases := []struct {
		name      string
		profile   models.ScoutingProfile
		room      models.WarRoom
		attribute string
		want      error
	}{
		{"ok", profile, room, "Speed", nil},
		{"unknown", profile, room, "Throwing", ErrUnknownAttribute},
		{"other team", models.ScoutingProfile{ID: 3, TeamID: 2}, room, "Speed", ErrProfileTeamMismatch},
		{"revealed", models.ScoutingProfile{ID: 3, TeamID: 1, ShowAttribute1: true}, room, "Speed", ErrAlreadyRevealed},
		{"potential revealed", models.ScoutingProfile{ID: 3, TeamID: 1, ShowPotential: true}, room, base.AttributePotential, ErrAlreadyRevealed},
		{"broke", profile, models.WarRoom{TeamID: 1, ScoutingPoints: 20, SpentPoints: 17}, "Strength", ErrInsufficientPoints},
		{"exact budget", profile, models.WarRoom{TeamID: 1, ScoutingPoints: 20, SpentPoints: 16}, "Strength", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := costs.CheckReveal(tc.profile, tc.room, tc.attribute)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApplyReveal(t *testing.T) {
	costs := NewCostTable(testPolicy())
	profile := models.ScoutingProfile{ID: 3, PlayerID: 40, TeamID: 1}
	room := models.WarRoom{TeamID: 1, ScoutingPoints: 20, SpentPoints: 2}

	gotProfile, gotRoom, err := costs.ApplyReveal(profile, room, "Agility")
	require.NoError(t, err)
	assert.True(t, gotProfile.ShowAttribute3)
	assert.Equal(t, 2+base.DefaultAttributeCost, gotRoom.SpentPoints)
	assert.False(t, profile.ShowAttribute3, "input profile must not change")
	assert.Equal(t, 2, room.SpentPoints, "input war room must not change")

	again, againRoom, err := costs.ApplyReveal(gotProfile, gotRoom, "Agility")
	assert.ErrorIs(t, err, ErrAlreadyRevealed)
	assert.Equal(t, gotProfile, again)
	assert.Equal(t, gotRoom, againRoom)
}

func TestApplyRevealNeverOverspends(t *testing.T) {
	costs := NewCostTable(testPolicy())
	profile := models.ScoutingProfile{ID: 1, TeamID: 1}
	room := models.WarRoom{TeamID: 1, ScoutingPoints: 15}

	for _, attr := range []string{base.AttributePotential, "Speed", "Strength", "Agility"} {
		var err error
		profile, room, err = costs.ApplyReveal(profile, room, attr)
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientPoints)
		}
		assert.LessOrEqual(t, room.SpentPoints, room.ScoutingPoints)
	}
	assert.True(t, profile.ShowPotential)
	assert.True(t, profile.ShowAttribute2)
	assert.Equal(t, 14, room.SpentPoints)
}

func TestCanAddToBoard(t *testing.T) {
	board := []models.ScoutingProfile{{ID: 1, PlayerID: 10, TeamID: 1}}
	drafted := map[int]struct{}{20: {}}

	assert.True(t, CanAddToBoard(30, drafted, board))
	assert.False(t, CanAddToBoard(10, drafted, board))
	assert.False(t, CanAddToBoard(20, drafted, board))

	assert.ErrorIs(t, CheckAddToBoard(10, drafted, board), ErrAlreadyOnBoard)
	assert.ErrorIs(t, CheckAddToBoard(20, drafted, board), ErrPlayerDrafted)
	assert.True(t, CanAddToBoard(10, nil, nil))
}
