package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/draftroom/go/internal/models"
)

func prospects() []models.Draftee {
	return []models.Draftee{
		{ID: 1, FirstName: "Marcus", LastName: "Hale"},
		{ID: 2, FirstName: "Jordan", LastName: "Pike"},
		{ID: 3, FirstName: "Marco", LastName: "Haley"},
	}
}

func TestAvailableDraftees(t *testing.T) {
	available := AvailableDraftees(prospects(), map[int]struct{}{2: {}})
	assert.Len(t, available, 2)
	for _, d := range available {
		assert.NotEqual(t, 2, d.ID)
	}
}

func TestSearchDraftees(t *testing.T) {
	t.Run("substring", func(t *testing.T) {
		got := SearchDraftees(prospects(), "hale", 0)
		assert.Len(t, got, 2)
		assert.Equal(t, 1, got[0].ID)
	})
	t.Run("typo within distance", func(t *testing.T) {
		got := SearchDraftees(prospects(), "jordn", 1)
		if assert.Len(t, got, 1) {
			assert.Equal(t, 2, got[0].ID)
		}
	})
	t.Run("too far", func(t *testing.T) {
		assert.Empty(t, SearchDraftees(prospects(), "zzzz", 1))
	})
	t.Run("empty query returns all", func(t *testing.T) {
		assert.Len(t, SearchDraftees(prospects(), "  ", 0), 3)
	})
}
