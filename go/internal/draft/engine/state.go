// Package engine holds the draft state machine: pure transitions over a
// room document plus an Engine that persists them.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

var (
	ErrDraftComplete        = errors.New("draft is complete")
	ErrNoPickAtCursor       = errors.New("no ledger entry at the current pick")
	ErrPickAlreadyFilled    = errors.New("current pick is already filled")
	ErrPlayerAlreadyDrafted = errors.New("player has already been drafted")
	ErrInvalidTransition    = errors.New("invalid draft status transition")
	ErrInvalidPlayer        = errors.New("player id must be positive")
	ErrEmptyUpdate          = errors.New("manual update sets no fields")
)

// Op names a state machine operation for transition checks.
type Op string

const (
	OpStart   Op = "start"
	OpPause   Op = "pause"
	OpResume  Op = "resume"
	OpAdvance Op = "advance"
	OpReset   Op = "reset"
	OpDraft   Op = "draft"
)

// allowedFrom lists the statuses each operation may run in.
var allowedFrom = map[Op][]models.DraftStatus{
	OpStart:   {models.DraftStatusNotStarted},
	OpPause:   {models.DraftStatusInProgress},
	OpResume:  {models.DraftStatusPaused},
	OpAdvance: {models.DraftStatusInProgress, models.DraftStatusPaused},
	OpReset:   {models.DraftStatusNotStarted, models.DraftStatusInProgress, models.DraftStatusPaused},
	OpDraft:   {models.DraftStatusInProgress, models.DraftStatusPaused},
}

// Selection is the player chosen with the current pick.
type Selection struct {
	PlayerID int    `json:"playerId"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// IsComplete reports whether the cursor has moved past the final round.
func IsComplete(s models.DraftState, p base.LeaguePolicy) bool {
	return s.CurrentRound > p.TotalRounds
}

// Status derives the lifecycle status of a room document.
func Status(s models.DraftState, p base.LeaguePolicy) models.DraftStatus {
	switch {
	case IsComplete(s, p):
		return models.DraftStatusCompleted
	case !s.Started:
		return models.DraftStatusNotStarted
	case s.IsPaused:
		return models.DraftStatusPaused
	default:
		return models.DraftStatusInProgress
	}
}

func validateTransition(op Op, s models.DraftState, p base.LeaguePolicy) error {
	status := Status(s, p)
	if status == models.DraftStatusCompleted && (op == OpAdvance || op == OpDraft) {
		return ErrDraftComplete
	}
	for _, allowed := range allowedFrom[op] {
		if status == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s a draft that is %s", ErrInvalidTransition, op, status)
}

func ptr[T any](v T) *T {
	return &v
}

// Start puts a not-started room on the clock.
func Start(s models.DraftState, p base.LeaguePolicy, now time.Time) (models.DraftStatePatch, error) {
	if err := validateTransition(OpStart, s, p); err != nil {
		return models.DraftStatePatch{}, err
	}
	seconds := s.Seconds
	if seconds <= 0 {
		seconds = p.SecondsForRound(s.CurrentRound)
	}
	return models.DraftStatePatch{
		Started:  ptr(true),
		IsPaused: ptr(false),
		Seconds:  ptr(seconds),
		EndTime:  ptr(clock.ResumeEndTime(seconds, now)),
	}, nil
}

// Advance moves the cursor one pick and restarts the clock with the new
// round's allotment. The paused flag is left as it is, except that the
// advance past the final pick stops the clock.
func Advance(s models.DraftState, p base.LeaguePolicy, now time.Time) (models.DraftStatePatch, error) {
	if err := validateTransition(OpAdvance, s, p); err != nil {
		return models.DraftStatePatch{}, err
	}
	return advance(s, p, now), nil
}

func advance(s models.DraftState, p base.LeaguePolicy, now time.Time) models.DraftStatePatch {
	round, pick, next := s.CurrentRound, s.NextPick, s.NextPick+1
	if s.CurrentPick >= p.PicksPerRound {
		round, pick, next = s.CurrentRound+1, 1, 2
	}
	if round > p.TotalRounds {
		// past the final pick the clock stops for good
		return models.DraftStatePatch{
			CurrentRound: ptr(round),
			CurrentPick:  ptr(pick),
			NextPick:     ptr(next),
			IsPaused:     ptr(true),
			Seconds:      ptr(0),
			EndTime:      ptr(clock.ResumeEndTime(0, now)),
		}
	}
	seconds := p.SecondsForRound(round)
	return models.DraftStatePatch{
		CurrentRound: ptr(round),
		CurrentPick:  ptr(pick),
		NextPick:     ptr(next),
		Seconds:      ptr(seconds),
		EndTime:      ptr(clock.ResumeEndTime(seconds, now)),
	}
}

// Pause freezes the remaining time.
func Pause(s models.DraftState, p base.LeaguePolicy, now time.Time) (models.DraftStatePatch, error) {
	if err := validateTransition(OpPause, s, p); err != nil {
		return models.DraftStatePatch{}, err
	}
	return models.DraftStatePatch{
		IsPaused: ptr(true),
		Seconds:  ptr(clock.Remaining(s, now)),
	}, nil
}

// Resume restarts the clock from the frozen seconds. Time spent paused is
// not charged.
func Resume(s models.DraftState, p base.LeaguePolicy, now time.Time) (models.DraftStatePatch, error) {
	if err := validateTransition(OpResume, s, p); err != nil {
		return models.DraftStatePatch{}, err
	}
	return models.DraftStatePatch{
		IsPaused: ptr(false),
		EndTime:  ptr(clock.ResumeEndTime(s.Seconds, now)),
	}, nil
}

// Reset restores the clock to round's allotment.
func Reset(s models.DraftState, p base.LeaguePolicy, round int, now time.Time) (models.DraftStatePatch, error) {
	if err := validateTransition(OpReset, s, p); err != nil {
		return models.DraftStatePatch{}, err
	}
	if round <= 0 {
		round = s.CurrentRound
	}
	seconds := p.SecondsForRound(round)
	return models.DraftStatePatch{
		Seconds: ptr(seconds),
		EndTime: ptr(clock.ResumeEndTime(seconds, now)),
	}, nil
}

// DraftPlayer fills the pick at the cursor and advances. Only the round
// holding that pick is copied; every other round is shared with s.
func DraftPlayer(s models.DraftState, p base.LeaguePolicy, sel Selection, now time.Time) (models.DraftStatePatch, models.DraftPick, error) {
	if err := validateTransition(OpDraft, s, p); err != nil {
		return models.DraftStatePatch{}, models.DraftPick{}, err
	}
	if sel.PlayerID <= 0 {
		return models.DraftStatePatch{}, models.DraftPick{}, ErrInvalidPlayer
	}

	roundKey, index, found := locate(s.AllDraftPicks, s.CurrentRound, s.CurrentPick)
	if !found {
		return models.DraftStatePatch{}, models.DraftPick{}, fmt.Errorf("%w: round %d pick %d", ErrNoPickAtCursor, s.CurrentRound, s.CurrentPick)
	}
	current := s.AllDraftPicks[roundKey][index]
	if current.IsFilled() {
		return models.DraftStatePatch{}, models.DraftPick{}, fmt.Errorf("%w: pick %d holds player %d", ErrPickAlreadyFilled, current.ID, current.SelectedPlayerID)
	}
	if _, taken := ledger.New(s.AllDraftPicks, p.PicksPerRound).DraftedPlayerIDs()[sel.PlayerID]; taken {
		return models.DraftStatePatch{}, models.DraftPick{}, fmt.Errorf("%w: %d", ErrPlayerAlreadyDrafted, sel.PlayerID)
	}

	filled := current
	filled.SelectedPlayerID = sel.PlayerID
	filled.SelectedPlayerName = sel.Name
	filled.SelectedPlayerPosition = sel.Position

	round := make([]models.DraftPick, len(s.AllDraftPicks[roundKey]))
	copy(round, s.AllDraftPicks[roundKey])
	round[index] = filled

	picks := make(map[int][]models.DraftPick, len(s.AllDraftPicks))
	for k, v := range s.AllDraftPicks {
		picks[k] = v
	}
	picks[roundKey] = round

	patch := advance(s, p, now)
	patch.AllDraftPicks = picks
	patch.RecentlyDraftedPlayerID = ptr(sel.PlayerID)
	return patch, filled, nil
}

func locate(picks map[int][]models.DraftPick, round, pick int) (int, int, bool) {
	if rows, ok := picks[round]; ok {
		for i, p := range rows {
			if p.DraftRound == round && p.DraftNumber == pick {
				return round, i, true
			}
		}
	}
	for key, rows := range picks {
		for i, p := range rows {
			if p.DraftRound == round && p.DraftNumber == pick {
				return key, i, true
			}
		}
	}
	return 0, 0, false
}

// SetExportComplete marks results as exported. It is one-way and allowed
// in every status.
func SetExportComplete() models.DraftStatePatch {
	return models.DraftStatePatch{ExportComplete: ptr(true)}
}

// ManualUpdate passes an admin patch through unvalidated.
func ManualUpdate(patch models.DraftStatePatch) (models.DraftStatePatch, error) {
	if patch.IsEmpty() {
		return models.DraftStatePatch{}, ErrEmptyUpdate
	}
	return patch, nil
}
