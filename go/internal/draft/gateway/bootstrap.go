package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/clients/simapi"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// RoomData is the reference data a room loads once when it opens.
type RoomData struct {
	Draftees []models.Draftee
	Teams    []models.Team
	Picks    map[int][]models.DraftPick
}

// Bootstrapper loads the reference data for a room.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, draftID string) (*RoomData, error)
}

// BootstrapSource fetches raw league records.
type BootstrapSource interface {
	FetchBootstrap(ctx context.Context, leagueID string) (*simapi.Bootstrap, error)
}

// PluginBootstrapper fetches league records and maps them with the sport plugin.
type PluginBootstrapper struct {
	source   BootstrapSource
	plugin   base.SportPlugin
	leagueID string
}

func NewPluginBootstrapper(source BootstrapSource, plugin base.SportPlugin, leagueID string) *PluginBootstrapper {
	return &PluginBootstrapper{source: source, plugin: plugin, leagueID: leagueID}
}

// Bootstrap fetches and maps every record. A single unmappable record or
// an inconsistent ledger fails the bootstrap.
func (b *PluginBootstrapper) Bootstrap(ctx context.Context, draftID string) (*RoomData, error) {
	raw, err := b.source.FetchBootstrap(ctx, b.leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	data := &RoomData{
		Draftees: make([]models.Draftee, 0, len(raw.Draftees)),
		Teams:    raw.Teams,
	}
	for _, rec := range raw.Draftees {
		d, err := b.plugin.MapDraftee(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to map draftee: %w", err)
		}
		data.Draftees = append(data.Draftees, *d)
	}

	rows := make([]models.DraftPick, 0, len(raw.Picks))
	for _, rec := range raw.Picks {
		p, err := b.plugin.MapDraftPick(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to map draft pick: %w", err)
		}
		rows = append(rows, *p)
	}
	data.Picks = ledger.Group(rows)
	if err := ledger.Validate(data.Picks, b.plugin.Policy().PicksPerRound); err != nil {
		return nil, fmt.Errorf("invalid pick ledger: %w", err)
	}

	log.Info().
		Str("draft_id", draftID).
		Str("league_id", b.leagueID).
		Int("draftees", len(data.Draftees)).
		Int("teams", len(data.Teams)).
		Int("picks", len(rows)).
		Msg("room bootstrap loaded")
	return data, nil
}

// StaticBootstrapper serves the same data to every room.
type StaticBootstrapper struct {
	Data *RoomData
	Err  error
}

func (s StaticBootstrapper) Bootstrap(ctx context.Context, draftID string) (*RoomData, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Data, nil
}
