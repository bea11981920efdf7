// Package simapi reads draft bootstrap data from the league simulation API.
package simapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/draftroom/go/clients"
	"github.com/mcdev12/draftroom/go/internal/models"
)

type SimAPIClient struct {
	*clients.BaseClient
}

// NewSimAPIClient returns a client for baseURL. apiKey may be empty.
func NewSimAPIClient(baseURL, apiKey string) *SimAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &SimAPIClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}
	return client
}

// Team is a franchise row as the simulation API serves it.
type Team struct {
	ID       int      `json:"ID"`
	TeamName string   `json:"TeamName"`
	TeamAbbr string   `json:"TeamAbbr"`
	Needs    []string `json:"Needs"`
}

// Bootstrap is everything a draft room needs before it opens. Draftees and
// picks stay in their sport-native shape for the plugin to map.
type Bootstrap struct {
	LeagueID string
	Draftees []json.RawMessage
	Teams    []models.Team
	Picks    []json.RawMessage
}

func leaguePath(leagueID, endpoint string) string {
	return "/api/" + url.PathEscape(leagueID) + endpoint
}

// FetchBootstrap loads draftees, teams and the pick ledger for leagueID.
// Any failed request fails the whole bootstrap.
func (c *SimAPIClient) FetchBootstrap(ctx context.Context, leagueID string) (*Bootstrap, error) {
	if leagueID == "" {
		return nil, fmt.Errorf("league id is required")
	}

	var (
		draftees []json.RawMessage
		teams    []Team
		picks    []json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.GetJSON(gctx, leaguePath(leagueID, DrafteesEndpoint), nil, &draftees); err != nil {
			return fmt.Errorf("failed to fetch draftees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.GetJSON(gctx, leaguePath(leagueID, TeamsEndpoint), nil, &teams); err != nil {
			return fmt.Errorf("failed to fetch teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.GetJSON(gctx, leaguePath(leagueID, DraftPicksEndpoint), nil, &picks); err != nil {
			return fmt.Errorf("failed to fetch draft picks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Bootstrap{
		LeagueID: leagueID,
		Draftees: draftees,
		Teams:    make([]models.Team, 0, len(teams)),
		Picks:    picks,
	}
	for _, t := range teams {
		out.Teams = append(out.Teams, models.Team{
			ID:           t.ID,
			SportID:      leagueID,
			Name:         t.TeamName,
			Abbreviation: t.TeamAbbr,
			Needs:        t.Needs,
		})
	}
	return out, nil
}
