package simapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/clients"
)

func newSimServer(t *testing.T, failTeams bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sfl/draftees", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get(APIKeyHeader))
		w.Write([]byte(`[{"ID":41,"FirstName":"Cole"},{"ID":42,"FirstName":"Dane"}]`))
	})
	mux.HandleFunc("/api/sfl/teams", func(w http.ResponseWriter, r *http.Request) {
		if failTeams {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"ID":3,"TeamName":"Boston","TeamAbbr":"BOS","Needs":["QB","CB"]}]`))
	})
	mux.HandleFunc("/api/sfl/draftpicks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"ID":1,"DraftRound":1,"DraftNumber":1,"TeamID":3}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchBootstrap(t *testing.T) {
	srv := newSimServer(t, false)
	client := NewSimAPIClient(srv.URL, "secret")

	b, err := client.FetchBootstrap(context.Background(), "sfl")
	require.NoError(t, err)
	assert.Len(t, b.Draftees, 2)
	assert.Len(t, b.Picks, 1)
	require.Len(t, b.Teams, 1)
	assert.Equal(t, "BOS", b.Teams[0].Abbreviation)
	assert.Equal(t, []string{"QB", "CB"}, b.Teams[0].Needs)
	assert.Equal(t, "sfl", b.Teams[0].SportID)
}

func TestFetchBootstrapFailsWhole(t *testing.T) {
	srv := newSimServer(t, true)
	client := NewSimAPIClient(srv.URL, "secret")

	_, err := client.FetchBootstrap(context.Background(), "sfl")
	require.Error(t, err)

	var statusErr *clients.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestFetchBootstrapRequiresLeague(t *testing.T) {
	_, err := NewSimAPIClient("", "").FetchBootstrap(context.Background(), "")
	assert.Error(t, err)
}
