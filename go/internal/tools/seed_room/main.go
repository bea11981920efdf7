// Command seed_room creates a draft room document ahead of the draft so the
// gateway finds it already initialized.
//
//	go run ./go/internal/tools/seed_room -league sfl -backend redis
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nats-io/nats.go"

	"github.com/mcdev12/draftroom/go/clients/simapi"
	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/ledger"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
	_ "github.com/mcdev12/draftroom/go/internal/sports/nfl"
	_ "github.com/mcdev12/draftroom/go/internal/sports/phl"
)

// room ids avoid look-alike characters so they can be read out loud
const idAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

type options struct {
	draftID  string
	league   string
	sport    string
	backend  string
	generate bool
	force    bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.draftID, "draft-id", "", "room id (generated when empty)")
	flag.StringVar(&opts.league, "league", os.Getenv("LEAGUE_ID"), "simulation league id")
	flag.StringVar(&opts.sport, "sport", envOr("SPORT", "nfl"), "sport plugin key")
	flag.StringVar(&opts.backend, "backend", envOr("DOCSTORE_BACKEND", "nats"), "document store: nats or redis")
	flag.BoolVar(&opts.generate, "generate", false, "build a fresh ledger from the team order instead of loading the league's picks")
	flag.BoolVar(&opts.force, "force", false, "overwrite a room that already exists")
	flag.Parse()

	if opts.league == "" {
		fmt.Fprintln(os.Stderr, "league is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	id, err := seed(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(id)
}

func seed(ctx context.Context, opts options) (string, error) {
	if err := base.InitializePlugin(opts.sport, base.PolicyOverrides{}); err != nil {
		return "", err
	}
	plugin, err := base.GetPlugin(opts.sport)
	if err != nil {
		return "", err
	}
	policy := plugin.Policy()

	if opts.draftID == "" {
		if opts.draftID, err = gonanoid.Generate(idAlphabet, 10); err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}
	}

	source := simapi.NewSimAPIClient(os.Getenv("SIMAPI_BASE_URL"), os.Getenv("SIMAPI_API_KEY"))
	picks, err := loadPicks(ctx, opts, source, plugin)
	if err != nil {
		return "", err
	}

	store, err := openStore(ctx, opts.backend)
	if err != nil {
		return "", err
	}
	defer store.Close()

	if !opts.force {
		_, err := store.Get(ctx, engine.RoomKey(opts.draftID))
		if err == nil {
			return "", fmt.Errorf("room %s already exists, pass -force to overwrite it", opts.draftID)
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return "", fmt.Errorf("failed to check room %s: %w", opts.draftID, err)
		}
	}

	eng := engine.New(store, engine.RoomKey(opts.draftID), policy, clockwork.NewRealClock(), nil)
	state, err := eng.Initialize(ctx, picks)
	if err != nil {
		return "", fmt.Errorf("failed to initialize room %s: %w", opts.draftID, err)
	}
	fmt.Fprintf(os.Stderr, "room %s: %d picks over %d rounds, %ds on the clock\n",
		opts.draftID, ledger.New(state.AllDraftPicks, policy.PicksPerRound).TotalPicks(), policy.TotalRounds, state.Seconds)
	return opts.draftID, nil
}

func loadPicks(ctx context.Context, opts options, source *simapi.SimAPIClient, plugin base.SportPlugin) (map[int][]models.DraftPick, error) {
	if opts.generate {
		raw, err := source.FetchBootstrap(ctx, opts.league)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch teams: %w", err)
		}
		return ledger.Generate(raw.Teams, plugin.Policy().TotalRounds)
	}
	data, err := gateway.NewPluginBootstrapper(source, plugin, opts.league).Bootstrap(ctx, opts.draftID)
	if err != nil {
		return nil, err
	}
	return data.Picks, nil
}

func openStore(ctx context.Context, backend string) (docstore.Store, error) {
	switch strings.ToLower(backend) {
	case "nats":
		nc, err := nats.Connect(envOr("NATS_URL", nats.DefaultURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		cfg := docstore.DefaultNATSKVConfig()
		if bucket := os.Getenv("NATS_KV_BUCKET"); bucket != "" {
			cfg.Bucket = bucket
		}
		store, err := docstore.NewNATSKVStore(ctx, nc, cfg)
		if err != nil {
			nc.Close()
			return nil, err
		}
		return store, nil
	case "redis":
		rdb, err := docstore.ConnectRedis(ctx, envOr("REDIS_ADDR", "localhost:6379"), 0)
		if err != nil {
			return nil, err
		}
		return docstore.NewRedisStore(rdb, envOr("REDIS_PREFIX", "draftroom")), nil
	default:
		return nil, fmt.Errorf("backend %q cannot hold a seeded room", backend)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
