package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/clients/simapi"
	"github.com/mcdev12/draftroom/go/internal/docstore"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/outbox"
	"github.com/mcdev12/draftroom/go/internal/draft/pick"
	"github.com/mcdev12/draftroom/go/internal/scouting"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

type Services struct {
	Scouting *scouting.Service
	Picks    *pick.Service
	Gateway  *gateway.Service
	Outbox   *outbox.Listener
}

// Infra holds the connections the services are built on.
type Infra struct {
	Pool  *pgxpool.Pool
	NATS  *nats.Conn
	Store docstore.Store
}

// Close releases every connection. A NATS KV store drains the shared NATS
// connection itself.
func (i *Infra) Close() {
	if i.Store != nil {
		if err := i.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close document store")
		}
	}
	if _, ok := i.Store.(*docstore.NATSKVStore); !ok && i.NATS != nil {
		if err := i.NATS.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
}

func setupNATS(cfg AppConfig) (*nats.Conn, error) {
	url := cfg.NATSURL
	if url == "" {
		if cfg.DocstoreBackend != "nats" {
			return nil, nil
		}
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("draftroom"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	return nc, nil
}

func setupDocstore(ctx context.Context, cfg AppConfig, nc *nats.Conn) (docstore.Store, error) {
	switch cfg.DocstoreBackend {
	case "memory":
		log.Warn().Msg("using in-memory document store; rooms are not shared between processes")
		return docstore.NewMemoryStore(), nil
	case "nats":
		kvCfg := docstore.DefaultNATSKVConfig()
		kvCfg.Bucket = cfg.NATSBucket
		return docstore.NewNATSKVStore(ctx, nc, kvCfg)
	case "redis":
		rdb, err := docstore.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return docstore.NewRedisStore(rdb, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown DOCSTORE_BACKEND %q", cfg.DocstoreBackend)
	}
}

func setupServices(ctx context.Context, cfg AppConfig, infra *Infra, plugin base.SportPlugin) (*Services, error) {
	if cfg.SimAPIBaseURL == "" || cfg.LeagueID == "" {
		return nil, fmt.Errorf("SIMAPI_BASE_URL and LEAGUE_ID are required")
	}

	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	policy := plugin.Policy()
	clk := clockwork.NewRealClock()

	var publisher events.Publisher = events.LogPublisher{}
	if infra.NATS != nil {
		publisher = events.NewNATSPublisher(infra.NATS, cfg.EventPrefix)
	}
	rooms := engine.NewFactory(infra.Store, policy, clk, publisher)

	// Scouting
	scoutingRepo := scouting.NewRepository(infra.Pool)
	scoutingApp := scouting.NewApp(scoutingRepo, policy, rooms)
	scoutingService := scouting.NewService(scoutingApp)

	// Export events go through the outbox so a NATS outage cannot lose them
	outboxRepo := outbox.NewRepository(infra.Pool)
	outboxCfg := outbox.DefaultListenerConfig()
	outboxCfg.DatabaseURL = cfg.Database.DSN()
	outboxListener, err := outbox.NewListener(outboxRepo, publisher, clk, outboxCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start outbox listener: %w", err)
	}

	// Exported picks
	pickRepo := pick.NewRepository(infra.Pool)
	pickApp := pick.NewApp(pickRepo, rooms, policy, clk, outbox.NewPublisher(outboxRepo))
	pickService := pick.NewService(pickApp)

	// Gateway
	source := simapi.NewSimAPIClient(cfg.SimAPIBaseURL, cfg.SimAPIKey)
	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.AdminToken = cfg.AdminToken
	gatewayCfg.JetStreamConfig.SubjectPrefix = cfg.EventPrefix
	if cfg.InstanceID != "" {
		gatewayCfg.JetStreamConfig.InstanceID = cfg.InstanceID
	}
	draftGateway, err := gateway.NewService(ctx, gatewayCfg, gateway.Dependencies{
		Factory:      rooms,
		Bootstrapper: gateway.NewPluginBootstrapper(source, plugin, cfg.LeagueID),
		Clock:        clk,
		NATS:         infra.NATS,
		Scouting:     scouting.NewClient(&http.Client{Timeout: 10 * time.Second}, cfg.ScoutingBaseURL),
	})
	if err != nil {
		_ = outboxListener.Close()
		return nil, fmt.Errorf("failed to create draft gateway: %w", err)
	}

	return &Services{
		Scouting: scoutingService,
		Picks:    pickService,
		Gateway:  draftGateway,
		Outbox:   outboxListener,
	}, nil
}
