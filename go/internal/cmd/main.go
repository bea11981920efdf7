package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	// Sport plugins register themselves
	_ "github.com/mcdev12/draftroom/go/internal/sports/nfl"
	_ "github.com/mcdev12/draftroom/go/internal/sports/phl"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := loadAppConfig()
	setupLogging(cfg.LogLevel)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("draftroom exited")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	config, err := loadConfig(cfg.ConfigPath)
	if err != nil {
		return err
	}
	plugin, err := setupSportsPlugin(config, cfg.Sport)
	if err != nil {
		return err
	}

	infra := &Infra{}
	defer infra.Close()

	if infra.Pool, err = setupDatabase(ctx, cfg.Database); err != nil {
		return err
	}
	if infra.NATS, err = setupNATS(cfg); err != nil {
		return err
	}
	if infra.Store, err = setupDocstore(ctx, cfg, infra.NATS); err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}

	services, err := setupServices(ctx, cfg, infra, plugin)
	if err != nil {
		return err
	}
	server := setupServer(cfg, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return services.Gateway.Start(gctx)
	})
	g.Go(func() error {
		return services.Outbox.Start(gctx)
	})
	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("sport", plugin.Policy().Key).
			Str("docstore", cfg.DocstoreBackend).
			Msg("draftroom server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
