package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/pick"
	"github.com/mcdev12/draftroom/go/internal/scouting"
)

func setupServer(cfg AppConfig, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*", gateway.AdminTokenHeader},
	})

	// Register services
	registerServices(mux, services)

	// Add health check endpoint
	setupHealthCheck(mux, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Register scouting service
	scoutingServicePath, scoutingServiceHandler := scouting.NewScoutingServiceHandler(services.Scouting)
	mux.Handle(scoutingServicePath, scoutingServiceHandler)

	// Register draft pick service
	pickServicePath, pickServiceHandler := pick.NewDraftPickServiceHandler(services.Picks)
	mux.Handle(pickServicePath, pickServiceHandler)

	// Register draft room gateway
	services.Gateway.RegisterRoutes(mux)
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		health := map[string]any{
			"gateway": services.Gateway.GetStats(r.Context()),
			"outbox":  services.Outbox.Stats(),
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
