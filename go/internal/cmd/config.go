package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/sports/base"
)

// Config is the YAML file: sport plugins and their policy overrides.
type Config struct {
	Sports struct {
		Active         string                          `yaml:"active"`
		EnabledPlugins []string                        `yaml:"enabled_plugins"`
		Plugins        map[string]base.PolicyOverrides `yaml:"plugins"`
	} `yaml:"sports"`
}

// AppConfig is everything read from the environment.
type AppConfig struct {
	ConfigPath      string
	Port            string
	LogLevel        string
	Sport           string
	DocstoreBackend string
	NATSURL         string
	NATSBucket      string
	RedisAddr       string
	RedisDB         int
	RedisPrefix     string
	EventPrefix     string
	SimAPIBaseURL   string
	SimAPIKey       string
	LeagueID        string
	ScoutingBaseURL string
	AdminToken      string
	InstanceID      string
	Database        dbconfig.Config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadAppConfig() AppConfig {
	port := getEnv("PORT", "8080")
	return AppConfig{
		ConfigPath:      getEnv("CONFIG_PATH", "go/config.yaml"),
		Port:            port,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Sport:           getEnv("SPORT", ""),
		DocstoreBackend: strings.ToLower(getEnv("DOCSTORE_BACKEND", "memory")),
		NATSURL:         getEnv("NATS_URL", ""),
		NATSBucket:      getEnv("NATS_KV_BUCKET", "draft_rooms"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:     getEnv("REDIS_PREFIX", "draftroom"),
		EventPrefix:     getEnv("EVENT_SUBJECT_PREFIX", "draftroom"),
		SimAPIBaseURL:   getEnv("SIMAPI_BASE_URL", ""),
		SimAPIKey:       getEnv("SIMAPI_API_KEY", ""),
		LeagueID:        getEnv("LEAGUE_ID", ""),
		ScoutingBaseURL: getEnv("SCOUTING_BASE_URL", "http://localhost:"+port),
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
		InstanceID:      getEnv("GATEWAY_INSTANCE_ID", ""),
		Database:        dbconfig.NewConfigFromEnv(),
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// setupSportsPlugin initializes every enabled plugin and returns the one
// this process drafts with. SPORT overrides sports.active.
func setupSportsPlugin(config *Config, sport string) (base.SportPlugin, error) {
	if sport == "" {
		sport = config.Sports.Active
	}
	if sport == "" && len(config.Sports.EnabledPlugins) == 1 {
		sport = config.Sports.EnabledPlugins[0]
	}
	if sport == "" {
		return nil, fmt.Errorf("no active sport configured")
	}

	var active base.SportPlugin
	for _, key := range config.Sports.EnabledPlugins {
		if err := base.InitializePlugin(key, config.Sports.Plugins[key]); err != nil {
			return nil, fmt.Errorf("failed to initialize plugin %s: %w", key, err)
		}

		plg, err := base.GetPlugin(key)
		if err != nil {
			return nil, fmt.Errorf("failed to get plugin %s: %w", key, err)
		}

		log.Info().Str("plugin", key).Msg("initialized sport plugin")
		if key == sport {
			active = plg
		}
	}
	if active == nil {
		return nil, fmt.Errorf("sport %q is not an enabled plugin", sport)
	}
	return active, nil
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
