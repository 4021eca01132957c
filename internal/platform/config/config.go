package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	BusBrokers  []string

	DefaultRequiredConfirmations int
	ConsensusProcessingDelay     time.Duration
	WorkerPollInterval           time.Duration
	VoteStatusCacheTTL           time.Duration
	ElectionStatusCacheTTL       time.Duration

	EnableVoteCastConsumer bool
	EnableConsensusSweeper bool
	EnableOutboxRelay      bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "electra"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("BUS_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		BusBrokers:  brokers,

		DefaultRequiredConfirmations: envInt("DEFAULT_REQUIRED_CONFIRMATIONS", 3),
		ConsensusProcessingDelay:     envDuration("CONSENSUS_PROCESSING_DELAY", 2*time.Second),
		WorkerPollInterval:           envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		VoteStatusCacheTTL:           envDuration("VOTE_STATUS_CACHE_TTL", 30*time.Second),
		ElectionStatusCacheTTL:       envDuration("ELECTION_STATUS_CACHE_TTL", 15*time.Second),

		EnableVoteCastConsumer: envBool("ENABLE_VOTE_CAST_CONSUMER", true),
		EnableConsensusSweeper: envBool("ENABLE_CONSENSUS_SWEEPER", true),
		EnableOutboxRelay:      envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
