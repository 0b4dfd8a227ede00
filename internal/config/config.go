package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the relay needs from the environment.
type Config struct {
	ListenAddr string

	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string

	// BrokerURL is the transport address the proxies connect to; it is passed
	// through in every proxy payload.
	BrokerURL string
	// ProducerURL handles /send_message, ConsumerURL handles /connect and
	// /disconnect (the proxy runs as two services).
	ProducerURL string
	ConsumerURL string
	// CallbackBase is this API's inbound endpoint prefix; the conversation id
	// is appended as a path segment.
	CallbackBase string

	JWTSecret string
	TokenTTL  time.Duration

	// CallTimeout bounds every broker-proxy call.
	CallTimeout time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// Load reads all env vars and builds the config.
func Load() *Config {
	return &Config{
		ListenAddr: getEnv("RELAY_ADDR", ":5000"),

		DatabaseDSN:   getEnv("DATABASE_URL", "host=localhost user=user password=password dbname=chatrelaydb port=5432 sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		BrokerURL:    getEnv("BROKER_URL", "tcp://localhost:61616"),
		ProducerURL:  getEnv("BROKER_PRODUCER_URL", "http://localhost:8080"),
		ConsumerURL:  getEnv("BROKER_CONSUMER_URL", "http://localhost:8081"),
		CallbackBase: getEnv("CALLBACK_BASE_URL", "http://localhost:5000/messages"),

		JWTSecret: getEnv("JWT_SECRET", "dev-only-secret-change-me"),
		TokenTTL:  getDurationEnv("TOKEN_TTL", 72*time.Hour),

		CallTimeout: getDurationEnv("BROKER_CALL_TIMEOUT", 10*time.Second),
	}
}
