package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr       string
	DBPath         string
	RabbitURL      string
	RabbitExchange string
	PaymentSuccess float64
	ServiceEnv     string
}

// Load reads configuration from the environment, with an optional .env file
// (missing .env is fine). RABBIT_URL may be empty: events are then disabled.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:       env("BOOKHUB_HTTP_ADDR", ":8080"),
		DBPath:         env("BOOKHUB_DB_PATH", "./bookhub.db"),
		RabbitURL:      env("RABBIT_URL", ""),
		RabbitExchange: env("RABBIT_EXCHANGE", "domain_events"),
		PaymentSuccess: envFloat("PAYMENT_SUCCESS_RATE", 0.95),
		ServiceEnv:     env("SERVICE_ENV", "dev"),
	}
	log.Info().
		Str("http", cfg.HTTPAddr).
		Str("db", cfg.DBPath).
		Str("env", cfg.ServiceEnv).
		Bool("events", cfg.RabbitURL != "").
		Msg("config loaded")
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
