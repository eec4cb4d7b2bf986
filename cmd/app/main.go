package main

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env files - .env.local takes priority for development
	godotenv.Load(".env.local", ".env")

	logger := setupLogging()

	// Initialise Sentry for error tracking when a DSN is configured
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: getEnvWithDefault("APP_ENV", "development"),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("Crawl failed")
		os.Exit(1)
	}
}

// setupLogging configures the logging system
func setupLogging() zerolog.Logger {
	level, err := zerolog.ParseLevel(getEnvWithDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Use console writer in development, JSON elsewhere
	if getEnvWithDefault("APP_ENV", "development") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Str("service", "carpenter-bee").
			Logger()
	}

	return log.Logger
}

// getEnvWithDefault gets an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
