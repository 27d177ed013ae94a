package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pragyanetra/console/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger based on configuration
func Setup(cfg *config.LoggingConfig, env string) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer
	if cfg.Format == "json" || env == "production" {
		output = os.Stdout
	} else {
		// Pretty console output for development
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", "pragyanetra-console").
		Logger()
}

// NewLogger creates a new logger with additional context
func NewLogger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// RequestLogger is a Gin middleware for structured request logging
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get("request_id")

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		} else if c.Writer.Status() >= 400 {
			event = log.Warn()
		}

		id, _ := requestID.(string)
		event.
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", raw).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// LogPayment logs a confirmed or failed on-chain payment
func LogPayment(providerID, txHash, intent, status, amount string) {
	log.Info().
		Str("provider_id", providerID).
		Str("tx_hash", txHash).
		Str("intent", intent).
		Str("status", status).
		Str("amount_flow", amount).
		Msg("Payment event")
}

// LogWorkflow logs a workflow stage transition
func LogWorkflow(workflow, stage, providerID string) {
	log.Info().
		Str("workflow", workflow).
		Str("stage", stage).
		Str("provider_id", providerID).
		Msg("Workflow stage")
}

// LogError logs an error with context
func LogError(err error, component, operation string) {
	log.Error().
		Err(err).
		Str("component", component).
		Str("operation", operation).
		Msg("Error occurred")
}
