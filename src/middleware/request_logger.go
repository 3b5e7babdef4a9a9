package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID tags every request with an id, reusing the caller's
// X-Request-ID when present, and echoes it on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Locals(requestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func RequestIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func RequestLogger(enabled bool) fiber.Handler {
	logLevel := zerolog.GlobalLevel()
	shouldLog := enabled && logLevel <= zerolog.InfoLevel

	return func(c *fiber.Ctx) error {
		var start time.Time
		if shouldLog {
			start = time.Now()
		}

		err := c.Next()

		if shouldLog {
			latency := time.Since(start)
			log.Info().
				Str("request_id", RequestIDFrom(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Int("status", c.Response().StatusCode()).
				Int64("latency_us", latency.Microseconds()).
				Int("bytes_in", len(c.Body())).
				Int("bytes_out", len(c.Response().Body())).
				Msg("HTTP request")
		}

		return err
	}
}
