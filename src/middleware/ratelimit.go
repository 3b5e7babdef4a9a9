package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"lob-engine/src/config"
)

type clientWindow struct {
	number int64
	count  int
}

// RateLimiter is a fixed-window counter per client address. Each client
// keeps only its current window.
type RateLimiter struct {
	maxRequests    int
	windowDuration time.Duration
	windows        map[string]clientWindow
	now            func() time.Time
	mu             sync.Mutex
}

func NewRateLimiter(maxRequests int, windowDuration time.Duration) *RateLimiter {
	// edge case: windows are numbered in whole seconds
	if windowDuration < time.Second {
		windowDuration = time.Second
	}
	return &RateLimiter{
		maxRequests:    maxRequests,
		windowDuration: windowDuration,
		windows:        make(map[string]clientWindow),
		now:            time.Now,
	}
}

func NewRateLimiterFromConfig(cfg config.RateLimitConfig) *RateLimiter {
	return NewRateLimiter(cfg.MaxRequests, cfg.Window)
}

func clientID(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}

// Allow counts one request for client and reports whether it fits in the
// client's current window.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	number := rl.now().Unix() / int64(rl.windowDuration/time.Second)

	w := rl.windows[client]
	if w.number != number {
		w = clientWindow{number: number}
	}
	if w.count >= rl.maxRequests {
		return false
	}
	w.count++
	rl.windows[client] = w
	return true
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	limit := strconv.Itoa(rl.maxRequests)
	window := rl.windowDuration.String()

	return func(c *fiber.Ctx) error {
		client := clientID(c)

		if !rl.Allow(client) {
			log.Warn().
				Str("request_id", RequestIDFrom(c)).
				Str("client_ip", client).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Int("max_requests", rl.maxRequests).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Limit", limit)
		c.Set("X-RateLimit-Window", window)
		return c.Next()
	}
}
