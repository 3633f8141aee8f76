package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Protege el backend contra abuso y ataques DDoS
// Implementa diferentes niveles según criticidad del endpoint

// GlobalRateLimiter - Limitador general para todos los endpoints
// 1000 requests por minuto por IP (producción moderada)
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many requests. Please try again in 1 minute.",
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// BookingRateLimiter - Limitador para el endpoint de compra
// 30 requests por minuto por IP + endpoint (protege el lock del tren)
func BookingRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Rate limit por IP + endpoint para mejor granularidad
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Booking rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many purchase attempts. Please try again in 1 minute.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// SearchRateLimiter - Limitador para búsquedas de conexiones
// 200 requests por minuto (balance entre usabilidad y protección)
func SearchRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Search rate limit exceeded",
				"retry_after": 60,
				"limit":       200,
				"window":      "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// ImportRateLimiter - Para la importación masiva de la malla
// 5 requests cada 5 minutos
func ImportRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 5 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Import rate limit exceeded",
				"retry_after": 300,
				"message":     "This operation is rate-limited to 5 requests per 5 minutes.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
