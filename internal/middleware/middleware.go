package middleware

import (
	contextPkg "KYCCapture/pkg/context"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewTokenMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	rateLimitter        *rateLimiter
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

// New reads RATE_LIMIT_RPS and RATE_LIMIT_BURST, defaulting to 50 and 100.
// Frame streaming over HTTP is bursty, so the burst is kept generous.
func New(logger *logrus.Logger) Middleware {
	rps := envInt("RATE_LIMIT_RPS", 50)
	burst := envInt("RATE_LIMIT_BURST", 100)

	return &middleware{
		rateLimitter:        newRateLimiter(rate.Limit(rps), burst),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(contextPkg.HeaderRequestID).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
