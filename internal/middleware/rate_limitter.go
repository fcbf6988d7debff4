package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	bucket    map[string]*rate.Limiter
	rate      rate.Limit
	burstSize int
	mutex     *sync.Mutex
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		bucket:    make(map[string]*rate.Limiter),
		rate:      reqRate,
		burstSize: burstSize,
		mutex:     &sync.Mutex{},
	}
}

func (r *rateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	limiter, exist := r.bucket[ip]
	if !exist {
		limiter = rate.NewLimiter(r.rate, r.burstSize)
		r.bucket[ip] = limiter
	}

	return limiter
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"ip":         clientIP,
			"path":       ctx.Path(),
		}).Warn("Too many requests")
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many requests",
			"code":  "TOO_MANY_REQUESTS",
		})
	}

	return ctx.Next()
}
