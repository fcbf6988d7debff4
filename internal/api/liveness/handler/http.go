package livenessHandler

import (
	livenessService "KYCCapture/internal/api/liveness/service"
	"KYCCapture/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type LivenessHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	livenessService livenessService.ILivenessService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ls livenessService.ILivenessService,
) *LivenessHandler {
	return &LivenessHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		livenessService: ls,
	}
}

func (h *LivenessHandler) Start(srv fiber.Router) {
	live := srv.Group("/liveness")

	live.Post("/sessions", h.middleware.NewTokenMiddleware, h.CreateSession)
	live.Get("/sessions/:id", h.middleware.NewTokenMiddleware, h.GetSession)
	live.Patch("/sessions/:id/tolerance", h.middleware.NewTokenMiddleware, h.UpdateTolerance)
	live.Post("/sessions/:id/claim", h.middleware.NewRateLimiter, h.ClaimSession)
	live.Post("/sessions/:id/positions", h.middleware.NewTokenMiddleware, h.ProcessPosition)
	live.Post("/sessions/:id/frames", h.middleware.NewTokenMiddleware, h.ProcessFrame)
	live.Get("/sessions/:id/events", h.middleware.NewTokenMiddleware, h.ListEvents)
	live.Delete("/sessions/:id", h.middleware.NewTokenMiddleware, h.EndSession)
	live.Get("/sessions/:id/ws", h.middleware.NewRateLimiter, h.upgradeWebSocket, websocket.New(h.handleWebSocket))
}
