package captureHandler

import (
	captureService "KYCCapture/internal/api/capture/service"
	"KYCCapture/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CaptureHandler struct {
	log            *logrus.Logger
	middleware     middleware.Middleware
	captureService captureService.ICaptureService
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	cs captureService.ICaptureService,
) *CaptureHandler {
	return &CaptureHandler{
		log:            log,
		middleware:     middleware,
		captureService: cs,
	}
}

func (h *CaptureHandler) Start(srv fiber.Router) {
	sessions := srv.Group("/capture/sessions")

	sessions.Post("/:id/images/:kind", h.middleware.NewTokenMiddleware, h.UploadImage)
	sessions.Get("/:id/bundle", h.middleware.NewTokenMiddleware, h.GetBundle)
	sessions.Get("/:id/images/:kind/base64", h.middleware.NewTokenMiddleware, h.ImageBase64)
}
