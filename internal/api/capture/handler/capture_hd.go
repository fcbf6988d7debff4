package captureHandler

import (
	"KYCCapture/internal/api/capture"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/handlerUtil"
	jwtPkg "KYCCapture/pkg/jwt"
	"KYCCapture/pkg/log"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *CaptureHandler) UploadImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"kind":       ctx.Params("kind"),
	}).Debug("Processing capture image upload")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, capture.ErrInvalidImage, ctx.Path(), "read_form_file")
	}

	image, err := h.captureService.UploadImage(c, ctx.Params("id"), userData.ID, ctx.Params("kind"), file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "upload_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, capture.NewImageResponse(image, ""))
	}
}

func (h *CaptureHandler) GetBundle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	bundle, err := h.captureService.GetBundle(c, ctx.Params("id"), userData.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_bundle")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, bundle)
	}
}

func (h *CaptureHandler) ImageBase64(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	res, err := h.captureService.ImageBase64(c, ctx.Params("id"), userData.ID, ctx.Params("kind"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "image_base64")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
