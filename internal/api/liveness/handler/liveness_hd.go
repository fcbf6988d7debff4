package livenessHandler

import (
	"KYCCapture/internal/api/liveness"
	"KYCCapture/internal/entity"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/handlerUtil"
	jwtPkg "KYCCapture/pkg/jwt"
	"KYCCapture/pkg/log"
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *LivenessHandler) CreateSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create liveness session request")

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req liveness.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	session, code, err := h.livenessService.CreateSession(c, userData.ID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, liveness.CreateSessionResponse{
			Session:     liveness.NewSessionResponse(session),
			HandoffCode: code,
		})
	}
}

func (h *LivenessHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := h.authorize(ctx, c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, liveness.NewSessionResponse(session))
	}
}

func (h *LivenessHandler) UpdateTolerance(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req liveness.UpdateToleranceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if _, err := h.authorize(ctx, c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_tolerance")
	}

	session, err := h.livenessService.UpdateTolerance(c, ctx.Params("id"), req.Tolerance)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_tolerance")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, liveness.NewSessionResponse(session))
	}
}

func (h *LivenessHandler) ClaimSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req liveness.ClaimSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	session, err := h.livenessService.ClaimSession(c, ctx.Params("id"), req.Code)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "claim_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, liveness.NewSessionResponse(session))
	}
}

func (h *LivenessHandler) ProcessPosition(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req liveness.PositionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if _, err := h.authorize(ctx, c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_position")
	}

	fb, change, err := h.livenessService.ProcessPosition(c, ctx.Params("id"), req.Sample())
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_position")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, liveness.NewFeedbackResponse(fb, change))
	}
}

// ProcessFrame accepts the raw frame as the request body or as a "frame"
// multipart field.
func (h *LivenessHandler) ProcessFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.authorize(ctx, c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_frame")
	}

	frame := ctx.Body()
	if file, err := ctx.FormFile("frame"); err == nil {
		src, err := file.Open()
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
		}
		defer src.Close()

		frame, err = io.ReadAll(src)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_frame")
		}
	}

	fb, change, err := h.livenessService.ProcessFrame(c, ctx.Params("id"), frame)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, liveness.NewFeedbackResponse(fb, change))
	}
}

func (h *LivenessHandler) ListEvents(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.authorize(ctx, c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_events")
	}

	events, err := h.livenessService.ListEvents(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_events")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"events": liveness.NewEventResponses(events),
		})
	}
}

func (h *LivenessHandler) EndSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if _, err := h.authorize(ctx, c); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "end_session")
	}

	if err := h.livenessService.EndSession(c, ctx.Params("id")); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "end_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
	}
}

// authorize loads the session in the path and checks it belongs to the
// caller's token.
func (h *LivenessHandler) authorize(ctx *fiber.Ctx, c context.Context) (entity.LivenessSession, error) {
	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return entity.LivenessSession{}, liveness.ErrSessionNotOwned
	}

	return h.livenessService.AuthorizeSession(c, ctx.Params("id"), userData.ID)
}
