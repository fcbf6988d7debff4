package handlerUtil

import (
	"KYCCapture/internal/api/capture"
	"KYCCapture/internal/api/liveness"
	"KYCCapture/pkg/log"
	"KYCCapture/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// errorCodes gives clients a stable identifier for each domain error.
var errorCodes = []struct {
	err  error
	code string
}{
	{liveness.ErrSessionNotFound, "SESSION_NOT_FOUND"},
	{liveness.ErrSessionClosed, "SESSION_CLOSED"},
	{liveness.ErrSessionNotOwned, "SESSION_NOT_OWNED"},
	{liveness.ErrSessionAlreadyClaimed, "SESSION_ALREADY_CLAIMED"},
	{liveness.ErrInvalidHandoffCode, "INVALID_HANDOFF_CODE"},
	{liveness.ErrInvalidTolerance, "INVALID_TOLERANCE"},
	{liveness.ErrInvalidAxis, "INVALID_AXIS"},
	{liveness.ErrEmptyFrame, "EMPTY_FRAME"},
	{liveness.ErrFaceEngineUnavailable, "FACE_ENGINE_UNAVAILABLE"},
	{capture.ErrInvalidImageKind, "INVALID_IMAGE_KIND"},
	{capture.ErrInvalidImage, "INVALID_IMAGE"},
	{capture.ErrImageTooLarge, "IMAGE_TOO_LARGE"},
	{capture.ErrFaceNotCentered, "FACE_NOT_CENTERED"},
	{capture.ErrImageNotFound, "IMAGE_NOT_FOUND"},
	{capture.ErrUploadFailed, "UPLOAD_FAILED"},
}

func codeOf(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ""
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields := log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}
		if respErr.Code >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("Operation failed with error response")
		} else {
			h.logger.WithFields(fields).Warn("Operation failed with error response")
		}

		return c.Status(respErr.Code).JSON(ErrorResponse{
			Error: respErr.Error(),
			Code:  codeOf(err),
		})
	}

	traceID := log.ErrorWithTraceID(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}, "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
