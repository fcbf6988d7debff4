package middleware

import (
	"KYCCapture/pkg/log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

// redactedFields never reach the request log. Handoff codes are secrets and
// image payloads are both personal data and large.
var redactedFields = []string{
	"password", "token", "secret", "authorization",
	"code", "handoff_code",
	"image", "image_base64", "frame",
}

func (m *middleware) NewLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()

		logFields := log.Fields{
			log.RequestIDKey: m.GetRequestID(c),
			"method":         c.Method(),
			"path":           c.Path(),
			"status":         status,
			"latency_ms":     latency.Milliseconds(),
			"ip":             c.IP(),
			"user_agent":     c.Get(fiber.HeaderUserAgent),
			"response_size":  len(c.Response().Body()),
		}
		if sessionID := c.Params("id"); sessionID != "" {
			logFields[log.SessionIDKey] = sessionID
		}

		if body := c.Request().Body(); len(body) > 0 {
			logFields["request_body"] = sanitizeRequestBody(c.Get(fiber.HeaderContentType), body)
		}

		switch {
		case status >= 500:
			log.Error(logFields, "Server error")
		case status >= 400:
			log.Warn(logFields, "Client error")
		default:
			log.Info(logFields, "Success")
		}

		return err
	}
}

func sanitizeRequestBody(contentType string, body []byte) string {
	if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		return "[non-JSON body]"
	}

	var jsonBody map[string]interface{}
	if err := jsoniter.Unmarshal(body, &jsonBody); err != nil {
		return "[non-JSON body]"
	}

	for _, field := range redactedFields {
		if _, exists := jsonBody[field]; exists {
			jsonBody[field] = "[SECRET]"
		}
	}

	sanitized, err := jsoniter.Marshal(jsonBody)
	if err != nil {
		return "[sanitization-failed]"
	}

	return string(sanitized)
}
