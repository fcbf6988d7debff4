package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type key string

const (
	RequestIDKey key = "request_id"
	SessionIDKey key = "session_id"
)

// HeaderRequestID is the header and fiber local the request id travels in.
const HeaderRequestID = "X-Request-ID"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := context.Background()

	requestID, ok := c.Locals(HeaderRequestID).(string)
	if !ok || requestID == "" {
		requestID = c.Get(HeaderRequestID)

		if requestID == "" {
			requestID = "unknown"
		}
	}

	ctx = WithRequestID(ctx, requestID)
	if sessionID := c.Params("id"); sessionID != "" {
		ctx = WithSessionID(ctx, sessionID)
	}

	return ctx
}
