package livenessHandler

import (
	"KYCCapture/internal/api/liveness"
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/facezone"
	"KYCCapture/pkg/handlerUtil"
	"KYCCapture/pkg/log"
	"KYCCapture/pkg/response"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsFrameTimeout = 10 * time.Second
)

type wsError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// upgradeWebSocket admits the capture device holding the session's handoff
// code, passed as the "code" query parameter.
func (h *LivenessHandler) upgradeWebSocket(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	if err := h.livenessService.VerifyHandoffCode(c, ctx.Params("id"), ctx.Query("code")); err != nil {
		return handlerUtil.New(h.log).Handle(ctx, requestID, err, ctx.Path(), "upgrade_websocket")
	}

	return ctx.Next()
}

func (h *LivenessHandler) handleWebSocket(conn *websocket.Conn) {
	sessionID := conn.Params("id")
	requestID, _ := conn.Locals(contextPkg.HeaderRequestID).(string)
	baseCtx := contextPkg.WithSessionID(contextPkg.WithRequestID(context.Background(), requestID), sessionID)

	entry := log.WithRequestID(baseCtx)
	entry.Info("Liveness WebSocket client connected")
	defer entry.Info("Liveness WebSocket client disconnected")

	conn.SetPingHandler(func(data string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			entry.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			entry.Errorf("Error setting read deadline: %v", err)
			return
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				entry.Errorf("Liveness WebSocket error: %v", err)
			}
			return
		}

		var (
			fb     facezone.Feedback
			change *facezone.ZoneChange
		)

		switch messageType {
		case websocket.TextMessage:
			var req liveness.PositionRequest
			if err = jsoniter.Unmarshal(message, &req); err == nil {
				err = h.validator.Struct(req)
			}
			if err != nil {
				if !h.writeWS(conn, wsError{Error: "invalid position sample", Status: fiber.StatusBadRequest}) {
					return
				}
				continue
			}
			fb, change, err = h.livenessService.ProcessPosition(baseCtx, sessionID, req.Sample())

		case websocket.BinaryMessage:
			frameCtx, cancel := context.WithTimeout(baseCtx, wsFrameTimeout)
			fb, change, err = h.livenessService.ProcessFrame(frameCtx, sessionID, message)
			cancel()

		default:
			entry.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err != nil {
			entry.WithField("error", err.Error()).Warn("Failed to process liveness sample")
			if !h.writeWS(conn, wsError{Error: err.Error(), Status: response.StatusOf(err)}) {
				return
			}
			if errors.Is(err, liveness.ErrSessionClosed) || errors.Is(err, liveness.ErrSessionNotFound) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()),
					time.Now().Add(wsWriteTimeout))
				return
			}
			continue
		}

		if !h.writeWS(conn, liveness.NewFeedbackResponse(fb, change)) {
			return
		}
	}
}

func (h *LivenessHandler) writeWS(conn *websocket.Conn, payload interface{}) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		h.log.Errorf("Error setting write deadline: %v", err)
		return false
	}

	if err := conn.WriteJSON(payload); err != nil {
		h.log.Errorf("Error writing JSON response: %v", err)
		return false
	}

	return true
}
