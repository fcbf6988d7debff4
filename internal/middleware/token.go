package middleware

import (
	jwtPkg "KYCCapture/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, jwtPkg.AccessTokenSecret)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	user, err := jwtPkg.UserFromToken(userToken)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token claims check")
		return unauthorized(ctx)
	}

	jwtPkg.SetUserLoginData(ctx, user)

	m.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Debug("Authentication successful")
	return ctx.Next()
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHORIZED",
	})
}
