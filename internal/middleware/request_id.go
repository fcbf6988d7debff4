package middleware

import (
	contextPkg "KYCCapture/pkg/context"
	"KYCCapture/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

func NewRequestIDMiddleware() fiber.Handler {
	utilsInstance := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(contextPkg.HeaderRequestID)

		if requestID == "" {
			requestID, _ = utilsInstance.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(contextPkg.HeaderRequestID, requestID)
		c.Set(contextPkg.HeaderRequestID, requestID)

		return c.Next()
	}
}
