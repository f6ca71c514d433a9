package middleware

import (
	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/pkg/metrics"
)

// RequireSuperuser must run after AuthRequired.
func RequireSuperuser(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return Unauthorized("Authentication required")
		}
		if !principal.IsSuperuser() {
			metrics.PermissionDenials.WithLabelValues(resource).Inc()
			return Forbidden("Insufficient permissions for this operation")
		}
		return c.Next()
	}
}
