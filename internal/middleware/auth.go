package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
)

const (
	SessionCookie       = "taskdesk_session"
	PrincipalContextKey = "principal"
)

// Authenticator resolves a session token to the principal it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthRequired accepts the session cookie or an Authorization: Bearer header.
func AuthRequired(authenticator Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return Unauthorized("Authentication required")
		}

		principal, err := authenticator.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(PrincipalContextKey, principal)
		return c.Next()
	}
}

// OptionalAuth attaches a principal when a valid token is presented and continues either way.
func OptionalAuth(authenticator Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := SessionToken(c); token != "" {
			if principal, err := authenticator.Authenticate(c.UserContext(), token); err == nil {
				c.Locals(PrincipalContextKey, principal)
			}
		}
		return c.Next()
	}
}

func SessionToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie
	}
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	principal, ok := c.Locals(PrincipalContextKey).(*domain.Principal)
	if !ok {
		return nil
	}
	return principal
}

// ClientInfo captures the caller's address and user agent for audit entries.
func ClientInfo(c *fiber.Ctx) domain.ClientInfo {
	ip := c.IP()
	if forwarded := c.Get("CF-Connecting-IP"); forwarded != "" {
		ip = forwarded
	}
	ua := c.Get(fiber.HeaderUserAgent)

	info := domain.ClientInfo{}
	if ip != "" {
		info.IPAddress = &ip
	}
	if ua != "" {
		info.UserAgent = &ua
	}
	return info
}
