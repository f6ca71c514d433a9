package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/auth"
	"taskdesk/internal/service/user"
)

type AuthHandler struct {
	authService  auth.Service
	userService  user.Service
	secureCookie bool
}

func NewAuthHandler(authService auth.Service, userService user.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	var current *domain.Session
	if p := middleware.GetPrincipal(c); p != nil {
		current = p.Session
	}

	u, token, err := h.authService.Login(c.Context(), input, middleware.ClientInfo(c), current)
	if err != nil {
		return err
	}

	h.setSession(c, token)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":       u,
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Context(), p.Session); err != nil {
		return err
	}

	h.clearSession(c)
	return noContent(c)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	u, err := h.userService.GetProfile(c.Context(), p)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":          u,
		"impersonating": p.Session.IsImpersonating(),
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	if err := h.authService.ChangePassword(c.Context(), p, input); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}

func (h *AuthHandler) LoginAs(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	u, token, err := h.authService.LoginAs(c.Context(), p, targetID, middleware.ClientInfo(c))
	if err != nil {
		return err
	}

	h.setSession(c, token)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":          u,
		"token":         token.Value,
		"expires_at":    token.ExpiresAt,
		"impersonating": true,
	})
}

func (h *AuthHandler) SwitchBack(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	u, token, err := h.authService.SwitchBack(c.Context(), p, middleware.ClientInfo(c))
	if err != nil {
		return err
	}

	h.setSession(c, token)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":          u,
		"token":         token.Value,
		"expires_at":    token.ExpiresAt,
		"impersonating": false,
	})
}

func (h *AuthHandler) setSession(c *fiber.Ctx, token *auth.Token) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
