package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	pkgvalidator "taskdesk/internal/pkg/validator"
)

type stubAuthenticator struct {
	tokens map[string]*domain.Principal
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if p, ok := s.tokens[token]; ok {
		return p, nil
	}
	return nil, domain.ErrUnauthenticated
}

func principal(superuser bool) *domain.Principal {
	return &domain.Principal{
		User:    &domain.User{ID: uuid.New(), Username: "alice", IsSuperuser: superuser},
		Session: &domain.Session{ID: uuid.New()},
	}
}

func decode(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestAuthRequired(t *testing.T) {
	alice := principal(false)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/me", AuthRequired(stubAuthenticator{tokens: map[string]*domain.Principal{"good": alice}}), func(c *fiber.Ctx) error {
		return c.SendString(GetPrincipal(c).User.Username)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer bad")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderCookie, SessionCookie+"=good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(body))
}

func TestRequireSuperuser(t *testing.T) {
	tokens := map[string]*domain.Principal{"user": principal(false), "admin": principal(true)}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/admin", AuthRequired(stubAuthenticator{tokens: tokens}), RequireSuperuser("user"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for token, want := range map[string]int{"user": fiber.StatusForbidden, "admin": fiber.StatusNoContent} {
		req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, token)
	}
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"NotFound", fmt.Errorf("task: %w", domain.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"Forbidden", domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
		{"Conflict", fmt.Errorf("tag %q: %w", "x", domain.ErrConflict), fiber.StatusConflict, "CONFLICT"},
		{"Validation", pkgvalidator.Field("assigned_to", "min"), fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"Fiber", fiber.NewError(fiber.StatusBadRequest, "Invalid ID"), fiber.StatusBadRequest, "BAD_REQUEST"},
		{"Unknown", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.TraceID)
			if tc.code == "VALIDATION_ERROR" {
				require.Len(t, body.Details, 1)
				assert.Equal(t, "assigned_to", body.Details[0].Field)
			}
		})
	}
}

func TestRequestLoggerRendersErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Metrics())
	app.Use(RequestLogger("/health"))
	app.Get("/missing", func(c *fiber.Ctx) error { return domain.ErrNotFound })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
