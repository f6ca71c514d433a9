package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	pkgvalidator "taskdesk/internal/pkg/validator"
)

type ErrorResponse struct {
	Code    string                         `json:"code"`
	Message string                         `json:"message"`
	TraceID string                         `json:"trace_id,omitempty"`
	Details []pkgvalidator.ValidationError `json:"details,omitempty"`
}

type mappedError struct {
	target  error
	status  int
	code    string
	message string
}

var domainErrors = []mappedError{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Resource not found"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource"},
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"},
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{domain.ErrInactiveUser, fiber.StatusForbidden, "INACTIVE_USER", "This account is inactive"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", ""},
	{domain.ErrInvalidTarget, fiber.StatusUnprocessableEntity, "INVALID_TARGET", "Cannot log in as this user"},
	{domain.ErrNotImpersonating, fiber.StatusBadRequest, "NOT_IMPERSONATING", "No original session to switch back to"},
	{domain.ErrAlreadyImpersonating, fiber.StatusConflict, "ALREADY_IMPERSONATING", "Switch back before logging in as another user"},
	{domain.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the 10 MB limit"},
	{domain.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured"},
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	errorCode := "INTERNAL_ERROR"
	var details []pkgvalidator.ValidationError

	var fe *fiber.Error
	var ve pkgvalidator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
		errorCode = statusCode(code)
	case errors.As(err, &ve):
		code = fiber.StatusUnprocessableEntity
		errorCode = "VALIDATION_ERROR"
		message = "Validation failed"
		details = ve
	default:
		matched := false
		for _, m := range domainErrors {
			if errors.Is(err, m.target) {
				code, errorCode, message = m.status, m.code, m.message
				if message == "" {
					message = err.Error()
				}
				matched = true
				break
			}
		}
		if !matched {
			logger.WithModule("http").Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
	}

	traceID := uuid.New().String()[:8]

	return c.Status(code).JSON(ErrorResponse{
		Code:    errorCode,
		Message: message,
		TraceID: traceID,
		Details: details,
	})
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

func NewError(code int, message string) *fiber.Error {
	return fiber.NewError(code, message)
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, message)
}

func NotFound(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, message)
}

func Conflict(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusConflict, message)
}
