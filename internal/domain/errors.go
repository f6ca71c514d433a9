package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrInactiveUser         = errors.New("user is inactive")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrConflict             = errors.New("already exists")
	ErrInvalidTarget        = errors.New("invalid impersonation target")
	ErrNotImpersonating     = errors.New("session is not impersonating")
	ErrAlreadyImpersonating = errors.New("session is already impersonating")
	ErrFileTooLarge         = errors.New("file exceeds the maximum size")
	ErrStorageUnavailable   = errors.New("object storage is not configured")
)
