package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Only the fundraiser creator may do this"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive whole number"}
	ErrInvalidGoal           = &AppError{http.StatusBadRequest, "INVALID_GOAL", "Goal is below the minimum allowed"}
	ErrInvalidMethod         = &AppError{http.StatusBadRequest, "INVALID_METHOD", "Unsupported withdrawal method"}
	ErrExceedsGoal           = &AppError{http.StatusUnprocessableEntity, "EXCEEDS_GOAL", "Donation would exceed the fundraiser goal"}
	ErrAlreadyClosed         = &AppError{http.StatusUnprocessableEntity, "ALREADY_CLOSED", "Fundraiser is closed"}
	ErrInsufficientAvailable = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_AVAILABLE_BALANCE", "Amount exceeds the available balance"}
	ErrDuplicateTitle        = &AppError{http.StatusConflict, "DUPLICATE_TITLE", "You already have a fundraiser with this title"}
	ErrVersionConflict       = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrTransientConflict     = &AppError{http.StatusServiceUnavailable, "TRANSIENT_CONFLICT", "The fundraiser is busy, please retry"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
