package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// appErrorFor maps a ledger sentinel to its HTTP representation. It returns
// nil for errors that are not part of the ledger's vocabulary.
func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidGoal):
		return ErrInvalidGoal
	case errors.Is(err, domain.ErrInvalidMethod):
		return ErrInvalidMethod
	case errors.Is(err, domain.ErrExceedsGoal):
		return ErrExceedsGoal
	case errors.Is(err, domain.ErrAlreadyClosed):
		return ErrAlreadyClosed
	case errors.Is(err, domain.ErrInsufficientAvailableBalance):
		return ErrInsufficientAvailable
	case errors.Is(err, domain.ErrUnauthorized):
		return ErrForbidden
	case errors.Is(err, domain.ErrDuplicateTitle):
		return ErrDuplicateTitle
	case errors.Is(err, domain.ErrTransientConflict):
		return ErrTransientConflict
	case errors.Is(err, domain.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
		return ErrIdempotencyConflict
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrInvalidRequest
	}
	return nil
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := appErrorFor(err)
	if appErr == nil {
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}
	if appErr == ErrTransientConflict {
		w.Header().Set("Retry-After", "1")
	}
	RespondAppError(w, appErr, nil)
}
