package domain

import "errors"

var (
	ErrNotFound                     = errors.New("not found")
	ErrInvalidAmount                = errors.New("amount must be a positive integer")
	ErrInvalidGoal                  = errors.New("invalid goal")
	ErrExceedsGoal                  = errors.New("donation exceeds remaining goal")
	ErrAlreadyClosed                = errors.New("fundraiser already closed")
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrInvalidMethod                = errors.New("invalid withdrawal method")
	ErrUnauthorized                 = errors.New("unauthorized")
	ErrDuplicateTitle               = errors.New("fundraiser with this title already exists")
	ErrInvalidRequest               = errors.New("invalid request")
	ErrVersionConflict              = errors.New("optimistic lock conflict")
	ErrTransientConflict            = errors.New("concurrent update conflict, retry later")
	ErrDuplicateIdempotencyKey      = errors.New("duplicate idempotency key")
)
