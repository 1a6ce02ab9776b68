package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/auth"
)

// requestUser returns the authenticated caller. Routes behind the auth
// middleware always have one; anything else is treated as a missing token.
func requestUser(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

// pathID parses a UUID route parameter. A malformed id cannot name an
// existing resource, so it reads as not found.
func pathID(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
