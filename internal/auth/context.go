package auth

import (
	"context"

	"github.com/google/uuid"
)

type userIDKey struct{}

// ContextWithUserID records the authenticated donor or creator for the
// rest of the request.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
