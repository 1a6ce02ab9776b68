package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

// retryOnConflict runs fn until it returns something other than a version
// conflict, or until maxAttempts conflicts have been seen. Each attempt must
// re-read the state it validates against.
func retryOnConflict(ctx context.Context, maxAttempts int, backoff time.Duration, onConflict func(), fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		if onConflict != nil {
			onConflict()
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("after %d attempts: %w", attempt, domain.ErrTransientConflict)
		}

		if backoff > 0 {
			wait := time.Duration(attempt)*backoff + rand.N(backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
}
