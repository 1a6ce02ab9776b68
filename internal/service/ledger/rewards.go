package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/rewards"
)

// UnlockedTiers evaluates the creator's reward tiers from the current sum of
// raised across all their fundraisers. Nothing is stored.
func (s *Service) UnlockedTiers(ctx context.Context, creatorID uuid.UUID) (*rewards.Summary, error) {
	total, err := s.fundraisers.SumRaisedByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("UnlockedTiers: %w", err)
	}
	summary := rewards.Evaluate(total)
	return &summary, nil
}
