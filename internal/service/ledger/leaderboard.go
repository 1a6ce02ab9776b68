package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/leaderboard"
)

// BuildLeaderboard scans every committed donation and returns per-donor
// aggregates. Each call is a fresh snapshot.
func (s *Service) BuildLeaderboard(ctx context.Context, filter leaderboard.Filter) ([]leaderboard.DonorAggregate, error) {
	var (
		donations []domain.Donation
		creators  map[uuid.UUID]uuid.UUID
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = s.donations.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		creators, err = s.fundraisers.CreatorIndex(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("BuildLeaderboard: %w", err)
	}

	profiles, err := s.profiles.GetByIDs(ctx, leaderboard.ProfileIDs(donations, creators))
	if err != nil {
		return nil, fmt.Errorf("BuildLeaderboard: %w", err)
	}

	return leaderboard.Build(donations, creators, profiles, filter), nil
}
