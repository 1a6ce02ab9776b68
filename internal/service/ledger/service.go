// Package ledger implements the fundraiser ledger: creating fundraisers,
// recording donations, processing withdrawals and building the derived
// donor and reward views.
//
// Mutations follow a read, validate, conditional-write cycle against the
// fundraiser's version column and are retried on conflict. The service does
// not log; callers decide what to log from the returned errors.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/config"
	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/metrics"
)

type fundraiserRepo interface {
	Create(ctx context.Context, f *domain.Fundraiser) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Fundraiser, error)
	List(ctx context.Context, filter domain.FundraiserFilter) ([]domain.Fundraiser, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Fundraiser, error)
	SumRaisedByCreator(ctx context.Context, creatorID uuid.UUID) (int64, error)
	CreatorIndex(ctx context.Context) (map[uuid.UUID]uuid.UUID, error)
	ApplyDonation(ctx context.Context, tx *sql.Tx, id uuid.UUID, newRaised int64, newStatus domain.FundraiserStatus, expectedVersion int64) error
	ApplyWithdrawal(ctx context.Context, tx *sql.Tx, id uuid.UUID, newWithdrawn int64, expectedVersion int64) error
	UpdateDetails(ctx context.Context, f *domain.Fundraiser) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type donationRepo interface {
	Upsert(ctx context.Context, tx *sql.Tx, d *domain.Donation) (*domain.Donation, error)
	ListByFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Donation, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error)
	ListAll(ctx context.Context) ([]domain.Donation, error)
}

type withdrawalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, w *domain.Withdrawal) error
	ListByFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Withdrawal, error)
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.LedgerEvent) error
}

type profileRepo interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Profile, error)
}

const (
	opCreate   = "create"
	opDonate   = "donate"
	opWithdraw = "withdraw"
	opUpdate   = "update"
	opDelete   = "delete"
)

type Service struct {
	fundraisers fundraiserRepo
	donations   donationRepo
	withdrawals withdrawalRepo
	events      eventRepo
	profiles    profileRepo
	db          *sql.DB
	metrics     *metrics.Metrics
	config      *config.Config

	now          func() time.Time
	retryBackoff time.Duration
}

func NewService(
	fundraisers fundraiserRepo,
	donations donationRepo,
	withdrawals withdrawalRepo,
	events eventRepo,
	profiles profileRepo,
	db *sql.DB,
	m *metrics.Metrics,
	cfg *config.Config,
) *Service {
	return &Service{
		fundraisers:  fundraisers,
		donations:    donations,
		withdrawals:  withdrawals,
		events:       events,
		profiles:     profiles,
		db:           db,
		metrics:      m,
		config:       cfg,
		now:          func() time.Time { return time.Now().UTC() },
		retryBackoff: 2 * time.Millisecond,
	}
}

func (s *Service) maxAttempts() int {
	if s.config == nil || s.config.LedgerMaxAttempts < 1 {
		return 5
	}
	return s.config.LedgerMaxAttempts
}

func (s *Service) minGoal() int64 {
	if s.config == nil || s.config.MinGoal < 1 {
		return 1
	}
	return s.config.MinGoal
}

// record counts the outcome of a ledger mutation.
func (s *Service) record(op string, err error) {
	s.metrics.LedgerOperation(op, resultFor(err))
}

func resultFor(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrTransientConflict):
		return metrics.ResultConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidGoal),
		errors.Is(err, domain.ErrExceedsGoal),
		errors.Is(err, domain.ErrAlreadyClosed),
		errors.Is(err, domain.ErrInsufficientAvailableBalance),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrDuplicateTitle),
		errors.Is(err, domain.ErrInvalidRequest):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

func (s *Service) GetFundraiser(ctx context.Context, id uuid.UUID) (*domain.Fundraiser, error) {
	f, err := s.fundraisers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetFundraiser: %w", err)
	}
	return f, nil
}

func (s *Service) ListDonationsForFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Donation, error) {
	if _, err := s.fundraisers.GetByID(ctx, fundraiserID); err != nil {
		return nil, fmt.Errorf("ListDonationsForFundraiser: %w", err)
	}
	donations, err := s.donations.ListByFundraiser(ctx, fundraiserID)
	if err != nil {
		return nil, fmt.Errorf("ListDonationsForFundraiser: %w", err)
	}
	return donations, nil
}

func (s *Service) ListDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	donations, err := s.donations.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("ListDonationsByDonor: %w", err)
	}
	return donations, nil
}
