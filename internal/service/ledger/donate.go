package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

type DonateRequest struct {
	FundraiserID uuid.UUID
	DonorID      uuid.UUID
	Amount       int64
}

type DonationResult struct {
	NewRaised int64
	// Closed reports whether this donation moved the fundraiser to closed.
	Closed   bool
	Donation *domain.Donation
}

func (s *Service) Donate(ctx context.Context, req DonateRequest) (*DonationResult, error) {
	if err := validateDonationAmount(req.Amount); err != nil {
		s.record(opDonate, err)
		return nil, fmt.Errorf("Donate: %w", err)
	}

	var result *DonationResult
	err := retryOnConflict(ctx, s.maxAttempts(), s.retryBackoff,
		func() { s.metrics.LedgerConflict(opDonate) },
		func() error {
			f, err := s.fundraisers.GetByID(ctx, req.FundraiserID)
			if err != nil {
				return err
			}
			if err := validateDonation(f, req.Amount); err != nil {
				return err
			}
			result, err = s.executeDonation(ctx, f, req)
			return err
		},
	)
	s.record(opDonate, err)
	if err != nil {
		return nil, fmt.Errorf("Donate: %w", err)
	}

	if result.Closed {
		s.metrics.FundraiserClosed()
	}
	return result, nil
}

func validateDonationAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("validateDonation: %w", domain.ErrInvalidAmount)
	}
	return nil
}

// validateDonation checks every precondition against a snapshot. Amounts
// over the remaining goal are rejected, never clamped.
func validateDonation(f *domain.Fundraiser, amount int64) error {
	if err := validateDonationAmount(amount); err != nil {
		return err
	}
	if f.Status == domain.FundraiserStatusClosed {
		return fmt.Errorf("validateDonation: %w", domain.ErrAlreadyClosed)
	}
	if amount > f.Goal-f.Raised {
		return fmt.Errorf("validateDonation: remaining %d: %w", f.Goal-f.Raised, domain.ErrExceedsGoal)
	}
	return nil
}

type donationRecordedPayload struct {
	DonationID   uuid.UUID `json:"donation_id"`
	FundraiserID uuid.UUID `json:"fundraiser_id"`
	DonorID      uuid.UUID `json:"donor_id"`
	Amount       int64     `json:"amount"`
	DonorTotal   int64     `json:"donor_total"`
	NewRaised    int64     `json:"new_raised"`
	Goal         int64     `json:"goal"`
}

type fundraiserClosedPayload struct {
	FundraiserID uuid.UUID `json:"fundraiser_id"`
	CreatorID    uuid.UUID `json:"creator_id"`
	Goal         int64     `json:"goal"`
	Raised       int64     `json:"raised"`
}

func (s *Service) executeDonation(ctx context.Context, f *domain.Fundraiser, req DonateRequest) (*DonationResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeDonation: begin tx: %w", err)
	}
	defer tx.Rollback()

	newRaised := f.Raised + req.Amount
	newStatus := f.StatusAfterRaise(newRaised)

	if err := s.fundraisers.ApplyDonation(ctx, tx, f.ID, newRaised, newStatus, f.Version); err != nil {
		return nil, fmt.Errorf("executeDonation: %w", err)
	}

	now := s.now()
	donation, err := s.donations.Upsert(ctx, tx, &domain.Donation{
		ID:           uuid.New(),
		FundraiserID: f.ID,
		DonorID:      req.DonorID,
		Amount:       req.Amount,
		Timestamp:    now,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("executeDonation: %w", err)
	}

	if err := s.appendEvent(ctx, tx, f.ID, domain.LedgerEventTypeDonationRecorded, donationRecordedPayload{
		DonationID:   donation.ID,
		FundraiserID: f.ID,
		DonorID:      req.DonorID,
		Amount:       req.Amount,
		DonorTotal:   donation.Amount,
		NewRaised:    newRaised,
		Goal:         f.Goal,
	}); err != nil {
		return nil, fmt.Errorf("executeDonation: %w", err)
	}

	closed := newStatus == domain.FundraiserStatusClosed && f.Status != domain.FundraiserStatusClosed
	if closed {
		if err := s.appendEvent(ctx, tx, f.ID, domain.LedgerEventTypeFundraiserClosed, fundraiserClosedPayload{
			FundraiserID: f.ID,
			CreatorID:    f.CreatorID,
			Goal:         f.Goal,
			Raised:       newRaised,
		}); err != nil {
			return nil, fmt.Errorf("executeDonation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeDonation: commit: %w", err)
	}

	return &DonationResult{NewRaised: newRaised, Closed: closed, Donation: donation}, nil
}

func (s *Service) appendEvent(ctx context.Context, tx *sql.Tx, fundraiserID uuid.UUID, eventType domain.LedgerEventType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("appendEvent: marshal %s: %w", eventType, err)
	}
	return s.events.Create(ctx, tx, &domain.LedgerEvent{
		ID:           uuid.New(),
		FundraiserID: fundraiserID,
		EventType:    eventType,
		Payload:      body,
		Status:       domain.LedgerEventStatusPending,
		CreatedAt:    s.now(),
	})
}
