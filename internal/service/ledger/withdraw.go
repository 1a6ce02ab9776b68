package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

type WithdrawRequest struct {
	FundraiserID uuid.UUID
	RequesterID  uuid.UUID
	Amount       int64
	Method       domain.WithdrawalMethod
}

type WithdrawalResult struct {
	NewWithdrawn int64
	Withdrawal   *domain.Withdrawal
}

func (s *Service) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawalResult, error) {
	if err := validateWithdrawalRequest(req); err != nil {
		s.record(opWithdraw, err)
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	var result *WithdrawalResult
	err := retryOnConflict(ctx, s.maxAttempts(), s.retryBackoff,
		func() { s.metrics.LedgerConflict(opWithdraw) },
		func() error {
			f, err := s.fundraisers.GetByID(ctx, req.FundraiserID)
			if err != nil {
				return err
			}
			if err := validateWithdrawal(f, req); err != nil {
				return err
			}
			result, err = s.executeWithdrawal(ctx, f, req)
			return err
		},
	)
	s.record(opWithdraw, err)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	return result, nil
}

// validateWithdrawalRequest covers the checks that need no stored state.
func validateWithdrawalRequest(req WithdrawRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("validateWithdrawal: %w", domain.ErrInvalidAmount)
	}
	if !req.Method.IsValid() {
		return fmt.Errorf("validateWithdrawal: method %q: %w", req.Method, domain.ErrInvalidMethod)
	}
	return nil
}

func validateWithdrawal(f *domain.Fundraiser, req WithdrawRequest) error {
	if err := validateWithdrawalRequest(req); err != nil {
		return err
	}
	if f.CreatorID != req.RequesterID {
		return fmt.Errorf("validateWithdrawal: %w", domain.ErrUnauthorized)
	}
	if req.Amount > f.Available() {
		return fmt.Errorf("validateWithdrawal: available %d: %w", f.Available(), domain.ErrInsufficientAvailableBalance)
	}
	return nil
}

type withdrawalRequestedPayload struct {
	WithdrawalID uuid.UUID               `json:"withdrawal_id"`
	FundraiserID uuid.UUID               `json:"fundraiser_id"`
	RequesterID  uuid.UUID               `json:"requester_id"`
	Amount       int64                   `json:"amount"`
	Method       domain.WithdrawalMethod `json:"method"`
	NewWithdrawn int64                   `json:"new_withdrawn"`
}

func (s *Service) executeWithdrawal(ctx context.Context, f *domain.Fundraiser, req WithdrawRequest) (*WithdrawalResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeWithdrawal: begin tx: %w", err)
	}
	defer tx.Rollback()

	newWithdrawn := f.Withdrawn + req.Amount
	if err := s.fundraisers.ApplyWithdrawal(ctx, tx, f.ID, newWithdrawn, f.Version); err != nil {
		return nil, fmt.Errorf("executeWithdrawal: %w", err)
	}

	w := &domain.Withdrawal{
		ID:           uuid.New(),
		FundraiserID: f.ID,
		RequesterID:  req.RequesterID,
		Amount:       req.Amount,
		Method:       req.Method,
		Timestamp:    s.now(),
	}
	if err := s.withdrawals.Create(ctx, tx, w); err != nil {
		return nil, fmt.Errorf("executeWithdrawal: %w", err)
	}

	if err := s.appendEvent(ctx, tx, f.ID, domain.LedgerEventTypeWithdrawalRequested, withdrawalRequestedPayload{
		WithdrawalID: w.ID,
		FundraiserID: f.ID,
		RequesterID:  req.RequesterID,
		Amount:       req.Amount,
		Method:       req.Method,
		NewWithdrawn: newWithdrawn,
	}); err != nil {
		return nil, fmt.Errorf("executeWithdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeWithdrawal: commit: %w", err)
	}

	return &WithdrawalResult{NewWithdrawn: newWithdrawn, Withdrawal: w}, nil
}

// ListWithdrawalsForFundraiser is restricted to the fundraiser's creator.
func (s *Service) ListWithdrawalsForFundraiser(ctx context.Context, fundraiserID, requesterID uuid.UUID) ([]domain.Withdrawal, error) {
	f, err := s.fundraisers.GetByID(ctx, fundraiserID)
	if err != nil {
		return nil, fmt.Errorf("ListWithdrawalsForFundraiser: %w", err)
	}
	if f.CreatorID != requesterID {
		return nil, fmt.Errorf("ListWithdrawalsForFundraiser: %w", domain.ErrUnauthorized)
	}

	withdrawals, err := s.withdrawals.ListByFundraiser(ctx, fundraiserID)
	if err != nil {
		return nil, fmt.Errorf("ListWithdrawalsForFundraiser: %w", err)
	}
	return withdrawals, nil
}
