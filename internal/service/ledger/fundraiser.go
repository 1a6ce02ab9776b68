package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

type CreateFundraiserRequest struct {
	CreatorID   uuid.UUID
	Title       string
	Category    string
	Description string
	Goal        int64
}

func (s *Service) CreateFundraiser(ctx context.Context, req CreateFundraiserRequest) (*domain.Fundraiser, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validateCreate(req); err != nil {
		s.record(opCreate, err)
		return nil, fmt.Errorf("CreateFundraiser: %w", err)
	}

	now := s.now()
	f := &domain.Fundraiser{
		ID:          uuid.New(),
		CreatorID:   req.CreatorID,
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Goal:        req.Goal,
		Status:      domain.FundraiserStatusOpen,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.fundraisers.Create(ctx, f)
	s.record(opCreate, err)
	if err != nil {
		return nil, fmt.Errorf("CreateFundraiser: %w", err)
	}
	return f, nil
}

func (s *Service) validateCreate(req CreateFundraiserRequest) error {
	if req.CreatorID == uuid.Nil {
		return fmt.Errorf("validateCreate: creator: %w", domain.ErrUnauthorized)
	}
	if req.Title == "" || req.Category == "" || req.Description == "" {
		return fmt.Errorf("validateCreate: title, category and description are required: %w", domain.ErrInvalidRequest)
	}
	if req.Goal <= 0 || req.Goal < s.minGoal() {
		return fmt.Errorf("validateCreate: goal must be at least %d: %w", s.minGoal(), domain.ErrInvalidGoal)
	}
	return nil
}

// RelatedLimit caps how many fundraisers RelatedFundraisers returns.
const RelatedLimit = 3

func (s *Service) ListFundraisers(ctx context.Context, filter domain.FundraiserFilter) ([]domain.Fundraiser, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)
	fundraisers, err := s.fundraisers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListFundraisers: %w", err)
	}
	return fundraisers, nil
}

// RelatedFundraisers returns the newest other fundraisers in the same
// category.
func (s *Service) RelatedFundraisers(ctx context.Context, id uuid.UUID) ([]domain.Fundraiser, error) {
	f, err := s.fundraisers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("RelatedFundraisers: %w", err)
	}
	related, err := s.fundraisers.List(ctx, domain.FundraiserFilter{
		Category:  f.Category,
		ExcludeID: f.ID,
		Limit:     RelatedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("RelatedFundraisers: %w", err)
	}
	return related, nil
}

func (s *Service) ListFundraisersByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Fundraiser, error) {
	fundraisers, err := s.fundraisers.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("ListFundraisersByCreator: %w", err)
	}
	return fundraisers, nil
}

type UpdateFundraiserRequest struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
	Details     domain.FundraiserDetails
}

// UpdateFundraiser edits title, category or description. Only the creator
// may edit; goal and status are fixed once created.
func (s *Service) UpdateFundraiser(ctx context.Context, req UpdateFundraiserRequest) (*domain.Fundraiser, error) {
	f, err := s.updateFundraiser(ctx, req)
	s.record(opUpdate, err)
	if err != nil {
		return nil, fmt.Errorf("UpdateFundraiser: %w", err)
	}
	return f, nil
}

func (s *Service) updateFundraiser(ctx context.Context, req UpdateFundraiserRequest) (*domain.Fundraiser, error) {
	d := req.Details
	if d.Title == nil && d.Category == nil && d.Description == nil {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrInvalidRequest)
	}

	f, err := s.fundraisers.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if f.CreatorID != req.RequesterID {
		return nil, domain.ErrUnauthorized
	}

	for _, field := range []struct {
		src *string
		dst *string
	}{
		{d.Title, &f.Title},
		{d.Category, &f.Category},
		{d.Description, &f.Description},
	} {
		if field.src == nil {
			continue
		}
		v := strings.TrimSpace(*field.src)
		if v == "" {
			return nil, fmt.Errorf("empty field: %w", domain.ErrInvalidRequest)
		}
		*field.dst = v
	}
	f.UpdatedAt = s.now()

	if err := s.fundraisers.UpdateDetails(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFundraiser removes a fundraiser with its donations and withdrawals.
// Only the creator may delete.
func (s *Service) DeleteFundraiser(ctx context.Context, id, requesterID uuid.UUID) error {
	err := s.deleteFundraiser(ctx, id, requesterID)
	s.record(opDelete, err)
	if err != nil {
		return fmt.Errorf("DeleteFundraiser: %w", err)
	}
	return nil
}

func (s *Service) deleteFundraiser(ctx context.Context, id, requesterID uuid.UUID) error {
	f, err := s.fundraisers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f.CreatorID != requesterID {
		return domain.ErrUnauthorized
	}
	return s.fundraisers.Delete(ctx, id)
}
