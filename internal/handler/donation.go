package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/service/ledger"
)

type donationService interface {
	Donate(ctx context.Context, req ledger.DonateRequest) (*ledger.DonationResult, error)
	ListDonationsForFundraiser(ctx context.Context, fundraiserID uuid.UUID) ([]domain.Donation, error)
	ListDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error)
}

type DonationHandler struct {
	donations donationService
	money     *MoneyFormatter
}

func NewDonationHandler(donations donationService, money *MoneyFormatter) *DonationHandler {
	return &DonationHandler{donations: donations, money: money}
}

type amountRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// Validate returns a domain error for a malformed amount and field errors
// for a missing one.
func (r amountRequest) Validate() (int64, []FieldError, error) {
	amount, present, err := parseAmountField(r.Amount)
	if err != nil {
		return 0, nil, fmt.Errorf("amount: %w", err)
	}
	if !present {
		return 0, []FieldError{{Field: "amount", Message: "is required"}}, nil
	}
	return amount, nil, nil
}

type donationDTO struct {
	ID            uuid.UUID `json:"id"`
	FundraiserID  uuid.UUID `json:"fundraiser_id"`
	DonorID       uuid.UUID `json:"donor_id"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	Timestamp     time.Time `json:"timestamp"`
}

func toDonationDTO(d *domain.Donation, m *MoneyFormatter) donationDTO {
	return donationDTO{
		ID:            d.ID,
		FundraiserID:  d.FundraiserID,
		DonorID:       d.DonorID,
		Amount:        d.Amount,
		AmountDisplay: m.Format(d.Amount),
		Timestamp:     d.Timestamp,
	}
}

type donationResultDTO struct {
	Donation      donationDTO `json:"donation"`
	NewRaised     int64       `json:"new_raised"`
	RaisedDisplay string      `json:"raised_display"`
	Closed        bool        `json:"closed"`
}

func (h *DonationHandler) toDTOs(ds []domain.Donation) []donationDTO {
	dtos := make([]donationDTO, len(ds))
	for i := range ds {
		dtos[i] = toDonationDTO(&ds[i], h.money)
	}
	return dtos
}

func (h *DonationHandler) Donate(w http.ResponseWriter, r *http.Request) {
	donorID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	fundraiserID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req amountRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	amount, fields, err := req.Validate()
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	result, err := h.donations.Donate(r.Context(), ledger.DonateRequest{
		FundraiserID: fundraiserID,
		DonorID:      donorID,
		Amount:       amount,
	})
	if err != nil {
		logFailure(r, "failed to record donation", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, donationResultDTO{
		Donation:      toDonationDTO(result.Donation, h.money),
		NewRaised:     result.NewRaised,
		RaisedDisplay: h.money.Format(result.NewRaised),
		Closed:        result.Closed,
	})
}

func (h *DonationHandler) ListForFundraiser(w http.ResponseWriter, r *http.Request) {
	fundraiserID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ds, err := h.donations.ListDonationsForFundraiser(r.Context(), fundraiserID)
	if err != nil {
		logFailure(r, "failed to list donations", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, h.toDTOs(ds))
}

func (h *DonationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	donorID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ds, err := h.donations.ListDonationsByDonor(r.Context(), donorID)
	if err != nil {
		logFailure(r, "failed to list own donations", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, h.toDTOs(ds))
}
