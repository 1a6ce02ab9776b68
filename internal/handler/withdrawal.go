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

type withdrawalService interface {
	Withdraw(ctx context.Context, req ledger.WithdrawRequest) (*ledger.WithdrawalResult, error)
	ListWithdrawalsForFundraiser(ctx context.Context, fundraiserID, requesterID uuid.UUID) ([]domain.Withdrawal, error)
}

type WithdrawalHandler struct {
	withdrawals withdrawalService
	money       *MoneyFormatter
}

func NewWithdrawalHandler(withdrawals withdrawalService, money *MoneyFormatter) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, money: money}
}

type withdrawRequest struct {
	Amount json.RawMessage `json:"amount"`

	// Unknown methods are rejected by the ledger with INVALID_METHOD.
	Method string `json:"method" validate:"required,max=20"`
}

func (r withdrawRequest) Validate() (int64, []FieldError, error) {
	amount, present, err := parseAmountField(r.Amount)
	if err != nil {
		return 0, nil, fmt.Errorf("amount: %w", err)
	}
	errs := validateStruct(r)
	if !present {
		errs = append([]FieldError{{Field: "amount", Message: "is required"}}, errs...)
	}
	return amount, errs, nil
}

type withdrawalDTO struct {
	ID            uuid.UUID `json:"id"`
	FundraiserID  uuid.UUID `json:"fundraiser_id"`
	RequesterID   uuid.UUID `json:"requester_id"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	Method        string    `json:"method"`
	Timestamp     time.Time `json:"timestamp"`
}

func toWithdrawalDTO(wd *domain.Withdrawal, m *MoneyFormatter) withdrawalDTO {
	return withdrawalDTO{
		ID:            wd.ID,
		FundraiserID:  wd.FundraiserID,
		RequesterID:   wd.RequesterID,
		Amount:        wd.Amount,
		AmountDisplay: m.Format(wd.Amount),
		Method:        string(wd.Method),
		Timestamp:     wd.Timestamp,
	}
}

type withdrawalResultDTO struct {
	Withdrawal       withdrawalDTO `json:"withdrawal"`
	NewWithdrawn     int64         `json:"new_withdrawn"`
	WithdrawnDisplay string        `json:"withdrawn_display"`
}

func (h *WithdrawalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	fundraiserID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req withdrawRequest
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

	result, err := h.withdrawals.Withdraw(r.Context(), ledger.WithdrawRequest{
		FundraiserID: fundraiserID,
		RequesterID:  userID,
		Amount:       amount,
		Method:       domain.WithdrawalMethod(req.Method),
	})
	if err != nil {
		logFailure(r, "failed to process withdrawal", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, withdrawalResultDTO{
		Withdrawal:       toWithdrawalDTO(result.Withdrawal, h.money),
		NewWithdrawn:     result.NewWithdrawn,
		WithdrawnDisplay: h.money.Format(result.NewWithdrawn),
	})
}

func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	fundraiserID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ws, err := h.withdrawals.ListWithdrawalsForFundraiser(r.Context(), fundraiserID, userID)
	if err != nil {
		logFailure(r, "failed to list withdrawals", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]withdrawalDTO, len(ws))
	for i := range ws {
		dtos[i] = toWithdrawalDTO(&ws[i], h.money)
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
