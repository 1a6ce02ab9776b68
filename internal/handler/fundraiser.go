package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/logging"
	"github.com/josh-kwaku/fundledger/internal/service/ledger"
)

type fundraiserService interface {
	CreateFundraiser(ctx context.Context, req ledger.CreateFundraiserRequest) (*domain.Fundraiser, error)
	GetFundraiser(ctx context.Context, id uuid.UUID) (*domain.Fundraiser, error)
	ListFundraisers(ctx context.Context, filter domain.FundraiserFilter) ([]domain.Fundraiser, error)
	ListFundraisersByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.Fundraiser, error)
	RelatedFundraisers(ctx context.Context, id uuid.UUID) ([]domain.Fundraiser, error)
	UpdateFundraiser(ctx context.Context, req ledger.UpdateFundraiserRequest) (*domain.Fundraiser, error)
	DeleteFundraiser(ctx context.Context, id, requesterID uuid.UUID) error
}

type FundraiserHandler struct {
	fundraisers fundraiserService
	money       *MoneyFormatter
}

func NewFundraiserHandler(fundraisers fundraiserService, money *MoneyFormatter) *FundraiserHandler {
	return &FundraiserHandler{fundraisers: fundraisers, money: money}
}

type createFundraiserRequest struct {
	Title       string      `json:"title" validate:"required,max=120"`
	Category    string      `json:"category" validate:"required,max=60"`
	Description string      `json:"description" validate:"required,max=5000"`
	Goal        json.Number `json:"goal" validate:"required"`
}

func (r *createFundraiserRequest) Validate() (int64, []FieldError) {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)

	errs := validateStruct(r)
	if r.Goal == "" {
		return 0, errs
	}
	goal, err := domain.ParseAmount(r.Goal.String())
	if err != nil {
		errs = append(errs, FieldError{Field: "goal", Message: "must be a positive whole number"})
	}
	return goal, errs
}

// updateFundraiserRequest is a partial edit. goal and status are unknown
// fields and rejected by the decoder.
type updateFundraiserRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=120"`
	Category    *string `json:"category" validate:"omitempty,max=60"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type fundraiserDTO struct {
	ID               uuid.UUID  `json:"id"`
	CreatorID        uuid.UUID  `json:"creator_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category"`
	Description      string     `json:"description"`
	Goal             int64      `json:"goal"`
	Raised           int64      `json:"raised"`
	Withdrawn        int64      `json:"withdrawn"`
	Available        int64      `json:"available"`
	Remaining        int64      `json:"remaining"`
	PercentFunded    string     `json:"percent_funded"`
	Currency         string     `json:"currency"`
	GoalDisplay      string     `json:"goal_display"`
	RaisedDisplay    string     `json:"raised_display"`
	AvailableDisplay string     `json:"available_display"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ClosedAt         *time.Time `json:"closed_at"`
}

func toFundraiserDTO(f *domain.Fundraiser, m *MoneyFormatter) fundraiserDTO {
	return fundraiserDTO{
		ID:               f.ID,
		CreatorID:        f.CreatorID,
		Title:            f.Title,
		Category:         f.Category,
		Description:      f.Description,
		Goal:             f.Goal,
		Raised:           f.Raised,
		Withdrawn:        f.Withdrawn,
		Available:        f.Available(),
		Remaining:        f.Remaining(),
		PercentFunded:    f.PercentFunded().StringFixed(2),
		Currency:         m.Currency(),
		GoalDisplay:      m.Format(f.Goal),
		RaisedDisplay:    m.Format(f.Raised),
		AvailableDisplay: m.Format(f.Available()),
		Status:           string(f.Status),
		CreatedAt:        f.CreatedAt,
		ClosedAt:         f.ClosedAt,
	}
}

func (h *FundraiserHandler) toDTOs(fs []domain.Fundraiser) []fundraiserDTO {
	dtos := make([]fundraiserDTO, len(fs))
	for i := range fs {
		dtos[i] = toFundraiserDTO(&fs[i], h.money)
	}
	return dtos
}

func (h *FundraiserHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createFundraiserRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	goal, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	f, err := h.fundraisers.CreateFundraiser(r.Context(), ledger.CreateFundraiserRequest{
		CreatorID:   userID,
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Goal:        goal,
	})
	if err != nil {
		logFailure(r, "failed to create fundraiser", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toFundraiserDTO(f, h.money))
}

func (h *FundraiserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	f, err := h.fundraisers.GetFundraiser(r.Context(), id)
	if err != nil {
		logFailure(r, "failed to get fundraiser", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundraiserDTO(f, h.money))
}

func (h *FundraiserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fs, err := h.fundraisers.ListFundraisers(r.Context(), domain.FundraiserFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	})
	if err != nil {
		logFailure(r, "failed to list fundraisers", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, h.toDTOs(fs))
}

func (h *FundraiserHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	fs, err := h.fundraisers.RelatedFundraisers(r.Context(), id)
	if err != nil {
		logFailure(r, "failed to list related fundraisers", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, h.toDTOs(fs))
}

func (h *FundraiserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateFundraiserRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if fields := validateStruct(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	f, err := h.fundraisers.UpdateFundraiser(r.Context(), ledger.UpdateFundraiserRequest{
		ID:          id,
		RequesterID: userID,
		Details: domain.FundraiserDetails{
			Title:       req.Title,
			Category:    req.Category,
			Description: req.Description,
		},
	})
	if err != nil {
		logFailure(r, "failed to update fundraiser", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundraiserDTO(f, h.money))
}

func (h *FundraiserHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	fs, err := h.fundraisers.ListFundraisersByCreator(r.Context(), userID)
	if err != nil {
		logFailure(r, "failed to list own fundraisers", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, h.toDTOs(fs))
}

func (h *FundraiserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := requestUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.fundraisers.DeleteFundraiser(r.Context(), id, userID); err != nil {
		logFailure(r, "failed to delete fundraiser", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"id": id})
}

// logFailure logs rejected requests at warn and anything unexpected at
// error.
func logFailure(r *http.Request, msg string, err error) {
	logger := logging.FromContext(r.Context())
	if appErrorFor(err) != nil {
		logger.Warn(msg, "error", err)
		return
	}
	logger.Error(msg, "error", err)
}
