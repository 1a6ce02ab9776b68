package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/leaderboard"
)

type leaderboardService interface {
	BuildLeaderboard(ctx context.Context, filter leaderboard.Filter) ([]leaderboard.DonorAggregate, error)
}

type LeaderboardHandler struct {
	leaderboard leaderboardService
	money       *MoneyFormatter
}

func NewLeaderboardHandler(svc leaderboardService, money *MoneyFormatter) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: svc, money: money}
}

type identityDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
}

type leaderboardEntryDTO struct {
	FundraiserID  uuid.UUID   `json:"fundraiser_id"`
	Creator       identityDTO `json:"creator"`
	Amount        int64       `json:"amount"`
	AmountDisplay string      `json:"amount_display"`
	Timestamp     time.Time   `json:"timestamp"`
}

type donorAggregateDTO struct {
	Rank         int                   `json:"rank"`
	Donor        identityDTO           `json:"donor"`
	TotalAmount  int64                 `json:"total_amount"`
	TotalDisplay string                `json:"total_display"`
	Donations    []leaderboardEntryDTO `json:"donations"`
}

func toIdentityDTO(i leaderboard.Identity) identityDTO {
	return identityDTO{ID: i.ID, Name: i.Name, Email: i.Email}
}

func parseLeaderboardFilter(r *http.Request) (leaderboard.Filter, []FieldError) {
	q := r.URL.Query()
	var errs []FieldError

	sort, err := leaderboard.ParseSort(q.Get("sort"))
	if err != nil {
		errs = append(errs, FieldError{Field: "sort", Message: "must be one of: highest, lowest, az, za"})
	}

	var minTotal int64
	if raw := strings.TrimSpace(q.Get("min_total")); raw != "" {
		minTotal, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || minTotal < 0 {
			errs = append(errs, FieldError{Field: "min_total", Message: "must be a non-negative whole number"})
		}
	}

	return leaderboard.Filter{
		Search:   q.Get("search"),
		MinTotal: minTotal,
		Sort:     sort,
	}, errs
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	filter, fields := parseLeaderboardFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	donors, err := h.leaderboard.BuildLeaderboard(r.Context(), filter)
	if err != nil {
		logFailure(r, "failed to build leaderboard", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]donorAggregateDTO, len(donors))
	for i, d := range donors {
		entries := make([]leaderboardEntryDTO, len(d.Donations))
		for j, e := range d.Donations {
			entries[j] = leaderboardEntryDTO{
				FundraiserID:  e.FundraiserID,
				Creator:       toIdentityDTO(e.Creator),
				Amount:        e.Amount,
				AmountDisplay: h.money.Format(e.Amount),
				Timestamp:     e.Timestamp,
			}
		}
		dtos[i] = donorAggregateDTO{
			Rank:         i + 1,
			Donor:        toIdentityDTO(d.Donor),
			TotalAmount:  d.TotalAmount,
			TotalDisplay: h.money.Format(d.TotalAmount),
			Donations:    entries,
		}
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
