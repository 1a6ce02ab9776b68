package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/rewards"
)

type rewardsService interface {
	UnlockedTiers(ctx context.Context, creatorID uuid.UUID) (*rewards.Summary, error)
}

type RewardsHandler struct {
	rewards rewardsService
	money   *MoneyFormatter
}

func NewRewardsHandler(svc rewardsService, money *MoneyFormatter) *RewardsHandler {
	return &RewardsHandler{rewards: svc, money: money}
}

type tierProgressDTO struct {
	Name      string `json:"name"`
	Threshold int64  `json:"threshold"`
	Unlocked  bool   `json:"unlocked"`
	Remaining int64  `json:"remaining"`
	Progress  string `json:"progress"`
}

type rewardsDTO struct {
	CreatorID    uuid.UUID         `json:"creator_id"`
	TotalRaised  int64             `json:"total_raised"`
	TotalDisplay string            `json:"total_display"`
	Unlocked     []string          `json:"unlocked"`
	Tiers        []tierProgressDTO `json:"tiers"`
	Next         *tierProgressDTO  `json:"next"`
}

func toTierProgressDTO(p rewards.TierProgress) tierProgressDTO {
	return tierProgressDTO{
		Name:      string(p.Name),
		Threshold: p.Threshold,
		Unlocked:  p.Unlocked,
		Remaining: p.Remaining,
		Progress:  p.Progress.StringFixed(2),
	}
}

func (h *RewardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	creatorID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	summary, err := h.rewards.UnlockedTiers(r.Context(), creatorID)
	if err != nil {
		logFailure(r, "failed to evaluate rewards", err)
		RespondDomainError(w, err)
		return
	}

	dto := rewardsDTO{
		CreatorID:    creatorID,
		TotalRaised:  summary.Total,
		TotalDisplay: h.money.Format(summary.Total),
		Unlocked:     make([]string, len(summary.Unlocked)),
		Tiers:        make([]tierProgressDTO, len(summary.Tiers)),
	}
	for i, name := range summary.Unlocked {
		dto.Unlocked[i] = string(name)
	}
	for i, p := range summary.Tiers {
		dto.Tiers[i] = toTierProgressDTO(p)
	}
	if summary.Next != nil {
		next := toTierProgressDTO(*summary.Next)
		dto.Next = &next
	}

	RespondSuccess(w, http.StatusOK, dto)
}
