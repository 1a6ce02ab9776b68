package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FundraiserStatus string

const (
	FundraiserStatusOpen   FundraiserStatus = "open"
	FundraiserStatusClosed FundraiserStatus = "closed"
)

func (s FundraiserStatus) IsValid() bool {
	return s == FundraiserStatusOpen || s == FundraiserStatusClosed
}

type Fundraiser struct {
	ID          uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Category    string
	Description string
	Goal        int64
	Raised      int64
	Withdrawn   int64
	Status      FundraiserStatus
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// FundraiserFilter narrows a fundraiser listing. Zero values match
// everything.
type FundraiserFilter struct {
	Search    string
	Category  string
	ExcludeID uuid.UUID
	Limit     int
}

// FundraiserDetails is the descriptive part of a fundraiser. Nil fields are
// left unchanged by an edit.
type FundraiserDetails struct {
	Title       *string
	Category    *string
	Description *string
}

// Available is the balance the creator may still withdraw.
func (f *Fundraiser) Available() int64 {
	return f.Raised - f.Withdrawn
}

// Remaining is the gap left before the goal is reached. Never negative.
func (f *Fundraiser) Remaining() int64 {
	if f.Raised >= f.Goal {
		return 0
	}
	return f.Goal - f.Raised
}

// PercentFunded returns raised/goal as a percentage truncated to two
// decimal places and capped at 100.
func (f *Fundraiser) PercentFunded() decimal.Decimal {
	if f.Goal <= 0 {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	pct := decimal.NewFromInt(f.Raised).Mul(hundred).Div(decimal.NewFromInt(f.Goal)).Truncate(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// StatusAfterRaise derives the status for a new raised total. Closed is
// sticky: a closed fundraiser never reopens.
func (f *Fundraiser) StatusAfterRaise(newRaised int64) FundraiserStatus {
	if f.Status == FundraiserStatusClosed || newRaised >= f.Goal {
		return FundraiserStatusClosed
	}
	return FundraiserStatusOpen
}
