package domain

import (
	"time"

	"github.com/google/uuid"
)

// Donation is the cumulative contribution of one donor to one fundraiser.
// Repeat donations are merged into the same record: Amount grows and
// Timestamp moves to the latest contribution.
type Donation struct {
	ID           uuid.UUID
	FundraiserID uuid.UUID
	DonorID      uuid.UUID
	Amount       int64
	Timestamp    time.Time
	CreatedAt    time.Time
}
