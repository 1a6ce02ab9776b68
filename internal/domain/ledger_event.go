package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LedgerEventType string

const (
	LedgerEventTypeDonationRecorded    LedgerEventType = "donation.recorded"
	LedgerEventTypeFundraiserClosed    LedgerEventType = "fundraiser.closed"
	LedgerEventTypeWithdrawalRequested LedgerEventType = "withdrawal.requested"
)

type LedgerEventStatus string

const (
	LedgerEventStatusPending    LedgerEventStatus = "pending"
	LedgerEventStatusDispatched LedgerEventStatus = "dispatched"
	LedgerEventStatusFailed     LedgerEventStatus = "failed"
)

// LedgerEvent is an outbox row written in the same transaction as the
// ledger mutation it describes.
type LedgerEvent struct {
	ID           uuid.UUID
	FundraiserID uuid.UUID
	EventType    LedgerEventType
	Payload      json.RawMessage
	Status       LedgerEventStatus
	Attempts     int
	LastAttempt  *time.Time
	CreatedAt    time.Time
}
