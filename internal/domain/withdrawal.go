package domain

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalMethod string

const (
	WithdrawalMethodGPay    WithdrawalMethod = "GPay"
	WithdrawalMethodPhonePe WithdrawalMethod = "PhonePe"
	WithdrawalMethodPaytm   WithdrawalMethod = "Paytm"
	WithdrawalMethodUPI     WithdrawalMethod = "UPI"
	WithdrawalMethodBank    WithdrawalMethod = "Bank"
)

var withdrawalMethods = []WithdrawalMethod{
	WithdrawalMethodGPay,
	WithdrawalMethodPhonePe,
	WithdrawalMethodPaytm,
	WithdrawalMethodUPI,
	WithdrawalMethodBank,
}

func WithdrawalMethods() []WithdrawalMethod {
	out := make([]WithdrawalMethod, len(withdrawalMethods))
	copy(out, withdrawalMethods)
	return out
}

func (m WithdrawalMethod) IsValid() bool {
	for _, v := range withdrawalMethods {
		if m == v {
			return true
		}
	}
	return false
}

// Withdrawal records a payout request. It is never settled by the ledger.
type Withdrawal struct {
	ID           uuid.UUID
	FundraiserID uuid.UUID
	RequesterID  uuid.UUID
	Amount       int64
	Method       WithdrawalMethod
	Timestamp    time.Time
}
