// Package updatelock derives whether a published card may currently be
// mutated. There is no stored state machine: eligibility is always computed
// from the free period, the endorsement/payment unlock window and the
// payment flag. The can_update column on the card is only a cached mirror.
package updatelock

import (
	"time"

	"github.com/ameibeauty/cards/app/models"
)

const (
	// Endorsement thresholds and the months they unlock.
	ThresholdSixMonths    = 6
	ThresholdTwelveMonths = 10

	MonthsAtSix    = 6
	MonthsAtTwelve = 12

	// Paid unlock price, mirrored into lock details for the UX error body.
	PaymentAmountUSD = 10
	PaymentCurrency  = "USD"
	PaidMonths       = 12
)

// CanUpdate reports whether the card is mutable at the given instant.
func CanUpdate(card *models.Card, now time.Time) bool {
	if !now.After(card.FreePeriodEnd) {
		return true
	}
	if card.UpdatesEnabledUntil != nil && !now.After(*card.UpdatesEnabledUntil) {
		return true
	}
	return card.IsPaid()
}

// LockDetails carries the guidance returned with an update-lock rejection.
// This error is UX-facing, not security-sensitive.
type LockDetails struct {
	EndorsementCount int    `json:"endorsement_count"`
	Needed           int    `json:"needed"`
	PaymentOption    bool   `json:"payment_option"`
	PaymentAmount    int    `json:"payment_amount"`
	PaymentCurrency  string `json:"payment_currency"`
}

// Details describes what would unlock updates for a locked card.
func Details(card *models.Card) LockDetails {
	needed := ThresholdSixMonths
	if card.EndorsementCount >= ThresholdSixMonths {
		needed = ThresholdTwelveMonths
	}
	return LockDetails{
		EndorsementCount: card.EndorsementCount,
		Needed:           needed,
		PaymentOption:    true,
		PaymentAmount:    PaymentAmountUSD,
		PaymentCurrency:  PaymentCurrency,
	}
}
