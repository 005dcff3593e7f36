package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus tracks the outcome of a single operator quote.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Money is an amount in the currency's minor unit (cents for AUD/USD).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Quote is an operator's priced offer against a charter request.
// A request owns its quotes; they are deleted with it.
type Quote struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	OperatorID uuid.UUID
	Price      Money
	Notes      string
	Status     QuoteStatus
	CreatedAt  time.Time
}
