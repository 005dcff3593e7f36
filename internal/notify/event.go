// Package notify carries broker notifications over Kafka. The API process
// produces events after a transaction commits; cmd/notifier consumes them
// and hands each one to a Sender.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeRequestPublished = "request.published"
	TypeQuoteReceived    = "quote.received"
)

// Event is the JSON payload of every notification message. Fields that do
// not apply to a Type are left empty.
type Event struct {
	Type      string    `json:"type"`
	RequestID uuid.UUID `json:"request_id"`
	At        time.Time `json:"at"`

	// request.published: one event per eligible operator.
	OperatorID      uuid.UUID  `json:"operator_id,omitzero"`
	PickupName      string     `json:"pickup_name,omitempty"`
	DestinationName string     `json:"destination_name,omitempty"`
	PassengerCount  int        `json:"passenger_count,omitempty"`
	DepartureAt     *time.Time `json:"departure_at,omitempty"`
	QuoteDeadline   *time.Time `json:"quote_deadline,omitempty"`

	// quote.received
	QuoteID        uuid.UUID `json:"quote_id,omitzero"`
	RequesterName  string    `json:"requester_name,omitempty"`
	RequesterEmail string    `json:"requester_email,omitempty"`
	PriceAmount    int64     `json:"price_amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
}
