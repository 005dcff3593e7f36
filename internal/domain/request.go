// Package domain contains the core data types and pure rules of the charter
// broker: the request lifecycle, deadline urgency and quote ranking.
// It has no I/O and is imported by every other internal package.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/geo"
)

// Confidence is how sure the upstream resolver was about a location.
type Confidence uint8

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = map[Confidence]string{
	ConfidenceLow:    "low",
	ConfidenceMedium: "medium",
	ConfidenceHigh:   "high",
}

// ParseConfidence converts a wire/persisted name into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	for c, n := range confidenceNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown confidence %q", ErrValidation, s)
}

// Valid reports whether c is one of the declared levels.
func (c Confidence) Valid() bool {
	_, ok := confidenceNames[c]
	return ok
}

func (c Confidence) String() string {
	if n, ok := confidenceNames[c]; ok {
		return n
	}
	return "invalid"
}

func (c Confidence) MarshalText() ([]byte, error) {
	if _, ok := confidenceNames[c]; !ok {
		return nil, fmt.Errorf("domain.Confidence: marshal invalid value %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(b []byte) error {
	v, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Location is a place named by the requester and, when geocoding succeeded,
// its resolved coordinates. Coordinates is nil when resolution failed; such a
// location can never be geo-matched.
type Location struct {
	RawInput     string
	ResolvedName string
	Coordinates  *geo.Point
	Confidence   Confidence
}

// CharterRequest is the aggregate root: a requester's single-leg trip moving
// through the lifecycle. Status and the lifecycle timestamps are unexported;
// the transition methods below are the only way to change them.
type CharterRequest struct {
	ID              uuid.UUID
	RequesterName   string
	RequesterEmail  string
	Pickup          Location
	Destination     Location
	PassengerCount  int
	DepartureAt     time.Time
	Notes           string
	AcceptedQuoteID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time

	status        Status
	publishedAt   *time.Time
	quoteDeadline *time.Time
	cancelledAt   *time.Time
	completedAt   *time.Time
}

// LifecycleState is the persisted form of a request's lifecycle fields.
type LifecycleState struct {
	Status        Status
	PublishedAt   *time.Time
	QuoteDeadline *time.Time
	CancelledAt   *time.Time
	CompletedAt   *time.Time
}

// Transition records one applied lifecycle event.
type Transition struct {
	From  Status
	To    Status
	Event Event
	At    time.Time
}

// Changed is false for idempotent re-entries such as a second recorded quote.
func (t Transition) Changed() bool { return t.From != t.To }

// NewDraft returns r placed in the Draft status with every lifecycle
// timestamp cleared. Intake uses it to create new requests.
func NewDraft(r CharterRequest) CharterRequest {
	r.status = StatusDraft
	r.publishedAt = nil
	r.quoteDeadline = nil
	r.cancelledAt = nil
	r.completedAt = nil
	r.AcceptedQuoteID = nil
	return r
}

// Restore rebuilds lifecycle fields from storage. Only the persistence layer
// should call it; everything else goes through the transition methods.
func (r *CharterRequest) Restore(s LifecycleState) error {
	if s.Status.IsZero() {
		return fmt.Errorf("domain.CharterRequest.Restore: zero status")
	}
	r.status = s.Status
	r.publishedAt = s.PublishedAt
	r.quoteDeadline = s.QuoteDeadline
	r.cancelledAt = s.CancelledAt
	r.completedAt = s.CompletedAt
	return nil
}

// Lifecycle returns the lifecycle fields for persistence.
func (r CharterRequest) Lifecycle() LifecycleState {
	return LifecycleState{
		Status:        r.status,
		PublishedAt:   r.publishedAt,
		QuoteDeadline: r.quoteDeadline,
		CancelledAt:   r.cancelledAt,
		CompletedAt:   r.completedAt,
	}
}

func (r CharterRequest) Status() Status            { return r.status }
func (r CharterRequest) PublishedAt() *time.Time   { return r.publishedAt }
func (r CharterRequest) QuoteDeadline() *time.Time { return r.quoteDeadline }
func (r CharterRequest) CancelledAt() *time.Time   { return r.cancelledAt }
func (r CharterRequest) CompletedAt() *time.Time   { return r.completedAt }

// Urgency derives the quote-window state at now.
func (r CharterRequest) Urgency(now time.Time) Urgency {
	return ComputeUrgency(r.quoteDeadline, now)
}

// SubmitForReview moves a Draft into UnderReview.
func (r *CharterRequest) SubmitForReview(now time.Time) (Transition, error) {
	return r.apply(EventSubmitForReview, now)
}

// Publish moves an UnderReview request to Published and opens the quote
// window. publishedAt and quoteDeadline are written here and nowhere else.
func (r *CharterRequest) Publish(now time.Time) (Transition, error) {
	if r.publishedAt != nil {
		return Transition{}, &TransitionError{From: r.status, Event: EventPublish}
	}
	t, err := r.apply(EventPublish, now)
	if err != nil {
		return Transition{}, err
	}
	published := now
	deadline := now.Add(QuoteWindow)
	r.publishedAt = &published
	r.quoteDeadline = &deadline
	return t, nil
}

// RecordQuote notes that a quote landed. Re-entering QuotesReceived is a no-op
// and the returned Transition reports Changed() == false.
func (r *CharterRequest) RecordQuote(now time.Time) (Transition, error) {
	return r.apply(EventRecordQuote, now)
}

// Accept moves the request to Accepted with q as the winning quote.
// q must belong to this request, otherwise ErrQuoteNotFound is returned.
func (r *CharterRequest) Accept(q Quote, now time.Time) (Transition, error) {
	if q.RequestID != r.ID {
		return Transition{}, ErrQuoteNotFound
	}
	t, err := r.apply(EventAccept, now)
	if err != nil {
		return Transition{}, err
	}
	id := q.ID
	r.AcceptedQuoteID = &id
	return t, nil
}

// Complete closes an Accepted request. Completed is terminal.
func (r *CharterRequest) Complete(now time.Time) (Transition, error) {
	t, err := r.apply(EventComplete, now)
	if err != nil {
		return Transition{}, err
	}
	at := now
	r.completedAt = &at
	return t, nil
}

// Cancel moves any non-terminal request to Cancelled.
func (r *CharterRequest) Cancel(now time.Time) (Transition, error) {
	t, err := r.apply(EventCancel, now)
	if err != nil {
		return Transition{}, err
	}
	at := now
	r.cancelledAt = &at
	return t, nil
}

func (r *CharterRequest) apply(ev Event, now time.Time) (Transition, error) {
	next, err := Next(r.status, ev)
	if err != nil {
		return Transition{}, err
	}
	t := Transition{From: r.status, To: next, Event: ev, At: now}
	r.status = next
	if t.Changed() {
		r.UpdatedAt = now
	}
	return t, nil
}
