package domain

import "time"

// QuoteWindow is how long operators have to quote after a request is published.
const QuoteWindow = 24 * time.Hour

// Urgency is the derived state of a request's quote window.
type Urgency struct {
	HoursRemaining int  `json:"hours_remaining"`
	IsPassed       bool `json:"is_passed"`
}

// ComputeUrgency reports how much of the quote window remains at now.
// A nil deadline (request not yet published) yields the zero Urgency.
// HoursRemaining counts whole hours only and never goes below zero.
func ComputeUrgency(deadline *time.Time, now time.Time) Urgency {
	if deadline == nil {
		return Urgency{}
	}
	delta := deadline.Sub(now)
	if delta <= 0 {
		return Urgency{HoursRemaining: 0, IsPassed: true}
	}
	return Urgency{HoursRemaining: int(delta / time.Hour)}
}
