package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
	"github.com/pkordes/charter-broker/internal/matching"
)

// ---- requests --------------------------------------------------------------

// LocationBody is a pickup or destination as extracted at intake.
type LocationBody struct {
	RawInput     string     `json:"raw_input"`
	ResolvedName string     `json:"resolved_name,omitempty"`
	Coordinates  *geo.Point `json:"coordinates,omitempty"`
	Confidence   string     `json:"confidence"`
}

// CreateRequestBody is the POST /requests payload.
type CreateRequestBody struct {
	RequesterName  string       `json:"requester_name"`
	RequesterEmail string       `json:"requester_email"`
	Pickup         LocationBody `json:"pickup"`
	Destination    LocationBody `json:"destination"`
	PassengerCount int          `json:"passenger_count"`
	DepartureAt    time.Time    `json:"departure_at"`
	Notes          string       `json:"notes,omitempty"`
}

// Request is the JSON shape of a charter request.
type Request struct {
	ID              uuid.UUID       `json:"id"`
	RequesterName   string          `json:"requester_name,omitempty"`
	RequesterEmail  string          `json:"requester_email"`
	Pickup          LocationBody    `json:"pickup"`
	Destination     LocationBody    `json:"destination"`
	PassengerCount  int             `json:"passenger_count"`
	DepartureAt     time.Time       `json:"departure_at"`
	Notes           string          `json:"notes,omitempty"`
	Status          domain.Status   `json:"status"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	QuoteDeadline   *time.Time      `json:"quote_deadline,omitempty"`
	Urgency         *domain.Urgency `json:"urgency,omitempty"`
	AcceptedQuoteID *uuid.UUID      `json:"accepted_quote_id,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// RequestList is a page of requests.
type RequestList struct {
	Data       []Request  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PublishResponse carries the published request and the operators it was
// matched to, nearest first.
type PublishResponse struct {
	Request           Request             `json:"request"`
	EligibleOperators []matching.Eligible `json:"eligible_operators"`
}

// Event is one entry in a request's status history.
type Event struct {
	ID        int64         `json:"id"`
	From      domain.Status `json:"from"`
	To        domain.Status `json:"to"`
	Event     string        `json:"event"`
	CreatedAt time.Time     `json:"created_at"`
}

// Match is an operator a request was matched to; rank 0 is the nearest.
type Match struct {
	OperatorID uuid.UUID `json:"operator_id"`
	DistanceKm float64   `json:"distance_km"`
	Rank       int       `json:"rank"`
}

func bodyToRequest(b CreateRequestBody) (domain.CharterRequest, error) {
	pickup, err := bodyToLocation("pickup", b.Pickup)
	if err != nil {
		return domain.CharterRequest{}, err
	}
	dest, err := bodyToLocation("destination", b.Destination)
	if err != nil {
		return domain.CharterRequest{}, err
	}
	return domain.CharterRequest{
		RequesterName:  b.RequesterName,
		RequesterEmail: b.RequesterEmail,
		Pickup:         pickup,
		Destination:    dest,
		PassengerCount: b.PassengerCount,
		DepartureAt:    b.DepartureAt.UTC(),
		Notes:          b.Notes,
	}, nil
}

func bodyToLocation(name string, b LocationBody) (domain.Location, error) {
	loc := domain.Location{RawInput: b.RawInput, ResolvedName: b.ResolvedName, Coordinates: b.Coordinates}
	if b.Confidence == "" {
		return loc, nil
	}
	c, err := domain.ParseConfidence(b.Confidence)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: %s.confidence must be low, medium or high", domain.ErrValidation, name)
	}
	loc.Confidence = c
	return loc, nil
}

func locationToBody(l domain.Location) LocationBody {
	b := LocationBody{RawInput: l.RawInput, ResolvedName: l.ResolvedName, Coordinates: l.Coordinates}
	if l.Confidence.Valid() {
		b.Confidence = l.Confidence.String()
	}
	return b
}

// requestToResponse converts a domain request. Urgency is included once the
// request has a quote deadline.
func requestToResponse(r domain.CharterRequest, now time.Time) Request {
	out := Request{
		ID:              r.ID,
		RequesterName:   r.RequesterName,
		RequesterEmail:  r.RequesterEmail,
		Pickup:          locationToBody(r.Pickup),
		Destination:     locationToBody(r.Destination),
		PassengerCount:  r.PassengerCount,
		DepartureAt:     r.DepartureAt,
		Notes:           r.Notes,
		Status:          r.Status(),
		PublishedAt:     r.PublishedAt(),
		QuoteDeadline:   r.QuoteDeadline(),
		AcceptedQuoteID: r.AcceptedQuoteID,
		CancelledAt:     r.CancelledAt(),
		CompletedAt:     r.CompletedAt(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.QuoteDeadline() != nil {
		u := r.Urgency(now)
		out.Urgency = &u
	}
	return out
}

func requestsToResponse(reqs []domain.CharterRequest, now time.Time) []Request {
	out := make([]Request, len(reqs))
	for i, r := range reqs {
		out[i] = requestToResponse(r, now)
	}
	return out
}

func eventToResponse(e domain.RequestEvent) Event {
	return Event{ID: e.ID, From: e.From, To: e.To, Event: e.Event, CreatedAt: e.CreatedAt}
}

// ---- quotes ----------------------------------------------------------------

// SubmitQuoteBody is the POST /requests/{id}/quotes payload.
// price.amount is in minor currency units.
type SubmitQuoteBody struct {
	OperatorID uuid.UUID    `json:"operator_id"`
	Price      domain.Money `json:"price"`
	Notes      string       `json:"notes,omitempty"`
}

// Quote is the JSON shape of an operator quote.
type Quote struct {
	ID         uuid.UUID          `json:"id"`
	RequestID  uuid.UUID          `json:"request_id"`
	OperatorID uuid.UUID          `json:"operator_id"`
	Price      domain.Money       `json:"price"`
	Notes      string             `json:"notes,omitempty"`
	Status     domain.QuoteStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

func quoteToResponse(q domain.Quote) Quote {
	return Quote{
		ID:         q.ID,
		RequestID:  q.RequestID,
		OperatorID: q.OperatorID,
		Price:      q.Price,
		Notes:      q.Notes,
		Status:     q.Status,
		CreatedAt:  q.CreatedAt,
	}
}

// ---- operators -------------------------------------------------------------

// CreateOperatorBody is the POST /operators payload.
type CreateOperatorBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SetActiveBody is the PUT /operators/{id}/active payload.
type SetActiveBody struct {
	Active *bool `json:"active"`
}

// Operator is the JSON shape of an operator.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// BaseLocationBody names an operator's base and optionally pins it.
type BaseLocationBody struct {
	Name        string     `json:"name"`
	Coordinates *geo.Point `json:"coordinates,omitempty"`
}

// CoverageBody is the PUT /operators/{id}/coverage payload.
type CoverageBody struct {
	BaseLocation     BaseLocationBody     `json:"base_location"`
	CoverageRadiusKm float64              `json:"coverage_radius_km"`
	Capacity         domain.CapacityRange `json:"capacity"`
}

// Coverage is the JSON shape of an operator's stored coverage.
type Coverage struct {
	OperatorID       uuid.UUID            `json:"operator_id"`
	BaseLocation     BaseLocationBody     `json:"base_location"`
	IsGeocoded       bool                 `json:"is_geocoded"`
	GeocodingError   string               `json:"geocoding_error,omitempty"`
	CoverageRadiusKm float64              `json:"coverage_radius_km"`
	Capacity         domain.CapacityRange `json:"capacity"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func operatorToResponse(op domain.Operator) Operator {
	return Operator{ID: op.ID, Name: op.Name, Email: op.Email, Active: op.Active, CreatedAt: op.CreatedAt}
}

func coverageToResponse(c domain.OperatorCoverage) Coverage {
	return Coverage{
		OperatorID:       c.OperatorID,
		BaseLocation:     BaseLocationBody{Name: c.BaseLocation.Name, Coordinates: c.BaseLocation.Coordinates},
		IsGeocoded:       c.IsGeocoded,
		GeocodingError:   c.GeocodingError,
		CoverageRadiusKm: c.CoverageRadiusKm,
		Capacity:         c.Capacity,
		UpdatedAt:        c.UpdatedAt,
	}
}
