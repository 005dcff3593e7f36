package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/geo"
)

// CapacityRange is an inclusive passenger-count range an operator can carry.
type CapacityRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether n passengers fall inside the range.
func (c CapacityRange) Contains(n int) bool {
	return c.Min <= n && n <= c.Max
}

// BaseLocation is where an operator's vehicles are kept. Name is what the
// operator typed; Coordinates is set only after a successful geocode.
type BaseLocation struct {
	Name        string
	Coordinates *geo.Point
}

// OperatorCoverage is an operator's declared service area and capacity.
// It belongs to the operator and is referenced, never owned, by matches and
// quotes.
type OperatorCoverage struct {
	OperatorID       uuid.UUID
	BaseLocation     BaseLocation
	IsGeocoded       bool
	GeocodingError   string
	CoverageRadiusKm float64
	Capacity         CapacityRange
	UpdatedAt        time.Time
}

// Operator is a transport company that can receive published requests.
// Only active operators take part in matching.
type Operator struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// Match is one eligible operator recorded when a request was published.
// Rank is the zero-based position in notification order.
type Match struct {
	RequestID  uuid.UUID
	OperatorID uuid.UUID
	DistanceKm float64
	Rank       int
	CreatedAt  time.Time
}

// RequestEvent is an audit row for one status change.
type RequestEvent struct {
	ID        int64
	RequestID uuid.UUID
	From      Status
	To        Status
	Event     string
	CreatedAt time.Time
}
