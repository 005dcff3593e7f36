// Package matching decides which operators may see a published charter
// request and dispatches the result to the notification collaborator.
package matching

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
)

// Eligible is an operator whose coverage matches a request.
type Eligible struct {
	OperatorID uuid.UUID `json:"operator_id"`
	DistanceKm float64   `json:"distance_km"`
}

// Match returns the operators whose coverage contains the request pickup and
// whose capacity range contains the passenger count, nearest first with ties
// broken by operator id.
//
// A coverage row that cannot be evaluated (not geocoded, missing or invalid
// coordinates, negative radius) is skipped; it never makes Match fail and its
// GeocodingError is left as is. A request without pickup coordinates matches
// nobody. The result is never nil.
func Match(req domain.CharterRequest, coverages []domain.OperatorCoverage) []Eligible {
	out := []Eligible{}
	pickup := req.Pickup.Coordinates
	if pickup == nil || !pickup.Valid() {
		return out
	}

	for _, c := range coverages {
		d, ok := distanceWithin(c, *pickup)
		if !ok {
			continue
		}
		if !c.Capacity.Contains(req.PassengerCount) {
			continue
		}
		out = append(out, Eligible{OperatorID: c.OperatorID, DistanceKm: d})
	}

	slices.SortFunc(out, func(a, b Eligible) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return bytes.Compare(a.OperatorID[:], b.OperatorID[:])
	})
	return out
}

// distanceWithin reports the distance from the coverage base to pickup and
// whether pickup lies inside the coverage radius.
func distanceWithin(c domain.OperatorCoverage, pickup geo.Point) (float64, bool) {
	base := c.BaseLocation.Coordinates
	if !c.IsGeocoded || base == nil || !base.Valid() {
		return 0, false
	}
	if c.CoverageRadiusKm < 0 {
		return 0, false
	}
	d := geo.DistanceKm(*base, pickup)
	return d, d <= c.CoverageRadiusKm
}

// OperatorIDs flattens an eligible list into ids, preserving order.
func OperatorIDs(eligible []Eligible) []uuid.UUID {
	ids := make([]uuid.UUID, len(eligible))
	for i, e := range eligible {
		ids[i] = e.OperatorID
	}
	return ids
}
