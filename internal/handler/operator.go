package handler

import (
	"fmt"
	"net/http"

	"github.com/pkordes/charter-broker/internal/domain"
)

// CreateOperator handles POST /operators.
func (s *Server) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var body CreateOperatorBody
	if err := decodeJSON(r, &body); err != nil {
		badBody(w, err)
		return
	}
	op, err := s.operators.CreateOperator(r.Context(), domain.Operator{Name: body.Name, Email: body.Email})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, operatorToResponse(op))
}

// GetOperator handles GET /operators/{id}.
func (s *Server) GetOperator(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	op, err := s.operators.GetOperator(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operatorToResponse(op))
}

// SetOperatorActive handles PUT /operators/{id}/active.
func (s *Server) SetOperatorActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	var body SetActiveBody
	if err := decodeJSON(r, &body); err != nil {
		badBody(w, err)
		return
	}
	if body.Active == nil {
		s.respondErr(w, r, fmt.Errorf("%w: active is required", domain.ErrValidation))
		return
	}
	op, err := s.operators.SetActive(r.Context(), id, *body.Active)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operatorToResponse(op))
}

// UpsertCoverage handles PUT /operators/{id}/coverage. Without explicit
// coordinates the base location is geocoded; a failed lookup still saves
// the coverage with is_geocoded=false.
func (s *Server) UpsertCoverage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	var body CoverageBody
	if err := decodeJSON(r, &body); err != nil {
		badBody(w, err)
		return
	}
	saved, err := s.operators.UpsertCoverage(r.Context(), domain.OperatorCoverage{
		OperatorID:       id,
		BaseLocation:     domain.BaseLocation{Name: body.BaseLocation.Name, Coordinates: body.BaseLocation.Coordinates},
		CoverageRadiusKm: body.CoverageRadiusKm,
		Capacity:         body.Capacity,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coverageToResponse(saved))
}

// GetCoverage handles GET /operators/{id}/coverage.
func (s *Server) GetCoverage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	c, err := s.operators.GetCoverage(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coverageToResponse(c))
}

// DeleteCoverage handles DELETE /operators/{id}/coverage.
func (s *Server) DeleteCoverage(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	if err := s.operators.DeleteCoverage(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEligibleRequests handles GET /operators/{id}/requests: the open
// requests this operator was matched to.
func (s *Server) ListEligibleRequests(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	params, err := pageParams(r)
	if err != nil {
		badParam(w, err)
		return
	}
	reqs, total, err := s.requests.ListEligibleForOperator(r.Context(), id, params)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RequestList{
		Data:       requestsToResponse(reqs, s.now()),
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}
