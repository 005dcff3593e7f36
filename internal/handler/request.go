package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/matching"
)

// CreateDraft handles POST /requests.
func (s *Server) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := decodeJSON(r, &body); err != nil {
		badBody(w, err)
		return
	}
	req, err := bodyToRequest(body)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	created, err := s.requests.CreateDraft(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestToResponse(created, s.now()))
}

// ListRequests handles GET /requests.
// Supports ?status=, ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListRequests(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		badParam(w, err)
		return
	}
	var status *string
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &status); err != nil {
		badParam(w, err)
		return
	}
	var filter domain.RequestFilter
	if status != nil {
		st, err := domain.ParseStatus(*status)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		filter.Status = st
	}

	reqs, total, err := s.requests.List(r.Context(), filter, params)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RequestList{
		Data:       requestsToResponse(reqs, s.now()),
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}

// GetRequest handles GET /requests/{id}.
func (s *Server) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req, s.now()))
}

// GetHistory handles GET /requests/{id}/events.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	events, err := s.requests.History(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = eventToResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMatches handles GET /requests/{id}/matches.
func (s *Server) GetMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	matches, err := s.requests.Matches(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = Match{OperatorID: m.OperatorID, DistanceKm: m.DistanceKm, Rank: m.Rank}
	}
	writeJSON(w, http.StatusOK, out)
}

// SubmitForReview handles POST /requests/{id}/submit.
func (s *Server) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.requests.SubmitForReview)
}

// Complete handles POST /requests/{id}/complete.
func (s *Server) Complete(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.requests.Complete)
}

// Cancel handles POST /requests/{id}/cancel.
func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.requests.Cancel)
}

// Publish handles POST /requests/{id}/publish. The response lists the
// operators the request was matched to; an empty list is not an error.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	req, eligible, err := s.requests.Publish(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if eligible == nil {
		eligible = []matching.Eligible{}
	}
	writeJSON(w, http.StatusOK, PublishResponse{
		Request:           requestToResponse(req, s.now()),
		EligibleOperators: eligible,
	})
}

// GetUrgency handles GET /requests/{id}/urgency.
// An optional ?now= (RFC 3339) evaluates urgency at that instant.
func (s *Server) GetUrgency(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	var now *time.Time
	if err := runtime.BindQueryParameter("form", true, false, "now", r.URL.Query(), &now); err != nil {
		badParam(w, err)
		return
	}
	u, err := s.requests.GetUrgency(r.Context(), id, now)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// lifecycle runs a body-less state transition on /requests/{id}/*.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	req, err := apply(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req, s.now()))
}
