package handler

import (
	"net/http"

	"github.com/pkordes/charter-broker/internal/domain"
)

// SubmitQuote handles POST /requests/{id}/quotes.
func (s *Server) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	var body SubmitQuoteBody
	if err := decodeJSON(r, &body); err != nil {
		badBody(w, err)
		return
	}

	q, err := s.quotes.SubmitQuote(r.Context(), domain.Quote{
		RequestID:  id,
		OperatorID: body.OperatorID,
		Price:      body.Price,
		Notes:      body.Notes,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quoteToResponse(q))
}

// GetRankedQuotes handles GET /requests/{id}/quotes: cheapest first, ties
// in submission order.
func (s *Server) GetRankedQuotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	quotes, err := s.requests.GetRankedQuotes(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	out := make([]Quote, len(quotes))
	for i, q := range quotes {
		out[i] = quoteToResponse(q)
	}
	writeJSON(w, http.StatusOK, out)
}

// AcceptQuote handles POST /requests/{id}/quotes/{quoteId}/accept.
func (s *Server) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	quoteID, err := pathUUID(r, "quoteId")
	if err != nil {
		badParam(w, err)
		return
	}
	req, err := s.requests.AcceptQuote(r.Context(), id, quoteID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestToResponse(req, s.now()))
}
