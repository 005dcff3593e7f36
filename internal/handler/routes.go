package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Route is one entry of the operation table.
type Route struct {
	Operation string
	Method    string
	Pattern   string
	handle    http.HandlerFunc
}

// Routes returns the operation table. Handler registers exactly these.
func (s *Server) Routes() []Route {
	return []Route{
		{"health", http.MethodGet, "/healthz", s.GetHealth},
		{"openapi", http.MethodGet, "/openapi.yaml", s.GetOpenAPI},

		{"createDraft", http.MethodPost, "/requests", s.CreateDraft},
		{"listRequests", http.MethodGet, "/requests", s.ListRequests},
		{"getRequest", http.MethodGet, "/requests/{id}", s.GetRequest},
		{"getHistory", http.MethodGet, "/requests/{id}/events", s.GetHistory},
		{"getMatches", http.MethodGet, "/requests/{id}/matches", s.GetMatches},
		{"submitForReview", http.MethodPost, "/requests/{id}/submit", s.SubmitForReview},
		{"publish", http.MethodPost, "/requests/{id}/publish", s.Publish},
		{"complete", http.MethodPost, "/requests/{id}/complete", s.Complete},
		{"cancel", http.MethodPost, "/requests/{id}/cancel", s.Cancel},
		{"getUrgency", http.MethodGet, "/requests/{id}/urgency", s.GetUrgency},
		{"submitQuote", http.MethodPost, "/requests/{id}/quotes", s.SubmitQuote},
		{"getRankedQuotes", http.MethodGet, "/requests/{id}/quotes", s.GetRankedQuotes},
		{"acceptQuote", http.MethodPost, "/requests/{id}/quotes/{quoteId}/accept", s.AcceptQuote},

		{"createOperator", http.MethodPost, "/operators", s.CreateOperator},
		{"getOperator", http.MethodGet, "/operators/{id}", s.GetOperator},
		{"setOperatorActive", http.MethodPut, "/operators/{id}/active", s.SetOperatorActive},
		{"upsertCoverage", http.MethodPut, "/operators/{id}/coverage", s.UpsertCoverage},
		{"getCoverage", http.MethodGet, "/operators/{id}/coverage", s.GetCoverage},
		{"deleteCoverage", http.MethodDelete, "/operators/{id}/coverage", s.DeleteCoverage},
		{"listEligibleRequests", http.MethodGet, "/operators/{id}/requests", s.ListEligibleRequests},

		{"listNoCoverage", http.MethodGet, "/signals/no-coverage", s.ListNoCoverage},
	}
}

// Handler builds a chi router from the operation table. Unknown paths and
// methods get the standard JSON error body.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, rt := range s.Routes() {
		r.Method(rt.Method, rt.Pattern, rt.handle)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}
