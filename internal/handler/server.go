// Package handler implements the HTTP API of the charter broker.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, request.go, quote.go, operator.go) but share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/matching"
)

// RequestServicer defines the request lifecycle operations the handlers
// depend on. *service.RequestService satisfies it; tests inject a mock.
type RequestServicer interface {
	CreateDraft(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error)
	Get(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	List(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)
	ListEligibleForOperator(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.RequestEvent, error)
	Matches(ctx context.Context, id uuid.UUID) ([]domain.Match, error)
	SubmitForReview(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	Publish(ctx context.Context, id uuid.UUID) (domain.CharterRequest, []matching.Eligible, error)
	AcceptQuote(ctx context.Context, id, quoteID uuid.UUID) (domain.CharterRequest, error)
	Complete(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	GetUrgency(ctx context.Context, id uuid.UUID, now *time.Time) (domain.Urgency, error)
	GetRankedQuotes(ctx context.Context, id uuid.UUID) ([]domain.Quote, error)
}

// QuoteServicer accepts operator quotes.
type QuoteServicer interface {
	SubmitQuote(ctx context.Context, q domain.Quote) (domain.Quote, error)
}

// OperatorServicer manages operators and their coverage.
type OperatorServicer interface {
	CreateOperator(ctx context.Context, op domain.Operator) (domain.Operator, error)
	GetOperator(ctx context.Context, id uuid.UUID) (domain.Operator, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error)
	UpsertCoverage(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error)
	GetCoverage(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error)
	DeleteCoverage(ctx context.Context, operatorID uuid.UUID) error
}

// SignalReader lists requests that matched no operator. *matching.RedisSignals
// satisfies it.
type SignalReader interface {
	NoCoverageSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// Server serves every API endpoint. Wire it in main.go via Server.Handler.
type Server struct {
	requests  RequestServicer
	quotes    QuoteServicer
	operators OperatorServicer
	signals   SignalReader
	log       *slog.Logger
	now       func() time.Time
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(requests RequestServicer, quotes QuoteServicer, operators OperatorServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		requests:  requests,
		quotes:    quotes,
		operators: operators,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithSignals enables GET /signals/no-coverage.
func (s *Server) WithSignals(signals SignalReader) *Server {
	s.signals = signals
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}
