// Package service contains the business logic of the charter broker.
// Services validate inputs, run lifecycle transitions inside request-scoped
// transactions and hand committed results to the notification collaborators.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/matching"
	"github.com/pkordes/charter-broker/internal/repo"
)

// Matcher runs operator matching for a freshly published request and
// dispatches the committed result. *matching.Orchestrator satisfies it.
type Matcher interface {
	MatchPublished(ctx context.Context, req domain.CharterRequest) (matching.Outcome, error)
	Dispatch(ctx context.Context, req domain.CharterRequest, out matching.Outcome)
}

// RequestService implements the charter request lifecycle.
type RequestService struct {
	requests repo.RequestRepo
	quotes   repo.QuoteRepo
	matches  repo.MatchRepo
	events   repo.EventRepo
	tx       repo.Transactor
	matcher  Matcher
	log      *slog.Logger
	now      func() time.Time
}

// NewRequestService constructs a RequestService. repos serves reads outside a
// transaction; writes go through tx. A nil now uses the UTC wall clock; a nil
// log uses slog.Default.
func NewRequestService(
	repos repo.Repos,
	tx repo.Transactor,
	matcher Matcher,
	log *slog.Logger,
	now func() time.Time,
) *RequestService {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = utcNow
	}
	return &RequestService{
		requests: repos.Requests,
		quotes:   repos.Quotes,
		matches:  repos.Matches,
		events:   repos.Events,
		tx:       tx,
		matcher:  matcher,
		log:      log,
		now:      now,
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// CreateDraft validates intake data and stores it as a new Draft request.
// Returns domain.ErrValidation if input violates business rules.
func (s *RequestService) CreateDraft(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	req.RequesterEmail = strings.TrimSpace(req.RequesterEmail)
	req.RequesterName = strings.TrimSpace(req.RequesterName)
	if err := validateDraft(req); err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.CreateDraft: %w", err)
	}

	created, err := s.requests.Create(ctx, domain.NewDraft(req))
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.CreateDraft: %w", err)
	}
	s.log.InfoContext(ctx, "charter request created", "request_id", created.ID, "passengers", created.PassengerCount)
	return created, nil
}

// Get returns a single request. Returns domain.ErrRequestNotFound if absent.
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.Get: %w", err)
	}
	return req, nil
}

// List returns one page of requests and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *RequestService) List(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	reqs, total, err := s.requests.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RequestService.List: %w", err)
	}
	if reqs == nil {
		reqs = []domain.CharterRequest{}
	}
	return reqs, total, nil
}

// ListEligibleForOperator returns the open requests an operator was matched to.
func (s *RequestService) ListEligibleForOperator(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	reqs, total, err := s.requests.ListEligibleForOperator(ctx, operatorID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RequestService.ListEligibleForOperator: %w", err)
	}
	if reqs == nil {
		reqs = []domain.CharterRequest{}
	}
	return reqs, total, nil
}

// History returns the status audit trail of a request, oldest first.
func (s *RequestService) History(ctx context.Context, id uuid.UUID) ([]domain.RequestEvent, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.RequestService.History: %w", err)
	}
	events, err := s.events.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.RequestService.History: %w", err)
	}
	if events == nil {
		events = []domain.RequestEvent{}
	}
	return events, nil
}

// SubmitForReview moves a Draft to UnderReview.
func (s *RequestService) SubmitForReview(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	req, err := s.transition(ctx, id, (*domain.CharterRequest).SubmitForReview, nil)
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.SubmitForReview: %w", err)
	}
	return req, nil
}

// Publish moves an UnderReview request to Published, matches operators
// against one coverage snapshot and stores the matches, all in one
// transaction. Once committed, the outcome is dispatched to operators or
// recorded as a no-coverage signal. A failed snapshot read aborts the publish.
func (s *RequestService) Publish(ctx context.Context, id uuid.UUID) (domain.CharterRequest, []matching.Eligible, error) {
	var out matching.Outcome
	req, err := s.transition(ctx, id, (*domain.CharterRequest).Publish,
		func(ctx context.Context, tx repo.Repos, req domain.CharterRequest) error {
			var err error
			out, err = s.matcher.MatchPublished(ctx, req)
			if err != nil {
				return err
			}
			return tx.Matches.InsertBatch(ctx, matchesFor(req.ID, out.Eligible))
		})
	if err != nil {
		return domain.CharterRequest{}, nil, fmt.Errorf("service.RequestService.Publish: %w", err)
	}

	s.log.InfoContext(ctx, "charter request published",
		"request_id", req.ID,
		"eligible_operators", len(out.Eligible),
		"quote_deadline", req.QuoteDeadline(),
	)
	s.matcher.Dispatch(ctx, req, out)
	return req, out.Eligible, nil
}

// AcceptQuote accepts quoteID on request id. The chosen quote becomes
// accepted and every other quote on the request rejected.
// Returns domain.ErrQuoteNotFound if the quote does not belong to the request.
func (s *RequestService) AcceptQuote(ctx context.Context, id, quoteID uuid.UUID) (domain.CharterRequest, error) {
	var result domain.CharterRequest
	err := s.tx.WithinRequest(ctx, id, func(ctx context.Context, tx repo.Repos, req domain.CharterRequest) error {
		q, err := tx.Quotes.GetByID(ctx, req.ID, quoteID)
		if err != nil {
			return err
		}
		t, err := req.Accept(q, s.now())
		if err != nil {
			return err
		}
		if result, err = s.save(ctx, tx, req, t); err != nil {
			return err
		}
		return tx.Quotes.SettleAccepted(ctx, req.ID, q.ID)
	})
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.AcceptQuote: %w", err)
	}
	return result, nil
}

// Complete closes an Accepted request.
func (s *RequestService) Complete(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	req, err := s.transition(ctx, id, (*domain.CharterRequest).Complete, nil)
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.Complete: %w", err)
	}
	return req, nil
}

// Cancel moves any non-terminal request to Cancelled.
func (s *RequestService) Cancel(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	req, err := s.transition(ctx, id, (*domain.CharterRequest).Cancel, nil)
	if err != nil {
		return domain.CharterRequest{}, fmt.Errorf("service.RequestService.Cancel: %w", err)
	}
	return req, nil
}

// GetUrgency reports the quote-window urgency of a request at now. A nil now
// means the service clock.
func (s *RequestService) GetUrgency(ctx context.Context, id uuid.UUID, now *time.Time) (domain.Urgency, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return domain.Urgency{}, fmt.Errorf("service.RequestService.GetUrgency: %w", err)
	}
	at := s.now()
	if now != nil {
		at = *now
	}
	return req.Urgency(at), nil
}

// Matches returns the operators a request was matched to at publish time,
// nearest first. Requests that were never published have none.
func (s *RequestService) Matches(ctx context.Context, id uuid.UUID) ([]domain.Match, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.RequestService.Matches: %w", err)
	}
	matches, err := s.matches.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.RequestService.Matches: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	return matches, nil
}

// GetRankedQuotes returns a request's quotes cheapest first; equal prices
// keep submission order.
func (s *RequestService) GetRankedQuotes(ctx context.Context, id uuid.UUID) ([]domain.Quote, error) {
	if _, err := s.requests.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.RequestService.GetRankedQuotes: %w", err)
	}
	quotes, err := s.quotes.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.RequestService.GetRankedQuotes: %w", err)
	}
	return domain.RankQuotes(quotes), nil
}

type applyFunc func(*domain.CharterRequest, time.Time) (domain.Transition, error)

// transition runs apply against the locked request, persists the result and
// then calls after, if set, with the saved request inside the same transaction.
func (s *RequestService) transition(
	ctx context.Context,
	id uuid.UUID,
	apply applyFunc,
	after repo.RequestTxFunc,
) (domain.CharterRequest, error) {
	var result domain.CharterRequest
	err := s.tx.WithinRequest(ctx, id, func(ctx context.Context, tx repo.Repos, req domain.CharterRequest) error {
		t, err := apply(&req, s.now())
		if err != nil {
			return err
		}
		if result, err = s.save(ctx, tx, req, t); err != nil {
			return err
		}
		if after != nil {
			return after(ctx, tx, result)
		}
		return nil
	})
	return result, err
}

// save writes the lifecycle fields and, for a real status change, the audit row.
func (s *RequestService) save(ctx context.Context, tx repo.Repos, req domain.CharterRequest, t domain.Transition) (domain.CharterRequest, error) {
	saved, err := tx.Requests.UpdateLifecycle(ctx, req)
	if err != nil {
		return domain.CharterRequest{}, err
	}
	if t.Changed() {
		if _, err := tx.Events.Append(ctx, req.ID, t); err != nil {
			return domain.CharterRequest{}, err
		}
	}
	return saved, nil
}

func matchesFor(requestID uuid.UUID, eligible []matching.Eligible) []domain.Match {
	out := make([]domain.Match, len(eligible))
	for i, e := range eligible {
		out[i] = domain.Match{
			RequestID:  requestID,
			OperatorID: e.OperatorID,
			DistanceKm: e.DistanceKm,
			Rank:       i,
		}
	}
	return out
}

// validateDraft enforces the intake rules:
//   - a requester email that parses as an address
//   - non-empty raw pickup and destination text
//   - at least one passenger
//   - coordinates, when present, inside the legal ranges
//   - a known confidence level on both locations
//   - a departure time
func validateDraft(req domain.CharterRequest) error {
	if req.RequesterEmail == "" {
		return fmt.Errorf("%w: requester_email is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.RequesterEmail); err != nil {
		return fmt.Errorf("%w: requester_email is not a valid address", domain.ErrValidation)
	}
	if req.PassengerCount < 1 {
		return fmt.Errorf("%w: passenger_count must be at least 1", domain.ErrValidation)
	}
	if req.DepartureAt.IsZero() {
		return fmt.Errorf("%w: departure_at is required", domain.ErrValidation)
	}
	if err := validateLocation("pickup", req.Pickup); err != nil {
		return err
	}
	return validateLocation("destination", req.Destination)
}

func validateLocation(name string, loc domain.Location) error {
	if strings.TrimSpace(loc.RawInput) == "" {
		return fmt.Errorf("%w: %s.raw_input is required", domain.ErrValidation, name)
	}
	if loc.Coordinates != nil && !loc.Coordinates.Valid() {
		return fmt.Errorf("%w: %s.coordinates out of range", domain.ErrValidation, name)
	}
	if !loc.Confidence.Valid() {
		return fmt.Errorf("%w: %s.confidence must be low, medium or high", domain.ErrValidation, name)
	}
	return nil
}
